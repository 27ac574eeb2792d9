package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const subjectKey = "auth.subject"

var errMissingBearer = errors.New("missing bearer token")

// BearerAuth guards routes with an HS256 JWT in the Authorization header.
// Tokens are issued elsewhere; this only verifies signature, a mandatory expiry
// and not-before. The token subject is stored for SubjectFrom.
func BearerAuth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
	)
	keyFn := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *gin.Context) {
		claims := jwt.RegisteredClaims{}
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			_, err = parser.ParseWithClaims(raw, &claims, keyFn)
		}
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("dashboard auth rejected")
			c.Header("WWW-Authenticate", `Bearer realm="dashboard"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    "valid bearer token required",
			})
			return
		}
		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// SubjectFrom returns the authenticated token subject, or "".
func SubjectFrom(c *gin.Context) string {
	v, _ := c.Get(subjectKey)
	return asString(v)
}

func bearerToken(h string) (string, error) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", errMissingBearer
	}
	return strings.TrimSpace(tok), nil
}
