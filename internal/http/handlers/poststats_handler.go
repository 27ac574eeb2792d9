// Post stats HTTP handlers.
//
// This file exposes the counters shown next to each article:
//   - POST /posts/{slug}/views   (count one view)
//   - POST /posts/{slug}/likes   (add one like from the caller)
//   - GET  /posts/{slug}/likes   (total and caller's likes)
//   - GET  /posts/{slug}         (views and total likes)
//
// The caller is identified by the visitor hash set by middleware.Visitor.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-analytics/internal/http/middleware"
	"github.com/tbourn/go-blog-analytics/internal/services"
)

func (h *Handlers) postError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidSlug):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSlug, "slug must match [a-z0-9][a-z0-9_-]{0,199}")
	case errors.Is(err, services.ErrInvalidUser):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "visitor could not be identified")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "post stats unavailable")
	}
}

// IncrementViews godoc
// @ID          incrementViews
// @Summary     Count one view of a post
// @Tags        Posts
// @Produce     json
// @Param       slug  path  string  true  "Post slug"  example(hello-world)
// @Success     200  {object} domain.PostStats
// @Failure     400  {object} handlers.ErrorResponse "Invalid slug"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /posts/{slug}/views [post]
func (h *Handlers) IncrementViews(c *gin.Context) {
	p, err := h.posts.IncrementViews(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.postError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// IncrementLikes godoc
// @ID          incrementLikes
// @Summary     Like a post
// @Description Adds one like from the calling visitor. Once the per-visitor cap is reached the counts stay unchanged.
// @Tags        Posts
// @Produce     json
// @Param       slug  path  string  true  "Post slug"  example(hello-world)
// @Success     200  {object} services.LikesResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid slug"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /posts/{slug}/likes [post]
func (h *Handlers) IncrementLikes(c *gin.Context) {
	res, err := h.posts.IncrementLikes(c.Request.Context(), c.Param("slug"), middleware.VisitorFrom(c))
	if err != nil {
		h.postError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetLikes godoc
// @ID          getLikes
// @Summary     Likes of a post
// @Description Returns the total and the calling visitor's own count.
// @Tags        Posts
// @Produce     json
// @Param       slug  path  string  true  "Post slug"  example(hello-world)
// @Success     200  {object} services.LikesResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid slug"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /posts/{slug}/likes [get]
func (h *Handlers) GetLikes(c *gin.Context) {
	res, err := h.posts.Likes(c.Request.Context(), c.Param("slug"), middleware.VisitorFrom(c))
	if err != nil {
		h.postError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetPost godoc
// @ID          getPost
// @Summary     Counters of a post
// @Description Unknown slugs report zero views and likes.
// @Tags        Posts
// @Produce     json
// @Param       slug  path  string  true  "Post slug"  example(hello-world)
// @Success     200  {object} services.PostSummary
// @Failure     400  {object} handlers.ErrorResponse "Invalid slug"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /posts/{slug} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	s, err := h.posts.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.postError(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}
