// Package docs holds the OpenAPI document served at /swagger when
// SWAGGER_ENABLED is set. Regenerate with swag init after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/analytics": {
            "post": {
                "description": "Stores one session. Location fields come from the edge geolocation headers.\nWith an Idempotency-Key, a retry within the TTL returns the original session (200) instead of inserting again.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Analytics"
                ],
                "summary": "Record a page view",
                "operationId": "ingestSession",
                "parameters": [
                    {
                        "type": "string",
                        "example": "8c5b2a3e-1f0d-4a8e-9b51-0a6c4f1d2e73",
                        "description": "Client-generated key for safe retries",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "description": "Page view",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/services.IngestRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Replayed",
                        "schema": {
                            "$ref": "#/definitions/domain.Session"
                        }
                    },
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.Session"
                        }
                    },
                    "400": {
                        "description": "Invalid payload",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Idempotency key in use",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/posts/{slug}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Posts"
                ],
                "summary": "Counters of a post",
                "operationId": "getPost",
                "parameters": [
                    {
                        "type": "string",
                        "example": "hello-world",
                        "description": "Post slug",
                        "name": "slug",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.PostSummary"
                        }
                    },
                    "400": {
                        "description": "Invalid slug",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "description": "Unknown slugs report zero views and likes."
            }
        },
        "/posts/{slug}/views": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Posts"
                ],
                "summary": "Count one view of a post",
                "operationId": "incrementViews",
                "parameters": [
                    {
                        "type": "string",
                        "example": "hello-world",
                        "description": "Post slug",
                        "name": "slug",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PostStats"
                        }
                    },
                    "400": {
                        "description": "Invalid slug",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/posts/{slug}/likes": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Posts"
                ],
                "summary": "Like a post",
                "operationId": "incrementLikes",
                "parameters": [
                    {
                        "type": "string",
                        "example": "hello-world",
                        "description": "Post slug",
                        "name": "slug",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.LikesResult"
                        }
                    },
                    "400": {
                        "description": "Invalid slug",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "description": "Adds one like from the calling visitor. Once the per-visitor cap is reached the counts stay unchanged."
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Posts"
                ],
                "summary": "Likes of a post",
                "operationId": "getLikes",
                "parameters": [
                    {
                        "type": "string",
                        "example": "hello-world",
                        "description": "Post slug",
                        "name": "slug",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.LikesResult"
                        }
                    },
                    "400": {
                        "description": "Invalid slug",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "description": "Returns the total and the calling visitor's own count."
            }
        },
        "/stats/os": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Sessions per operating system",
                "operationId": "statsOS",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.GroupCount"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stats/browsers": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Sessions per browser",
                "operationId": "statsBrowsers",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.GroupCount"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stats/devices": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Sessions per device class",
                "operationId": "statsDevices",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.GroupCount"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stats/referrers": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Sessions per referrer (\"direct\" when none)",
                "operationId": "statsReferrers",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.GroupCount"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stats/paths": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Sessions per path",
                "operationId": "statsPaths",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.GroupCount"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stats/countries": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Sessions per country with flag",
                "operationId": "statsCountries",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.GroupCount"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "description": "Sessions without a country are excluded, including from the percentage base."
            }
        },
        "/stats/visits": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Daily visit series",
                "operationId": "statsVisits",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.VisitPoint"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "description": "One point per calendar day (analytics time zone) with at least one session, oldest first.",
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 0,
                        "example": 30,
                        "description": "Trailing window in days; 0 or absent for all time",
                        "name": "days",
                        "in": "query"
                    }
                ]
            }
        },
        "/stats/total": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Total number of sessions",
                "operationId": "statsTotal",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handlers.TotalResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/stats/dashboard": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Stats"
                ],
                "summary": "Every aggregate in one response",
                "operationId": "statsDashboard",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/services.Dashboard"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "minimum": 0,
                        "example": 30,
                        "description": "Trailing window in days; 0 or absent for all time",
                        "name": "days",
                        "in": "query"
                    }
                ]
            }
        }
    },
    "definitions": {
        "domain.GroupCount": {
            "type": "object",
            "description": "Rendered keyed by its dimension, e.g. {\"os\":\"Windows\",\"count\":2,\"percent\":66.7}; country rows add flag.",
            "properties": {
                "count": {
                    "type": "integer",
                    "example": 2
                },
                "percent": {
                    "type": "number",
                    "example": 66.7
                },
                "flag": {
                    "type": "string",
                    "example": "🇬🇷"
                }
            }
        },
        "domain.PostStats": {
            "type": "object",
            "properties": {
                "slug": {
                    "type": "string",
                    "example": "hello-world"
                },
                "views": {
                    "type": "integer",
                    "example": 42
                },
                "likesByUser": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                }
            }
        },
        "domain.Session": {
            "type": "object",
            "properties": {
                "path": {
                    "type": "string"
                },
                "referrer": {
                    "type": "string"
                },
                "browser": {
                    "type": "string"
                },
                "os": {
                    "type": "string"
                },
                "device": {
                    "type": "string"
                },
                "screen": {
                    "type": "string"
                },
                "language": {
                    "type": "string"
                },
                "city": {
                    "type": "string"
                },
                "country": {
                    "type": "string"
                },
                "region": {
                    "type": "string"
                },
                "flag": {
                    "type": "string"
                },
                "latitude": {
                    "type": "string"
                },
                "longitude": {
                    "type": "string"
                }
            }
        },
        "domain.VisitPoint": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string",
                    "example": "2026-10-15"
                },
                "visits": {
                    "type": "integer",
                    "example": 17
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "example": "validation_error"
                },
                "error": {
                    "type": "object"
                },
                "message": {
                    "type": "string",
                    "example": "Error inserting session"
                },
                "request_id": {
                    "type": "string",
                    "example": "0f8fad5b-d9cb-469f-a165-70867728950e"
                }
            }
        },
        "handlers.TotalResponse": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer",
                    "example": 1024
                }
            }
        },
        "services.Dashboard": {
            "type": "object",
            "properties": {
                "browsers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GroupCount"
                    }
                },
                "countries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GroupCount"
                    }
                },
                "devices": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GroupCount"
                    }
                },
                "os": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GroupCount"
                    }
                },
                "paths": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GroupCount"
                    }
                },
                "referrers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.GroupCount"
                    }
                },
                "total": {
                    "type": "integer"
                },
                "visits": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.VisitPoint"
                    }
                }
            }
        },
        "services.IngestRequest": {
            "type": "object",
            "required": [
                "path"
            ],
            "properties": {
                "path": {
                    "type": "string",
                    "maxLength": 2048,
                    "example": "/blog/hello-world"
                },
                "referrer": {
                    "type": "string",
                    "maxLength": 2048
                },
                "browser": {
                    "type": "string",
                    "maxLength": 64
                },
                "os": {
                    "type": "string",
                    "maxLength": 64
                },
                "device": {
                    "type": "string",
                    "maxLength": 32
                },
                "screen": {
                    "type": "string",
                    "maxLength": 32
                },
                "language": {
                    "type": "string",
                    "maxLength": 35
                }
            }
        },
        "services.LikesResult": {
            "type": "object",
            "properties": {
                "likesByUser": {
                    "type": "integer",
                    "example": 1
                },
                "totalLikes": {
                    "type": "integer",
                    "example": 12
                }
            }
        },
        "services.PostSummary": {
            "type": "object",
            "properties": {
                "slug": {
                    "type": "string",
                    "example": "hello-world"
                },
                "totalLikes": {
                    "type": "integer",
                    "example": 12
                },
                "views": {
                    "type": "integer",
                    "example": 42
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "HS256 JWT issued by the blog's auth service: \"Bearer <token>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Blog Analytics API",
	Description:      "Page view ingestion, dashboard aggregates and per-post view/like counters.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
