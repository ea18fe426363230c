// Package handler implements the Gin HTTP surface over the Contract-Review
// Engine (C15): thin handlers translating requests into Engine calls and
// Engine results into the §6 response shapes, plus the auth and
// error-rendering middleware every route shares.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/types"
)

// claims is the JWT payload the auth boundary reads tenant/user scoping
// from. Issuance is out of scope (§1.1); this middleware only verifies.
type claims struct {
	TenantID uint64 `json:"tenant_id"`
	UserID   uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Auth returns middleware that verifies a bearer token (or ?token= query
// param, for SSE endpoints an EventSource can't attach a header to) with
// secret, and sets TenantIDContextKey/UserIDContextKey on the request
// context for downstream handlers and repositories to read.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithError(http.StatusUnauthorized, apperrors.NewUnauthorizedError("missing bearer token"))
			return
		}

		token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithError(http.StatusUnauthorized, apperrors.NewUnauthorizedError("invalid bearer token"))
			return
		}
		cl, ok := token.Claims.(*claims)
		if !ok {
			c.AbortWithError(http.StatusUnauthorized, apperrors.NewUnauthorizedError("invalid token claims"))
			return
		}

		ctx := context.WithValue(c.Request.Context(), types.TenantIDContextKey, cl.TenantID)
		ctx = context.WithValue(ctx, types.UserIDContextKey, cl.UserID)
		ctx = logger.WithFields(ctx, map[string]any{"tenant_id": cl.TenantID, "user_id": cl.UserID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// TenantID reads the authenticated tenant id a handler operates under.
func TenantID(c *gin.Context) uint64 { return ctxUint(c, types.TenantIDContextKey) }

// UserID reads the authenticated user id a handler operates under.
func UserID(c *gin.Context) uint64 { return ctxUint(c, types.UserIDContextKey) }

func ctxUint(c *gin.Context, key types.ContextKey) uint64 {
	v, _ := c.Request.Context().Value(key).(uint64)
	return v
}

// ErrorRenderer is the single error-rendering middleware every route's
// c.Error(appErr) ends up at: it converts the last registered gin error
// into the appropriate HTTP status and a stable JSON error code.
func ErrorRenderer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := apperrors.As(err)
		if appErr == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "Invariant", "message": err.Error()})
			return
		}
		c.JSON(appErr.Status, gin.H{"code": string(appErr.Kind), "message": appErr.Message})
	}
}

// parseUintParam reads a uint64 path/query param, raising a typed
// BadRequest error on failure.
func parseUintParam(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewBadRequestError(apperrors.KindInvalidID, "invalid id %q", raw)
	}
	return v, nil
}
