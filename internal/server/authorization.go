package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/hourstay/internal/authorization"
	obscontext "github.com/smallbiznis/hourstay/internal/observability/context"
)

// Authentication happens at the gateway, which forwards the caller role and
// subject in these headers.
const (
	HeaderUserRole = "X-User-Role"
	HeaderUserID   = "X-User-ID"
)

// ActorContext stores the forwarded caller on the request context. Requests
// without a role are treated as guests.
func (s *Server) ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
		if role == "" {
			role = authorization.RoleGuest
		}
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))

		ctx := obscontext.WithActor(c.Request.Context(), role, id)
		ctx = obscontext.WithClient(ctx, c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := obscontext.ActorFromContext(c.Request.Context())
		if role == "" {
			role = authorization.RoleGuest
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
