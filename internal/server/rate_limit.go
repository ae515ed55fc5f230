package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/hourstay/internal/observability/context"
	"github.com/smallbiznis/hourstay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/hourstay/internal/observability/metrics"
	"go.uber.org/zap"
)

const rateLimitReasonDocumentRate = "document-rate"

// DocumentRateLimit throttles document downloads per caller role and client
// address.
func (s *Server) DocumentRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		role, _ := obscontext.ActorFromContext(ctx)
		client := role + ":" + c.ClientIP()

		result, err := s.limiter.AllowRender(ctx, client)
		if err != nil {
			logger.FromContext(ctx).Warn("document rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if result != nil && result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if result != nil && !result.Allowed {
			retryAfter := 1
			if result.RetryAfter > 0 {
				retryAfter = int(math.Ceil(result.RetryAfter.Seconds()))
			}
			denyDocumentRateLimit(c, endpoint, rateLimitReasonDocumentRate, retryAfter, s.obsMetrics)
			return
		}

		c.Next()
	}
}

func denyDocumentRateLimit(c *gin.Context, endpoint, reason string, retryAfter int, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("document rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
