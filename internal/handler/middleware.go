package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kube-rca/auth-gateway/internal/model"
	"github.com/kube-rca/auth-gateway/internal/service"
	"go.uber.org/zap"
)

const (
	authUserKey     = "auth_user"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// authenticator resolves a bearer token into the calling user.
type authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.AuthUser, error)
}

// BearerToken returns the credentials of an "Authorization: Bearer ..."
// header, or "" when the header is missing or uses another scheme.
func BearerToken(c *gin.Context) string {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// OptionalAuth attaches the caller when a valid bearer token is present.
// It never rejects a request.
func OptionalAuth(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if user, err := auth.Authenticate(c.Request.Context(), token); err == nil && user != nil {
				c.Set(authUserKey, user)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects the request with 401 unless the bearer token resolves
// to a user.
func RequireAuth(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, service.MsgNotAuthenticated)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil || user == nil {
			detail := service.MsgInvalidAuthCredentials
			var authErr *service.AuthError
			if errors.As(err, &authErr) && errors.Is(authErr.Kind, service.ErrUnauthorized) {
				detail = authErr.Detail
			}
			abortUnauthorized(c, detail)
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Detail: detail})
}

// CORSMiddleware allows the configured origins with any method and header.
// An origin of "*" allows every origin; the request origin is echoed back so
// credentials keep working.
func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	allowAll := false
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAll = true
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := false
		if origin != "" {
			_, allowed = originMap[origin]
			allowed = allowed || allowAll
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			if allowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			if !allowed {
				c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Detail: "Disallowed CORS origin"})
				return
			}
			requested := c.GetHeader("Access-Control-Request-Headers")
			if requested == "" {
				requested = "Authorization, Content-Type"
			}
			c.Header("Access-Control-Allow-Headers", requested)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID propagates X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if user := GetAuthUser(c); user != nil {
			fields = append(fields, zap.String("user_id", user.ID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// Recovery converts panics into a 500 with the standard error body.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Detail: "Internal server error"})
	})
}
