package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kube-rca/auth-gateway/internal/config"
	"go.uber.org/zap"
)

// NewRouter wires middleware and every route into a gin engine.
func NewRouter(server config.ServerConfig, cors config.CORSConfig, auth *AuthHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(server.GinMode)
	useJSONFieldNames()

	router := gin.New()
	router.Use(
		RequestID(),
		RequestLogger(log.Named("http")),
		Recovery(log),
		CORSMiddleware(cors.AllowedOrigins, cors.AllowCredentials),
	)

	router.GET("/", Root)
	router.GET("/health", Health)
	router.GET("/openapi.json", OpenAPIDoc)

	auth.RegisterRoutes(router)

	return router
}
