package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/auth-gateway/internal/model"
)

// Root godoc
// @Summary Service banner
// @Tags health
// @Produce json
// @Success 200 {object} model.RootResponse
// @Router / [get]
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, model.RootResponse{
		Message:      "Supabase Authentication API",
		Status:       "running",
		AuthProvider: "Supabase",
	})
}

// Health godoc
// @Summary Liveness probe
// @Description Does not contact the identity provider.
// @Tags health
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Router /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{Status: "healthy"})
}
