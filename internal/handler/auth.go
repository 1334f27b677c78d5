package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kube-rca/auth-gateway/internal/model"
	"github.com/kube-rca/auth-gateway/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc *service.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log.Named("handler")}
}

// RegisterRoutes mounts the auth endpoints under /api/auth.
func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/auth")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.GET("/me", RequireAuth(h.svc), h.Me)
	api.POST("/logout", OptionalAuth(h.svc), h.Logout)
	api.POST("/refresh", h.Refresh)
	api.POST("/reset-password-request", h.ResetPasswordRequest)
	api.POST("/update-password", RequireAuth(h.svc), h.UpdatePassword)
}

// Register godoc
// @Summary Register a new user
// @Description Creates the account at the identity provider.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Email, password and optional full name"
// @Success 200 {object} model.RegisterResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.TokenResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserSummary
// @Failure 401 {object} model.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortUnauthorized(c, service.MsgNotAuthenticated)
		return
	}
	c.JSON(http.StatusOK, user.Summary())
}

// Logout godoc
// @Summary Logout
// @Description Revokes the caller's provider session when a bearer token is sent.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	resp, err := h.svc.Logout(c.Request.Context(), BearerToken(c))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	if user := GetAuthUser(c); user != nil {
		h.log.Info("user logged out", zap.String("user_id", user.ID))
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Accepts refresh_token as JSON body or query parameter.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest false "Refresh token"
// @Param refresh_token query string false "Refresh token"
// @Success 200 {object} model.TokenResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := bindBodyOrQuery(c, &req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResetPasswordRequest godoc
// @Summary Request a password reset email
// @Description Always answers with the same message, whether or not the email exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.PasswordResetRequest false "Email"
// @Param email query string false "Email"
// @Success 200 {object} model.MessageResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/auth/reset-password-request [post]
func (h *AuthHandler) ResetPasswordRequest(c *gin.Context) {
	var req model.PasswordResetRequest
	if err := bindBodyOrQuery(c, &req); err != nil {
		writeBindError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.RequestPasswordReset(c.Request.Context(), req.Email))
}

// UpdatePassword godoc
// @Summary Update the caller's password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdatePasswordRequest false "New password"
// @Param new_password query string false "New password"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 422 {object} model.ErrorResponse
// @Router /api/auth/update-password [post]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		abortUnauthorized(c, service.MsgNotAuthenticated)
		return
	}

	var req model.UpdatePasswordRequest
	if err := bindBodyOrQuery(c, &req); err != nil {
		writeBindError(c, err)
		return
	}

	resp, err := h.svc.UpdatePassword(c.Request.Context(), user.AccessToken, req.NewPassword)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bindBodyOrQuery reads a JSON body when one is sent and falls back to
// query/form parameters otherwise.
func bindBodyOrQuery(c *gin.Context, obj any) error {
	if c.ContentType() == binding.MIMEJSON && c.Request.ContentLength != 0 {
		return c.ShouldBindJSON(obj)
	}
	return c.ShouldBindWith(obj, binding.Form)
}

func writeAuthError(c *gin.Context, err error) {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Detail: "Internal server error"})
		return
	}

	switch {
	case errors.Is(authErr.Kind, service.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{Detail: authErr.Detail})
	case errors.Is(authErr.Kind, service.ErrUnauthorized):
		abortUnauthorized(c, authErr.Detail)
	case errors.Is(authErr.Kind, service.ErrProvider):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: authErr.Detail})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Detail: "Internal server error"})
	}
}
