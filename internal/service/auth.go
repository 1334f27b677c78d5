package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kube-rca/auth-gateway/internal/client"
	"github.com/kube-rca/auth-gateway/internal/config"
	"github.com/kube-rca/auth-gateway/internal/model"
	"go.uber.org/zap"
)

const tokenTypeBearer = "bearer"

// IdentityProvider is the set of provider calls the service forwards to.
// *client.ProviderClient implements it.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*client.AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*client.AuthResponse, error)
	GetUser(ctx context.Context, accessToken string) (*client.ProviderUser, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*client.AuthResponse, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, accessToken string, attrs client.UserAttributes) (*client.ProviderUser, error)
}

var _ IdentityProvider = (*client.ProviderClient)(nil)

type AuthService struct {
	provider    IdentityProvider
	log         *zap.Logger
	validate    *validator.Validate
	algorithm   string
	fallbackTTL time.Duration
	resetURL    string
	now         func() time.Time
}

func NewAuthService(provider IdentityProvider, tokenCfg config.TokenConfig, providerCfg config.ProviderConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		provider:    provider,
		log:         log.Named("auth"),
		validate:    validator.New(),
		algorithm:   tokenCfg.Algorithm,
		fallbackTTL: tokenCfg.AccessTokenTTL(),
		resetURL:    providerCfg.PasswordResetRedirectURL,
		now:         time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, invalidInput("password is required")
	}

	var metadata map[string]any
	if req.FullName != nil {
		metadata = map[string]any{"full_name": *req.FullName}
	}

	resp, err := s.provider.SignUp(ctx, email, req.Password, metadata)
	if err != nil {
		s.log.Warn("provider sign-up failed", zap.Error(err))
		if isDuplicateUser(err) {
			return nil, providerFailure(MsgEmailAlreadyRegistered, err)
		}
		return nil, providerFailure(providerMessage(err), err)
	}
	if resp == nil || resp.User == nil {
		return nil, providerFailure(MsgRegistrationFailed, nil)
	}

	return &model.RegisterResponse{
		Message: MsgRegistrationSuccessful,
		User:    summarize(resp.User),
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	email := strings.TrimSpace(req.Email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}

	resp, err := s.provider.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		s.log.Info("provider sign-in rejected", zap.Error(err))
		return nil, unauthorized(MsgInvalidCredentials, err)
	}

	token, ok := s.tokenResponse(resp)
	if !ok {
		return nil, unauthorized(MsgInvalidCredentials, nil)
	}
	return token, nil
}

// Authenticate resolves a bearer token into the calling user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	if accessToken == "" {
		return nil, unauthorized(MsgNotAuthenticated, nil)
	}

	user, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		s.log.Debug("provider user lookup failed", zap.Error(err))
		return nil, unauthorized(MsgInvalidAuthCredentials, err)
	}
	if user == nil {
		return nil, unauthorized(MsgInvalidAuthCredentials, nil)
	}

	summary := summarize(user)
	return &model.AuthUser{
		ID:          summary.ID,
		Email:       summary.Email,
		CreatedAt:   summary.CreatedAt,
		FullName:    summary.FullName,
		AccessToken: accessToken,
	}, nil
}

// Logout revokes the caller's provider session. Without a token there is
// nothing to revoke and the call succeeds.
func (s *AuthService) Logout(ctx context.Context, accessToken string) (*model.MessageResponse, error) {
	if accessToken != "" {
		if err := s.provider.SignOut(ctx, accessToken); err != nil {
			s.log.Warn("provider sign-out failed", zap.Error(err))
			return nil, providerFailure(providerMessage(err), err)
		}
	}
	return &model.MessageResponse{Message: MsgLoggedOut}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, unauthorized(MsgInvalidRefreshToken, nil)
	}

	resp, err := s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		s.log.Info("provider refresh rejected", zap.Error(err))
		return nil, unauthorized(MsgInvalidRefreshToken, err)
	}

	token, ok := s.tokenResponse(resp)
	if !ok {
		return nil, unauthorized(MsgInvalidRefreshToken, nil)
	}
	return token, nil
}

// RequestPasswordReset always answers with the same message so callers
// cannot learn whether an account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) *model.MessageResponse {
	email = strings.TrimSpace(email)
	if err := s.provider.ResetPasswordForEmail(ctx, email, s.resetURL); err != nil {
		s.log.Warn("provider password recovery failed", zap.Error(err))
	}
	return &model.MessageResponse{Message: MsgPasswordResetSent}
}

func (s *AuthService) UpdatePassword(ctx context.Context, accessToken, newPassword string) (*model.MessageResponse, error) {
	if accessToken == "" {
		return nil, unauthorized(MsgNotAuthenticated, nil)
	}
	if newPassword == "" {
		return nil, invalidInput("new_password is required")
	}

	user, err := s.provider.UpdateUser(ctx, accessToken, client.UserAttributes{Password: newPassword})
	if err != nil {
		s.log.Warn("provider password update failed", zap.Error(err))
		return nil, providerFailure(providerMessage(err), err)
	}
	if user == nil {
		return nil, unauthorized(MsgNotAuthenticated, nil)
	}
	return &model.MessageResponse{Message: MsgPasswordUpdated}, nil
}

func (s *AuthService) validateEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return invalidInput("email must be a valid email address")
	}
	return nil
}

func (s *AuthService) tokenResponse(resp *client.AuthResponse) (*model.TokenResponse, bool) {
	if resp == nil || resp.Session == nil || resp.Session.AccessToken == "" {
		return nil, false
	}
	user := resp.User
	if user == nil {
		user = resp.Session.User
	}
	if user == nil {
		return nil, false
	}

	return &model.TokenResponse{
		AccessToken:  resp.Session.AccessToken,
		RefreshToken: resp.Session.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    s.expiresIn(resp.Session),
		User:         summarize(user),
	}, true
}

// expiresIn prefers the provider's own value, then the access token's exp
// claim, then the session's absolute expiry, then the configured default.
func (s *AuthService) expiresIn(session *client.ProviderSession) int64 {
	if session.ExpiresIn > 0 {
		return session.ExpiresIn
	}
	now := s.now()
	if exp, ok := s.accessTokenExpiry(session.AccessToken); ok {
		if left := exp.Sub(now); left > 0 {
			return int64(left.Seconds())
		}
	}
	if session.ExpiresAt > 0 {
		if left := time.Unix(session.ExpiresAt, 0).Sub(now); left > 0 {
			return int64(left.Seconds())
		}
	}
	return int64(s.fallbackTTL.Seconds())
}

// accessTokenExpiry reads exp without verifying the signature; the provider
// owns verification.
func (s *AuthService) accessTokenExpiry(raw string) (time.Time, bool) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, &jwt.RegisteredClaims{})
	if err != nil || token.Method == nil {
		return time.Time{}, false
	}
	if s.algorithm != "" && token.Method.Alg() != s.algorithm {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func summarize(user *client.ProviderUser) model.UserSummary {
	summary := model.UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if name, ok := user.UserMetadata["full_name"].(string); ok {
		summary.FullName = name
	}
	return summary
}

func isDuplicateUser(err error) bool {
	var perr *client.ProviderError
	if errors.As(err, &perr) {
		switch perr.Code {
		case "user_already_exists", "email_exists":
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "already registered")
}

func providerMessage(err error) string {
	var perr *client.ProviderError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}
