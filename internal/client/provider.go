// 외부 인증 서비스(Supabase Auth, GoTrue 호환 REST API)와 통신하는 클라이언트 정의
//
// 환경변수:
//   - SUPABASE_URL: 프로젝트 URL (예: https://xyz.supabase.co)
//   - SUPABASE_KEY: anon/public API 키
//
// 모든 요청에 apikey 헤더를 붙이고, 사용자 대신 호출하는 경우에는
// 사용자 access token을 Bearer로 전달한다.
// 클라이언트는 설정 값만 보관하므로 여러 요청에서 동시에 사용해도 안전하다.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kube-rca/auth-gateway/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	authPathPrefix  = "/auth/v1"
	maxResponseSize = 1 << 20
	tracerName      = "github.com/kube-rca/auth-gateway/internal/client"
)

var ErrMisconfigured = errors.New("provider config invalid")

// ProviderClient is the single long-lived handle to the identity provider.
type ProviderClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
}

// ProviderUser is the provider's user object. Only the fields this service
// reshapes are decoded.
type ProviderUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    string         `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// ProviderSession is an access/refresh token pair issued by the provider.
type ProviderSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *ProviderUser `json:"user"`
}

// AuthResponse mirrors the provider SDK result of sign-up, sign-in and
// refresh calls: either part may be missing.
type AuthResponse struct {
	User    *ProviderUser
	Session *ProviderSession
}

// UserAttributes is the mutable subset of a user sent to UpdateUser.
type UserAttributes struct {
	Email    string         `json:"email,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type credentialsRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

// providerErrorBody covers both error shapes the provider emits:
// {"code","error_code","msg"} and {"error","error_description"}.
type providerErrorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// NewProviderClient 객체 생성
func NewProviderClient(cfg config.ProviderConfig, tp trace.TracerProvider) (*ProviderClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: SUPABASE_URL is required", ErrMisconfigured)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: SUPABASE_KEY is required", ErrMisconfigured)
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &ProviderClient{
		baseURL: baseURL + authPathPrefix,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracer: tp.Tracer(tracerName),
	}, nil
}

// BaseURL returns the auth endpoint root, e.g. https://xyz.supabase.co/auth/v1.
func (c *ProviderClient) BaseURL() string {
	return c.baseURL
}

// POST /signup
//
// 이메일 확인이 켜져 있으면 user만, 꺼져 있으면 session(user 포함)이 돌아온다.
func (c *ProviderClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthResponse, error) {
	var raw struct {
		ProviderUser
		ProviderSession
	}
	req := credentialsRequest{Email: email, Password: password, Data: metadata}
	if err := c.do(ctx, "SignUp", http.MethodPost, "/signup", nil, "", req, &raw); err != nil {
		return nil, err
	}

	resp := &AuthResponse{}
	switch {
	case raw.AccessToken != "":
		session := raw.ProviderSession
		resp.Session = &session
		resp.User = session.User
	case raw.ID != "":
		user := raw.ProviderUser
		resp.User = &user
	}
	return resp, nil
}

// POST /token?grant_type=password
func (c *ProviderClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	query := url.Values{"grant_type": {"password"}}
	req := credentialsRequest{Email: email, Password: password}
	return c.grant(ctx, "SignInWithPassword", query, req)
}

// POST /token?grant_type=refresh_token
func (c *ProviderClient) RefreshSession(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	query := url.Values{"grant_type": {"refresh_token"}}
	return c.grant(ctx, "RefreshSession", query, refreshRequest{RefreshToken: refreshToken})
}

// GET /user
func (c *ProviderClient) GetUser(ctx context.Context, accessToken string) (*ProviderUser, error) {
	var user ProviderUser
	if err := c.do(ctx, "GetUser", http.MethodGet, "/user", nil, accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// POST /logout?scope=global
func (c *ProviderClient) SignOut(ctx context.Context, accessToken string) error {
	query := url.Values{"scope": {"global"}}
	return c.do(ctx, "SignOut", http.MethodPost, "/logout", query, accessToken, nil, nil)
}

// POST /recover
func (c *ProviderClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var query url.Values
	if redirectTo != "" {
		query = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, "ResetPasswordForEmail", http.MethodPost, "/recover", query, "", recoverRequest{Email: email}, nil)
}

// PUT /user
func (c *ProviderClient) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*ProviderUser, error) {
	var user ProviderUser
	if err := c.do(ctx, "UpdateUser", http.MethodPut, "/user", nil, accessToken, attrs, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

func (c *ProviderClient) grant(ctx context.Context, op string, query url.Values, body any) (*AuthResponse, error) {
	var session ProviderSession
	if err := c.do(ctx, op, http.MethodPost, "/token", query, "", body, &session); err != nil {
		return nil, err
	}

	resp := &AuthResponse{User: session.User}
	if session.AccessToken != "" {
		resp.Session = &session
	}
	return resp, nil
}

func (c *ProviderClient) do(ctx context.Context, op, method, path string, query url.Values, bearer string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "provider."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", authPathPrefix+path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}

	if bearer == "" {
		bearer = c.apiKey
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send %s request to provider: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeProviderError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return nil
}

func decodeProviderError(status int, raw []byte) *ProviderError {
	perr := &ProviderError{Status: status}

	var body providerErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		perr.Code = body.ErrorCode
		if perr.Code == "" {
			var code string
			if json.Unmarshal(body.Code, &code) == nil {
				perr.Code = code
			}
		}
		if perr.Code == "" {
			perr.Code = body.Error
		}
		perr.Message = firstNonEmpty(body.Msg, body.ErrorDescription, body.Message, body.Error)
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 256 {
		perr.Message = text
	}

	if perr.Message == "" {
		perr.Message = http.StatusText(status)
	}
	return perr
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
