package main

import (
	"net/http"

	"github.com/kube-rca/auth-gateway/internal/client"
	"github.com/kube-rca/auth-gateway/internal/config"
	"github.com/kube-rca/auth-gateway/internal/handler"
	"github.com/kube-rca/auth-gateway/internal/logger"
	"github.com/kube-rca/auth-gateway/internal/server"
	"github.com/kube-rca/auth-gateway/internal/service"
	"github.com/kube-rca/auth-gateway/internal/telemetry"
	"go.uber.org/fx"
)

// @title Supabase Authentication API
// @version 1.0.0
// @description Authentication API backed by a hosted identity provider.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Provider access token, prefixed with "Bearer ".
func main() {
	fx.New(appOptions()).Run()
}

// appOptions는 애플리케이션 의존성 그래프 (테스트에서도 재사용)
func appOptions() fx.Option {
	return fx.Options(
		config.Module,
		fx.WithLogger(logger.FxLogger),
		fx.Provide(
			logger.New,
			telemetry.NewTracerProvider,
			// 외부 인증 서비스 클라이언트는 프로세스당 하나만 생성
			fx.Annotate(
				client.NewProviderClient,
				fx.As(new(service.IdentityProvider)),
			),
			service.NewAuthService,
			handler.NewAuthHandler,
			handler.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(func(*http.Server) {}),
	)
}
