package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestAppStartStop(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon-key")
	t.Setenv("PORT", "0")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("LOG_LEVEL", "error")

	var srv *http.Server
	app := fxtest.New(t, appOptions(), fx.Populate(&srv))
	app.RequireStart()
	require.NotNil(t, srv)
	require.Equal(t, ":0", srv.Addr)
	app.RequireStop()
}
