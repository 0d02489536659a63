package httptransport

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/config"
)

func TestNewServerAppliesConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         3000,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 4 * time.Second,
		IdleTimeout:  8 * time.Second,
	}

	srv := NewServer(cfg, http.NotFoundHandler(), zerolog.New(&buf))

	require.Equal(t, "127.0.0.1:3000", srv.Addr)
	require.Equal(t, 2*time.Second, srv.ReadTimeout)
	require.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
	require.Equal(t, 4*time.Second, srv.WriteTimeout)
	require.Equal(t, 8*time.Second, srv.IdleTimeout)

	srv.ErrorLog.Print("http: TLS handshake error")
	require.Contains(t, buf.String(), `"component":"http.server"`)
	require.Contains(t, buf.String(), "TLS handshake error")
}
