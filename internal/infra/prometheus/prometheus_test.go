package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sifan077/PowerBio/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	srv := NewServer(config.PrometheusConfig{})
	assert.Equal(t, ":9090", srv.Addr)

	RedirectsTotal.WithLabelValues("hit").Inc()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `powerbio_redirects_total{result="hit"}`)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/-/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
