package network

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"rescue-screener/src/logger"
	"rescue-screener/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, netCfg models.MNetworkConfig) *NetworkManager {
	t.Helper()

	cfg := &models.MConfig{LogLevel: "ERROR", Network: netCfg}
	return NewNetworkManager(cfg, logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

func TestGetAppendsParamsAndUserAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("pn"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	nm := newTestManager(t, models.MNetworkConfig{RequestTimeout: 5})
	body, err := nm.Get(srv.URL, map[string]string{"pn": "1"})

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestGetExhaustsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	nm := newTestManager(t, models.MNetworkConfig{RequestTimeout: 5})
	_, err := nm.Get(srv.URL, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestClientSwapIsSynchronized(t *testing.T) {
	t.Parallel()

	nm := newTestManager(t, models.MNetworkConfig{
		Enabled:        true,
		Proxies:        []string{"http://127.0.0.1:18080", "http://127.0.0.1:18081"},
		RequestTimeout: 5,
	})

	// Rotations and reads hammer the client from separate goroutines; the
	// race detector flags any unguarded swap.
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				nm.rotateProxy()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if nm.currentClient() == nil {
					t.Error("currentClient returned nil during rotation")
					return
				}
			}
		}()
	}
	wg.Wait()
}
