package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/omihq/twitter-bridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStalledProvider(t *testing.T, timeout time.Duration) *TwitterProvider {
	t.Helper()

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	return NewTwitterProvider(&config.TwitterConfig{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		TokenURL:       ts.URL + "/2/oauth2/token",
		RequestTimeout: timeout,
	})
}

func TestExchangeBoundedTimeout(t *testing.T) {
	provider := newStalledProvider(t, 200*time.Millisecond)

	start := time.Now()
	_, err := provider.Exchange(context.Background(), "c1", "verifier")
	elapsed := time.Since(start)

	require.Error(t, err, "a stalled token endpoint must not hang the exchange")
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRefreshBoundedTimeout(t *testing.T) {
	provider := newStalledProvider(t, 200*time.Millisecond)

	start := time.Now()
	_, err := provider.Refresh(context.Background(), "RT1")
	elapsed := time.Since(start)

	require.Error(t, err, "a stalled token endpoint must not hang the refresh")
	assert.Less(t, elapsed, 2*time.Second)
}
