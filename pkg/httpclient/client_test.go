package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-vacancy-manager/internal/errors"
)

func TestClient_GetSendsHeadersAndParams(t *testing.T) {
	var gotAgent string
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	c := NewClient(5*time.Second, WithHeader("User-Agent", "db-vacancy-manager"))
	defer c.Close()

	resp, err := c.Get(context.Background(), server.URL+"/employers?fixed=1", url.Values{
		"text":     {"Яндекс"},
		"per_page": {"1"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": []}`, string(body))
	assert.Equal(t, "db-vacancy-manager", gotAgent)
	assert.Equal(t, "Яндекс", gotQuery.Get("text"))
	assert.Equal(t, "1", gotQuery.Get("per_page"))
	assert.Equal(t, "1", gotQuery.Get("fixed"))
}

func TestClient_GetNon2xxIsUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad argument", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	_, err := c.Get(context.Background(), server.URL+"/vacancies", nil)

	require.Error(t, err)
	assert.Equal(t, errors.KindUpstream, errors.KindOf(err))
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))
	assert.Contains(t, err.Error(), "bad argument")
}

func TestClient_GetTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c := NewClient(time.Second)
	_, err := c.Get(context.Background(), addr+"/employers", nil)

	require.Error(t, err)
	assert.Equal(t, errors.KindUpstream, errors.KindOf(err))
}

func TestClient_GetHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(time.Second)
	_, err := c.Get(ctx, server.URL, nil)
	assert.Error(t, err)
}

func TestRateLimiter_WaitBlocksWhenEmpty(t *testing.T) {
	rl := NewRateLimiter(1)

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Error(t, rl.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiter_BurstIsOneMinuteQuota(t *testing.T) {
	rl := NewRateLimiter(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

func TestWithRateLimit_ZeroDisables(t *testing.T) {
	c := NewClient(time.Second, WithRateLimit(0))
	assert.Nil(t, c.limiter)

	c = NewClient(time.Second, WithRateLimit(60))
	defer c.Close()
	assert.NotNil(t, c.limiter)
}
