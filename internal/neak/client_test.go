package neak

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eligibilityServer(t *testing.T, calls *atomic.Int64, eligible bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/eligibility", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req checkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.TAJ)
		assert.NotEmpty(t, req.Date)

		_ = json.NewEncoder(w).Encode(map[string]bool{"eligible": eligible})
	}))
}

func testClient(t *testing.T, baseURL string, withRedis bool) *Client {
	t.Helper()
	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	c := NewClient(ClientConfig{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
	}, rdb)
	c.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestCheckEligible(t *testing.T) {
	var calls atomic.Int64
	srv := eligibilityServer(t, &calls, true)
	defer srv.Close()

	c := testClient(t, srv.URL, false)
	out, err := c.Check(context.Background(), "123 456 789", time.Now())
	require.NoError(t, err)

	assert.Equal(t, ResultEligible, out.Result)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCheckIneligible(t *testing.T) {
	var calls atomic.Int64
	srv := eligibilityServer(t, &calls, false)
	defer srv.Close()

	c := testClient(t, srv.URL, false)
	out, err := c.Check(context.Background(), "123 456 789", time.Now())
	require.NoError(t, err)
	assert.Equal(t, ResultIneligible, out.Result)
}

func TestCheckUnknownOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, false)
	out, err := c.Check(context.Background(), "123 456 789", time.Now())
	require.NoError(t, err)

	assert.Equal(t, ResultUnknown, out.Result)
	assert.Equal(t, http.StatusServiceUnavailable, out.StatusCode)
}

func TestCheckUnknownOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, false)
	out, err := c.Check(context.Background(), "123 456 789", time.Now())
	require.NoError(t, err)
	assert.Equal(t, ResultUnknown, out.Result)
}

func TestCheckUsesCache(t *testing.T) {
	var calls atomic.Int64
	srv := eligibilityServer(t, &calls, true)
	defer srv.Close()

	c := testClient(t, srv.URL, true)

	first, err := c.Check(context.Background(), "123 456 789", time.Now())
	require.NoError(t, err)
	second, err := c.Check(context.Background(), "123 456 789", time.Now())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "second lookup must come from cache")
}

func TestConcurrentChecksCollapse(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]bool{"eligible": true})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, false)

	var wg sync.WaitGroup
	results := make([]CheckOutcome, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := c.Check(context.Background(), "123 456 789", time.Now())
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}

	// give the goroutines time to pile onto the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, out := range results {
		assert.Equal(t, ResultEligible, out.Result)
	}
}

func TestSharedFlightSurvivesFirstCallerCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]bool{"eligible": true})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, false)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Check(firstCtx, "123 456 789", time.Now())
		firstErr <- err
	}()

	<-started

	var wg sync.WaitGroup
	results := make([]CheckOutcome, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := c.Check(context.Background(), "123 456 789", time.Now())
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}
	time.Sleep(50 * time.Millisecond)

	// the initiating caller goes away mid-flight
	cancelFirst()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, out := range results {
		assert.Equal(t, ResultEligible, out.Result, "waiters must not inherit the first caller's cancellation")
	}
	assert.NoError(t, <-firstErr)
}
