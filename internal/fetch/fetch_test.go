package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jobradar-engine/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return New(Options{
		Timeout:       2 * time.Second,
		MaxAttempts:   3,
		HostReqPerSec: 1000,
		HostBurst:     1000,
		BackoffBase:   time.Millisecond,
	})
}

func testSource(baseURL string) config.Source {
	return config.Source{
		ID:       "portal-a",
		BaseURL:  baseURL + "/jobs?page=%d",
		Strategy: config.StrategyStatic,
	}
}

func TestFetchStaticOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html>page %s</html>", r.URL.Query().Get("page"))
	}))
	defer srv.Close()

	html, err := testClient().Fetch(context.Background(), testSource(srv.URL), 2)
	require.NoError(t, err)
	assert.Contains(t, html, "page 2")
}

func TestFetchRetries5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient().Fetch(context.Background(), testSource(srv.URL), 1)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CauseHTTP, fe.Cause)
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, int32(3), hits.Load(), "5xx must be retried up to max attempts")
	assert.Equal(t, "portal-a", fe.Source)
	assert.Equal(t, 1, fe.Page)
}

func TestFetch4xxNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testClient().Fetch(context.Background(), testSource(srv.URL), 1)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CauseHTTP, fe.Cause)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Equal(t, int32(1), hits.Load(), "client errors surface on the first attempt")
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	html, err := testClient().Fetch(context.Background(), testSource(srv.URL), 1)
	require.NoError(t, err)
	assert.Contains(t, html, "ok")
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchTimeoutCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Options{
		Timeout:       30 * time.Millisecond,
		MaxAttempts:   2,
		HostReqPerSec: 1000,
		HostBurst:     1000,
		BackoffBase:   time.Millisecond,
	})

	_, err := c.Fetch(context.Background(), testSource(srv.URL), 1)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CauseTimeout, fe.Cause)
	assert.Equal(t, 2, fe.Attempts)
}

func TestFetchBaseURLWithoutPagePlaceholder(t *testing.T) {
	var requested atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.Store(r.URL.String())
		fmt.Fprint(w, "<html>fixed</html>")
	}))
	defer srv.Close()

	src := config.Source{ID: "fixed", BaseURL: srv.URL + "/jobs", Strategy: config.StrategyStatic}

	html, err := testClient().Fetch(context.Background(), src, 2)
	require.NoError(t, err)
	assert.Contains(t, html, "fixed")
	assert.Equal(t, "/jobs", requested.Load(), "the page number must not corrupt a fixed URL")
}

func TestFetchRenderedWithoutPool(t *testing.T) {
	src := config.Source{ID: "r", BaseURL: "https://example.com/%d", Strategy: config.StrategyRendered}

	c := New(Options{MaxAttempts: 1, HostReqPerSec: 1000, HostBurst: 1000, BackoffBase: time.Millisecond})
	_, err := c.Fetch(context.Background(), src, 1)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CauseRender, fe.Cause)
}
