package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhop/gogrid/pkg/logger"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	host := strings.TrimPrefix(server.URL, "http://")
	c, err := New(
		Credentials{APIKey: "test-key", Secret: "test-secret"},
		Config{Host: host, Secure: false, Timeout: 5 * time.Second},
		logger.NewDevelopment("client_test"),
	)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	log := logger.NewDevelopment("client_test")

	t.Run("requires credentials", func(t *testing.T) {
		_, err := New(Credentials{}, DefaultConfig(), log)
		assert.Error(t, err)

		_, err = New(Credentials{APIKey: "key"}, DefaultConfig(), log)
		assert.Error(t, err)
	})

	t.Run("defaults to the production host over https", func(t *testing.T) {
		c, err := New(Credentials{APIKey: "key", Secret: "secret"}, Config{Secure: true}, log)
		require.NoError(t, err)
		assert.Equal(t, "https://api.gogrid.com", c.baseURL)
	})

	t.Run("plain http when not secure", func(t *testing.T) {
		c, err := New(Credentials{APIKey: "key", Secret: "secret"}, Config{Secure: false}, log)
		require.NoError(t, err)
		assert.Equal(t, "http://api.gogrid.com", c.baseURL)
	})
}

func TestClient_Do(t *testing.T) {
	t.Run("injects mandated params and fresh signature", func(t *testing.T) {
		var got url.Values
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Query()
			w.Write([]byte(`{"status":"success","list":[]}`))
		}))
		defer server.Close()

		c := testClient(t, server)
		c.now = func() time.Time { return time.Unix(1234567890, 0) }

		resp, err := c.Do(context.Background(), "/api/grid/server/list", nil, http.MethodGet)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		assert.Equal(t, "test-key", got.Get("api_key"))
		assert.Equal(t, APIVersion, got.Get("v"))
		assert.Equal(t, "json", got.Get("format"))
		assert.Equal(t, signature("test-key", "test-secret", time.Unix(1234567890, 0)), got.Get("sig"))
	})

	t.Run("merges caller params", func(t *testing.T) {
		var got url.Values
		var gotMethod string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Query()
			gotMethod = r.Method
			w.Write([]byte(`{"status":"success","list":[]}`))
		}))
		defer server.Close()

		c := testClient(t, server)

		params := url.Values{}
		params.Set("id", "90967")
		params.Set("power", "restart")

		_, err := c.Do(context.Background(), "/api/grid/server/power", params, http.MethodPost)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "90967", got.Get("id"))
		assert.Equal(t, "restart", got.Get("power"))
		assert.NotEmpty(t, got.Get("sig"), "mandated params ride along with caller params")
	})

	t.Run("network failures propagate unclassified", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // refuse connections

		c := testClient(t, server)
		_, err := c.Do(context.Background(), "/api/grid/server/list", nil, http.MethodGet)
		require.Error(t, err)

		var authErr *AuthError
		assert.False(t, errors.As(err, &authErr))
	})

	t.Run("non-JSON body is returned raw for downstream classification", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		c := testClient(t, server)
		resp, err := c.Do(context.Background(), "/api/grid/server/list", nil, http.MethodGet)
		require.NoError(t, err, "transport does not classify bodies")
		assert.Equal(t, "not json", string(resp.Body))
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}))
		defer server.Close()

		c := testClient(t, server)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.Do(ctx, "/api/grid/server/list", nil, http.MethodGet)
		assert.Error(t, err)
	})
}
