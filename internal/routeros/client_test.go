package routeros

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientFor(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return NewClient(Credentials{
		Host:     u.Hostname(),
		Username: "admin",
		Password: "secret",
		Port:     port,
	})
}

func TestRequestSendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		assert.Equal(t, "/rest/system/resource", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"board-name":"hEX","version":"7.10"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	res, err := c.Request(context.Background(), http.MethodGet, "/system/resource", nil)
	require.NoError(t, err)
	assert.Equal(t, "admin", gotUser)
	assert.Equal(t, "secret", gotPass)

	body, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hEX", body["board-name"])
}

func TestDeleteAcceptsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	res, err := c.Request(context.Background(), http.MethodDelete, "/ppp/secret/*1", nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestDeleteAcceptsNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("removed"))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	res, err := c.Request(context.Background(), http.MethodDelete, "/ppp/secret/*1", nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestHTTPErrorCarriesRemoteMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":400,"message":"failure: secret with the same name already exists"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	_, err := c.Request(context.Background(), http.MethodPut, "/ppp/secret", map[string]string{"name": "x"})
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Contains(t, httpErr.RemoteMessage, "already exists")
}

func TestHTTPErrorDetailFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"no such command"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	_, err := c.Request(context.Background(), http.MethodPost, "/execute", map[string]string{"script": "x"})
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, "no such command", httpErr.RemoteMessage)
}

func TestNonJSONGetIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an api</html>"))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	_, err := c.Request(context.Background(), http.MethodGet, "/ppp/secret", nil)
	require.Error(t, err)
	assert.IsType(t, &ProtocolError{}, err)
}

func TestUnreachableHostIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := clientFor(t, srv)
	_, err := c.Request(context.Background(), http.MethodGet, "/system/resource", nil)
	require.Error(t, err)

	connErr, ok := err.(*ConnectionError)
	require.True(t, ok)
	assert.Contains(t, connErr.Error(), "check host and credentials")
}

func TestListAcceptsSingleObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{".id":"*1","name":"alice"}`))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	records, err := c.list(context.Background(), "/ppp/secret")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0]["name"])
}

func TestDefaultPorts(t *testing.T) {
	plain := NewClient(Credentials{Host: "10.0.0.1"})
	assert.Contains(t, plain.baseURL, ":80/rest")

	secure := NewClient(Credentials{Host: "10.0.0.1", UseTLS: true})
	assert.Contains(t, secure.baseURL, ":443/rest")
}
