package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrinnetwork/MikReMan/internal/orchestrator"
	"github.com/safrinnetwork/MikReMan/internal/routeros"
)

// offlineServer builds the API over a device that refuses connections, which
// is enough to exercise request validation and error mapping.
func offlineServer(t *testing.T) *Server {
	t.Helper()
	client := routeros.NewClient(routeros.Credentials{
		Host: "127.0.0.1",
		Port: 1,
	})
	return NewServer(orchestrator.New(client), nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreateUserRejectsInvalidRequest(t *testing.T) {
	s := offlineServer(t)

	rec := do(t, s, http.MethodPost, "/api/users", `{"username":"","password":"pw","service":"l2tp"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
}

func TestCreateUserRejectsUnknownService(t *testing.T) {
	s := offlineServer(t)

	rec := do(t, s, http.MethodPost, "/api/users", `{"username":"x","password":"pw","service":"wireguard"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkDeleteRequiresIDs(t *testing.T) {
	s := offlineServer(t)

	rec := do(t, s, http.MethodPost, "/api/users/bulk-delete", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnreachableDeviceMapsToBadGateway(t *testing.T) {
	s := offlineServer(t)

	rec := do(t, s, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "DEVICE_UNREACHABLE")
}

func TestSendBackupWithoutSink(t *testing.T) {
	s := offlineServer(t)

	rec := do(t, s, http.MethodPost, "/api/backup/send", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_SINK")
}

func TestEnvelopeCodeIsAlwaysString(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, ok(c, map[string]string{"x": "y"}))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["code"])

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fail(c, http.StatusBadRequest, "INVALID_REQUEST", "bad", nil))

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestEnsureProfileRejectsAny(t *testing.T) {
	s := offlineServer(t)

	rec := do(t, s, http.MethodPost, "/api/profiles/any", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
