package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/container"
	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/routes"
	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/service"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/cache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/chaincache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/keys"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/ledger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := logger.New("error", "text")

	store, err := kvstore.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	chains := chaincache.New(store, cache.NewMemoryCache(log), time.Hour, log)
	keyManager := keys.NewManager(store, log)
	queues := service.NewQueueService(ledger.NewMemoryLedger(log), chains, keyManager, 3, log)

	e := echo.New()
	routes.RegisterQueueRoutes(e, &container.Container{
		Keys:   keyManager,
		Chains: chains,
		Queues: queues,
	})
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateQueueEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["versionId"])

	// Recreating the same queue is a 400
	rec = doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQueueEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/transplant/MG/rim", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")

	rec = doRequest(e, http.MethodGet, "/transplant/MG/rim", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "MG", body["jurisdiction"])
	assert.Equal(t, "rim", body["resource"])
	assert.NotEmpty(t, body["versionId"])
}

func TestAppendEntryEndpoint(t *testing.T) {
	e := newTestServer(t)
	doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")

	rec := doRequest(e, http.MethodPost, "/transplant/MG/rim",
		`{"identifier":"11122233344","name":"Ana Silva","actingUser":"dr-house"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, float64(2), metadata["version"])
	entries := metadata["entries"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "***.222.333-**", entry["maskedId"])
	assert.Equal(t, "A. S.", entry["maskedName"])
}

func TestAppendEntryEndpoint_MissingFields(t *testing.T) {
	e := newTestServer(t)
	doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")

	rec := doRequest(e, http.MethodPost, "/transplant/MG/rim", `{"identifier":"11122233344"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallNextEndpoint(t *testing.T) {
	e := newTestServer(t)
	doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")
	doRequest(e, http.MethodPost, "/transplant/MG/rim",
		`{"identifier":"11122233344","name":"Ana Silva","actingUser":"op"}`)

	rec := doRequest(e, http.MethodPost, "/transplant/MG/rim/next", `{"actingUser":"op"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	// Empty queue yields an explicit empty result with a 200
	rec = doRequest(e, http.MethodPost, "/transplant/MG/rim/next", `{"actingUser":"op"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["empty"])
}

func TestCallByPositionEndpoint(t *testing.T) {
	e := newTestServer(t)
	doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")
	doRequest(e, http.MethodPost, "/transplant/MG/rim",
		`{"identifier":"11122233344","name":"Ana Silva","actingUser":"op"}`)
	doRequest(e, http.MethodPost, "/transplant/MG/rim",
		`{"identifier":"55566677788","name":"Bruno Costa","actingUser":"op"}`)

	rec := doRequest(e, http.MethodPost, "/transplant/MG/rim/next/position/2", `{"actingUser":"op"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	called := body["called"].(map[string]interface{})
	assert.Equal(t, "B. C.", called["maskedName"])
	snapshot := body["newSnapshot"].([]interface{})
	assert.Len(t, snapshot, 1)

	rec = doRequest(e, http.MethodPost, "/transplant/MG/rim/next/position/9", `{"actingUser":"op"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	e := newTestServer(t)
	doRequest(e, http.MethodPost, "/transplant/MG/rim/create", "")
	doRequest(e, http.MethodPost, "/transplant/MG/rim",
		`{"identifier":"11122233344","name":"Ana Silva","actingUser":"op"}`)
	doRequest(e, http.MethodPost, "/transplant/MG/rim/next", `{"actingUser":"op"}`)

	rec := doRequest(e, http.MethodGet, "/transplant/MG/rim/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["totalVersions"])
	assert.Len(t, body["history"].([]interface{}), 3)

	rec = doRequest(e, http.MethodGet, "/transplant/MG/rim/history/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(2), body["version"])

	// Label form resolves to the same version
	rec = doRequest(e, http.MethodGet, "/transplant/MG/rim/history/v2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodGet, "/transplant/MG/rim/history/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
