package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tethys-harvester/internal/model"
	"tethys-harvester/internal/tethys"
	"tethys-harvester/pkg/logging"
)

func TestCreateHarvestRejectsBadJSON(t *testing.T) {
	h := New(logging.NewNop())

	rec := httptest.NewRecorder()
	h.CreateHarvest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/harvests", strings.NewReader("{nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHarvestRequiresFolderPath(t *testing.T) {
	h := New(logging.NewNop())

	rec := httptest.NewRecorder()
	h.CreateHarvest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/harvests", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHarvestReturnsRunID(t *testing.T) {
	h := New(logging.NewNop())
	// Empty listing: the async run stops immediately without touching disk.
	h.NewSource = func(model.HarvestJobSpec) tethys.Source { return &tethys.StubSource{} }

	body := `{"folderPath":` + strconv.Quote(t.TempDir()) + `}`
	rec := httptest.NewRecorder()
	h.CreateHarvest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/harvests", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["runID"])
	assert.Equal(t, "pending", resp["status"])
}

func TestGetHarvestUnknownRunIs404(t *testing.T) {
	h := New(logging.NewNop())

	rec := httptest.NewRecorder()
	h.GetHarvest(rec, httptest.NewRequest(http.MethodGet, "/api/v1/harvests/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCatalog(t *testing.T) {
	h := New(logging.NewNop())

	rec := httptest.NewRecorder()
	h.GetCatalog(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var files []tethys.RemoteFile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&files))
	assert.NotEmpty(t, files)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
