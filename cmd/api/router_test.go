package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/coverage-reports/pkg/config"
	"github.com/FACorreiaa/coverage-reports/pkg/storage"
)

const sampleCSV = `NumeroRegistro,CompaniaSeguro,Anio,Mes,CantidadServicios,Region,ValorPorServicio,PorcentajeCobertura
1,Sancor,2024,1,10,Cuyo,100,50
2,La Segunda,2025,2,4,NOA,250,80
`

func newTestServer(t *testing.T) (*httptest.Server, *Dependencies) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services.csv"), []byte(sampleCSV), 0o644))

	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{
			BaseURL:        ts.URL,
			MaxUploadBytes: 1 << 20,
		},
		Samples: config.SamplesConfig{CSVName: "services.csv", JSONName: "services.json"},
		Storage: storage.Config{Type: storage.StorageTypeLocal, LocalPath: dir},
		Import:  config.ImportConfig{MaxBytes: 1 << 20, DefaultSource: "none"},
		Observability: config.ObservabilityConfig{
			MetricsEnabled: true,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := InitDependencies(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { deps.Cleanup(context.Background()) })

	handler = NewRouter(deps)
	return ts, deps
}

func TestRouter_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_DataFiles(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/data/services.csv")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sampleCSV, string(body))

	resp, err = http.Get(ts.URL + "/data/services.json")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_SelectPresetAndReport(t *testing.T) {
	ts, deps := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/sources/select", "application/json", strings.NewReader(`{"selection":"csv"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	deps.ImportService.Wait()

	resp, err = http.Get(ts.URL + "/api/v1/reports/summary")
	require.NoError(t, err)
	defer resp.Body.Close()

	var summary struct {
		State   string `json:"state"`
		Period  string `json:"period"`
		Summary struct {
			InsurerCount int `json:"insurer_count"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, "success", summary.State)
	assert.Equal(t, "2024 - 2025", summary.Period)
	assert.Equal(t, 2, summary.Summary.InsurerCount)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(metrics), `import_loads_total{outcome="success"} 1`)
}

func TestRouter_MissingPresetFails(t *testing.T) {
	ts, deps := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/sources/select", "application/json", strings.NewReader(`{"selection":"json"}`))
	require.NoError(t, err)
	resp.Body.Close()

	deps.ImportService.Wait()
	snap := deps.ImportService.Snapshot()
	assert.Equal(t, "error", string(snap.State))
	assert.Equal(t, "could not download the data file", snap.ErrorMessage)
}
