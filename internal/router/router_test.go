package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/showtime-inventory-bench/internal/config"
	"github.com/iliyamo/showtime-inventory-bench/internal/handler"
	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
	"github.com/iliyamo/showtime-inventory-bench/internal/logging"
	"github.com/iliyamo/showtime-inventory-bench/internal/metrics"
	"github.com/iliyamo/showtime-inventory-bench/internal/model"
	"github.com/iliyamo/showtime-inventory-bench/internal/repository"
	"github.com/iliyamo/showtime-inventory-bench/internal/service"
	"github.com/iliyamo/showtime-inventory-bench/internal/utils"
)

const smallParams = `{"languagesCount":2,"formatsPerLanguage":2,"dateStart":"2025-01-01","dateEnd":"2025-01-02","cinemasCount":3,"showsPerCinemaPerDay":2,"includeSeatClasses":true,"seed":7}`

type stubRuns struct{ runs []model.Run }

func (s stubRuns) Recent(_ context.Context, limit int) ([]model.Run, error) {
	if len(s.runs) > limit {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func newAPI(t *testing.T, cfg config.Config, runs handler.RunLister) *echo.Echo {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := service.NewInventoryService(service.Deps{
		Repo:    repository.NewDatasetRepo(),
		Metrics: metrics.New(reg),
		Log:     logging.Nop(),
	})
	if runs == nil {
		runs = repository.NewRunRepo(nil)
	}
	e := echo.New()
	RegisterRoutes(e, Deps{
		Datasets:  handler.NewDatasetHandler(svc),
		Bulk:      handler.NewBulkHandler(svc),
		Runs:      handler.NewRunsHandler(runs),
		Auth:      handler.NewAuthHandler(cfg),
		JWTSecret: cfg.JWTSecret,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return e
}

func do(e *echo.Echo, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	do(e, http.MethodPost, "/v1/datasets", `{"params":`+smallParams+`,"options":{"datasetId":"m"}}`)
	rec = do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inventory_datasets 1")
}

func TestDatasetLifecycle(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)

	rec := do(e, http.MethodPost, "/v1/datasets", `{"params":`+smallParams+`,"options":{"datasetId":"bench"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created service.GenerateResult
	decode(t, rec, &created)
	assert.Equal(t, "bench", created.DatasetID)
	assert.Equal(t, 2*2*2*3*2, created.Counts.Items)
	assert.Equal(t, 2, created.Counts.Days)

	rec = do(e, http.MethodGet, "/v1/datasets/bench/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var langs struct {
		Languages []string `json:"languages"`
	}
	decode(t, rec, &langs)
	assert.Equal(t, []string{"en", "hi"}, langs.Languages)

	rec = do(e, http.MethodGet, "/v1/datasets/bench/languages/en/formats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var formats struct {
		Formats []string `json:"formats"`
	}
	decode(t, rec, &formats)
	require.Len(t, formats.Formats, 2)
	fm := formats.Formats[0]

	rec = do(e, http.MethodGet, "/v1/datasets/bench/languages/en/formats/"+fm+"/dates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dates struct {
		Dates []string `json:"dates"`
	}
	decode(t, rec, &dates)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, dates.Dates)

	rec = do(e, http.MethodGet, "/v1/datasets/bench/inventory?language=en&format="+fm+"&date=2025-01-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var slice inventory.Slice
	decode(t, rec, &slice)
	assert.Equal(t, 3, slice.Meta.Theatres)
	assert.Equal(t, 6, slice.Meta.Shows)
	for _, th := range slice.Theatres {
		for _, sh := range th.Shows {
			assert.Len(t, sh.SeatClasses, 3)
		}
	}

	rec = do(e, http.MethodGet, "/v1/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []model.Summary `json:"data"`
		Total int             `json:"total"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "bench", list.Data[0].ID)

	rec = do(e, http.MethodDelete, "/v1/datasets/bench", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"datasetId":"bench","removed":true}`, rec.Body.String())

	rec = do(e, http.MethodDelete, "/v1/datasets/bench", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"datasetId":"bench","removed":false}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/v1/datasets/bench/languages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decode(t, rec, &apiErr)
	assert.Equal(t, "not_found", apiErr.Error)
	assert.Contains(t, apiErr.Message, "bench")
}

func TestDatasetErrors(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)

	cases := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"missing params", http.MethodPost, "/v1/datasets", `{}`, http.StatusBadRequest, "missing_parameter"},
		{"bad json", http.MethodPost, "/v1/datasets", `{"params":`, http.StatusBadRequest, "invalid_body"},
		{"bad date", http.MethodPost, "/v1/datasets", `{"params":{"dateStart":"2025-13-01"}}`, http.StatusBadRequest, "invalid_date"},
		{"reversed dates", http.MethodPost, "/v1/datasets", `{"params":{"dateStart":"2025-01-05","dateEnd":"2025-01-01"}}`, http.StatusBadRequest, "invalid_date"},
		{"negative count", http.MethodPost, "/v1/datasets", `{"params":{"cinemasCount":-1}}`, http.StatusBadRequest, "invalid_range"},
		{"unknown dataset", http.MethodGet, "/v1/datasets/nope/languages/en/formats", "", http.StatusNotFound, "not_found"},
		{"slice without date", http.MethodGet, "/v1/datasets/nope/inventory?language=en&format=2d", "", http.StatusBadRequest, "missing_parameter"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body map[string]string
			decode(t, rec, &body)
			assert.Equal(t, tc.code, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestDatasetCollision(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)
	body := `{"params":` + smallParams + `,"options":{"datasetId":"dup"}}`
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/v1/datasets", body).Code)

	rec := do(e, http.MethodPost, "/v1/datasets", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	overwrite := `{"params":` + smallParams + `,"options":{"datasetId":"dup","overwrite":true}}`
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/v1/datasets", overwrite).Code)

	rec = do(e, http.MethodDelete, "/v1/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":["dup"],"total":1}`, rec.Body.String())
}

func TestBulkGenerateAndReduce(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)

	rec := do(e, http.MethodPost, "/v1/inventory/generate", smallParams)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var flat struct {
		Response inventory.Response `json:"response"`
		Timings  model.Timings      `json:"timings"`
	}
	decode(t, rec, &flat)
	assert.Len(t, flat.Response.Items, 48)
	assert.Equal(t, "INR", flat.Response.Currency)

	respJSON, err := json.Marshal(flat.Response)
	require.NoError(t, err)
	rec = do(e, http.MethodPost, "/v1/inventory/reduce", string(respJSON))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reduced struct {
		Tree  inventory.Tree `json:"tree"`
		Shows int            `json:"shows"`
	}
	decode(t, rec, &reduced)
	assert.Equal(t, 48, reduced.Shows)

	rec = do(e, http.MethodPost, "/v1/inventory/generate?shape=tree", smallParams)
	require.Equal(t, http.StatusOK, rec.Code)
	var nested struct {
		Tree inventory.Tree `json:"tree"`
		Days int            `json:"days"`
	}
	decode(t, rec, &nested)
	assert.Equal(t, 2, nested.Days)
	assert.Equal(t, reduced.Tree, nested.Tree)

	rec = do(e, http.MethodPost, "/v1/inventory/generate?shape=cube", smallParams)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// bulk generation never registers datasets
	assert.JSONEq(t, `{"data":[],"total":0}`, do(e, http.MethodGet, "/v1/datasets", "").Body.String())
}

func TestRuns(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)
	rec := do(e, http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	e = newAPI(t, config.Config{}, stubRuns{runs: []model.Run{{ID: 2, Mode: "bulk"}, {ID: 1, Mode: "indexed"}}})
	rec = do(e, http.MethodGet, "/v1/runs?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Data  []model.Run `json:"data"`
		Limit int         `json:"limit"`
	}
	decode(t, rec, &out)
	require.Len(t, out.Data, 1)
	assert.Equal(t, uint64(2), out.Data[0].ID)
	assert.Equal(t, 1, out.Limit)
}

func TestOperatorAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{JWTSecret: "secret", OperatorPasswordHash: string(hash), AccessTTLMin: 5}
	e := newAPI(t, cfg, nil)

	create := `{"params":` + smallParams + `,"options":{"datasetId":"op"}}`
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/datasets", create).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodDelete, "/v1/datasets", "").Code)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/token", `{"password":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/token", `{}`).Code)

	rec := do(e, http.MethodPost, "/v1/auth/token", `{"password":"letmein"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok struct {
		Access utils.AccessToken `json:"access"`
		Role   string            `json:"role"`
	}
	decode(t, rec, &tok)
	assert.Equal(t, utils.RoleOperator, tok.Role)

	bearer := "Bearer " + tok.Access.Token
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/v1/datasets", create, "Authorization", bearer).Code)

	// reads stay public
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/datasets/op/languages", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/v1/datasets/op", "", "Authorization", bearer).Code)
}

func TestAuthDisabled(t *testing.T) {
	e := newAPI(t, config.Config{}, nil)
	rec := do(e, http.MethodPost, "/v1/auth/token", `{"password":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
