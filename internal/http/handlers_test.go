package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cmc-padron/internal/filter"
	"cmc-padron/internal/record"
	"cmc-padron/internal/report"
	"cmc-padron/internal/service"
	"cmc-padron/internal/specialty"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecords struct {
	records []record.Record
	err     error
}

func (f *fakeRecords) FetchRecords(ctx context.Context, sel filter.Selection) ([]record.Record, error) {
	return f.records, f.err
}

type fakeSpecialties struct {
	entries []specialty.Entry
	err     error
}

func (f *fakeSpecialties) FetchSpecialties(ctx context.Context) ([]specialty.Entry, error) {
	return f.entries, f.err
}

type fakeNotifier struct {
	announced []string
	err       error
	connected bool
}

func (f *fakeNotifier) Announce(reason string) error {
	if f.err != nil {
		return f.err
	}
	f.announced = append(f.announced, reason)
	return nil
}

func (f *fakeNotifier) Connected() bool { return f.connected }

func setupRouter(t *testing.T, records *fakeRecords, source specialty.Source) (*Router, *specialty.Catalog) {
	return setupRouterWithNotifier(t, records, source, nil)
}

func setupRouterWithNotifier(t *testing.T, records *fakeRecords, source specialty.Source, notifier CatalogNotifier) (*Router, *specialty.Catalog) {
	t.Helper()
	logger := zap.NewNop()
	catalog := specialty.NewCatalog()
	resolver := specialty.NewResolver(catalog, record.DefaultAliases)
	now := func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	evaluator := filter.NewEvaluator(record.DefaultAliases, resolver, filter.WithClock(now))
	builder := report.NewBuilder(report.NewCellFormatter(record.DefaultAliases, resolver, time.UTC), logger)
	svc := service.NewExportService(records, evaluator, builder, catalog, nil, service.ExportOptions{}, logger)
	loader := specialty.NewLoader(catalog, source, nil, specialty.LoaderOptions{}, logger)

	router := NewRouter(logger)
	router.RegisterPadronRoutes(NewPadronHandler(svc, logger))
	router.RegisterCatalogRoutes(NewCatalogHandler(loader, notifier, logger))
	router.RegisterMetricsRoute()
	return router, catalog
}

func doRequest(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func samplePadron() []record.Record {
	return []record.Record{
		{"nro_socio": 1, "nombre": "Gómez, Ana", "sexo": "F", "nro_especialidad": "3"},
		{"nro_socio": 2, "nombre": "Pérez, Juan", "sexo": "M"},
		{"nro_socio": 3, "nombre": "Ruiz, Carla", "sexo": "F"},
	}
}

func TestListMedicos_FiltersAndPaginates(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{records: samplePadron()}, nil)

	w := doRequest(router, http.MethodGet, "/padron/api/v1/medicos?sexo=F&page=1&size=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"code":2000`)
	assert.Contains(t, body, `"total":2`)
	assert.Contains(t, body, "Gómez, Ana")
	assert.NotContains(t, body, "Ruiz, Carla")
}

func TestListMedicos_BadQuery(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, nil)
	w := doRequest(router, http.MethodGet, "/padron/api/v1/medicos?dias=muchos", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":-1`)
}

func TestListMedicos_SourceError(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{err: errors.New("db down")}, nil)
	w := doRequest(router, http.MethodGet, "/padron/api/v1/medicos", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, nil)
	w := doRequest(router, http.MethodGet, "/padron/api/v1/medicos/export", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
}

func TestExport_CSVFile(t *testing.T) {
	router, catalog := setupRouter(t, &fakeRecords{records: samplePadron()}, nil)
	catalog.Replace([]specialty.Entry{{ID: "3", Name: "Pediatría"}})

	body := `{"format":"csv","selection":{"columnas":["nombre","especialidades"],"otros":{"especialidad":"pedia"}}}`
	w := doRequest(router, http.MethodPost, "/padron/api/v1/medicos/export", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, report.ContentTypeCSV, w.Header().Get("Content-Type"))
	disposition := w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename=padron_"), disposition)
	assert.True(t, strings.HasSuffix(disposition, ".csv"), disposition)
	assert.NotEmpty(t, w.Header().Get("X-Export-Id"))
	assert.Equal(t, "1", w.Header().Get("X-Export-Rows"))
	assert.Equal(t, "Apellido y Nombre,Especialidades\n\"Gómez, Ana\",Pediatría", w.Body.String())
}

func TestExport_NoColumns(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{records: samplePadron()}, nil)
	w := doRequest(router, http.MethodPost, "/padron/api/v1/medicos/export", `{"format":"xlsx","selection":{"columnas":[]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "seleccione al menos una columna")
}

func TestExport_InvalidJSON(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, nil)
	w := doRequest(router, http.MethodPost, "/padron/api/v1/medicos/export", `{"format":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport_XLSX(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{records: samplePadron()}, nil)
	w := doRequest(router, http.MethodPost, "/padron/api/v1/medicos/export", `{"format":"xlsx","title":"Padrón","selection":{"columnas":["nro_socio","nombre"]}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentTypeXLSX, w.Header().Get("Content-Type"))
	// xlsx 是 zip 容器
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestExportQuery(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, nil)
	w := doRequest(router, http.MethodPost, "/padron/api/v1/medicos/export-query", `{"vencimientos":{"coberturaVencida":true,"desde":"01/02/2025"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cobertura_vencida=1")
	assert.Contains(t, w.Body.String(), "venc_desde=2025-02-01")
}

func TestColumns(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, nil)
	w := doRequest(router, http.MethodGet, "/padron/api/v1/export/columns", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"especialidades"`)
	assert.Contains(t, w.Body.String(), `"label":"Apellido y Nombre"`)
}

func TestCatalogListAndReload(t *testing.T) {
	source := &fakeSpecialties{entries: []specialty.Entry{{ID: "3", Name: "Pediatría"}}}
	router, _ := setupRouter(t, &fakeRecords{}, source)

	w := doRequest(router, http.MethodGet, "/padron/api/v1/especialidades", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
	assert.Contains(t, w.Body.String(), `"items":[]`)

	w = doRequest(router, http.MethodPost, "/padron/api/v1/especialidades/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"announced":false`)

	w = doRequest(router, http.MethodGet, "/padron/api/v1/especialidades", "")
	assert.Contains(t, w.Body.String(), `"ready":true`)
	assert.Contains(t, w.Body.String(), "Pediatría")
}

func TestCatalogReload_SourceFailure(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, &fakeSpecialties{err: errors.New("unreachable")})
	w := doRequest(router, http.MethodPost, "/padron/api/v1/especialidades/reload", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	router, _ := setupRouter(t, &fakeRecords{}, nil)
	w := doRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogReload_AnnouncesToPeers(t *testing.T) {
	source := &fakeSpecialties{entries: []specialty.Entry{{ID: "3", Name: "Pediatría"}}}
	notifier := &fakeNotifier{connected: true}
	router, _ := setupRouterWithNotifier(t, &fakeRecords{}, source, notifier)

	w := doRequest(router, http.MethodGet, "/padron/api/v1/especialidades", "")
	assert.Contains(t, w.Body.String(), `"mqtt_connected":true`)

	w = doRequest(router, http.MethodPost, "/padron/api/v1/especialidades/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"announced":true`)
	assert.Equal(t, []string{"http reload"}, notifier.announced)

	// 通知失败不影响重新加载结果
	notifier.err = errors.New("broker down")
	w = doRequest(router, http.MethodPost, "/padron/api/v1/especialidades/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"announced":false`)
}
