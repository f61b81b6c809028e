package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"cmc-padron/internal/filter"
	"cmc-padron/internal/report"
	"cmc-padron/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// PadronHandler 医生列表、导出
type PadronHandler struct {
	svc    *service.ExportService
	logger *zap.Logger
}

func NewPadronHandler(svc *service.ExportService, logger *zap.Logger) *PadronHandler {
	return &PadronHandler{svc: svc, logger: logger}
}

// ListMedicos GET /medicos?sexo=F&dias=30&page=1&size=50
func (h *PadronHandler) ListMedicos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := filter.Decode(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), service.DefaultPageSize)

	res, err := h.svc.List(r.Context(), sel, page, size)
	if err != nil {
		h.logger.Error("List medicos failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list records"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// Export POST /medicos/export，成功时直接返回文件
func (h *PadronHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req service.ExportRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}

	res, err := h.svc.Export(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeJSON(w, http.StatusBadRequest, Fail(exportErrorMessage(err)))
			return
		}
		h.logger.Error("Export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Export-Id", res.ID)
	w.Header().Set("X-Export-Rows", strconv.Itoa(res.Rows))
	for _, warning := range res.Warnings {
		w.Header().Add("X-Export-Warning", url.QueryEscape(warning))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// ExportQuery POST /medicos/export-query，body 为 Selection
func (h *PadronHandler) ExportQuery(w http.ResponseWriter, r *http.Request) {
	var sel filter.Selection
	if err := readBodyJSON(r, maxBodyBytes, &sel); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	qs, err := h.svc.QueryString(sel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"query": qs}))
}

// Columns GET /export/columns
func (h *PadronHandler) Columns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(report.AvailableColumns()))
}

func exportErrorMessage(err error) string {
	switch {
	case errors.Is(err, report.ErrNoColumns):
		return "seleccione al menos una columna"
	case errors.Is(err, report.ErrUnknownFormat):
		return "formato de exportación no soportado"
	case errors.Is(err, report.ErrUnknownColumn):
		return err.Error()
	}
	return "solicitud inválida"
}
