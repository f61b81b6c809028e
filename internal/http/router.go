package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const apiPrefix = "/padron/api/v1"

// Router 基于标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// method 限制请求方法
func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != m {
			w.Header().Set("Allow", m)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterPadronRoutes 医生列表与导出
func (r *Router) RegisterPadronRoutes(h *PadronHandler) {
	r.Handle(apiPrefix+"/medicos", method(http.MethodGet, h.ListMedicos))
	r.Handle(apiPrefix+"/medicos/export", method(http.MethodPost, h.Export))
	r.Handle(apiPrefix+"/medicos/export-query", method(http.MethodPost, h.ExportQuery))
	r.Handle(apiPrefix+"/export/columns", method(http.MethodGet, h.Columns))
}

// RegisterCatalogRoutes 专科目录
func (r *Router) RegisterCatalogRoutes(h *CatalogHandler) {
	r.Handle(apiPrefix+"/especialidades", method(http.MethodGet, h.List))
	r.Handle(apiPrefix+"/especialidades/reload", method(http.MethodPost, h.Reload))
}

func (r *Router) RegisterMetricsRoute() {
	r.HandleHandler("/metrics", promhttp.Handler())
}
