package httpapi

import (
	"net/http"

	"cmc-padron/internal/specialty"

	"go.uber.org/zap"
)

// CatalogNotifier 通知其他实例重新加载（mqtt.CatalogBroker）
type CatalogNotifier interface {
	Announce(reason string) error
	Connected() bool
}

// CatalogHandler 专科目录查询与重新加载
type CatalogHandler struct {
	loader   *specialty.Loader
	notifier CatalogNotifier // 可以为 nil
	logger   *zap.Logger
}

func NewCatalogHandler(loader *specialty.Loader, notifier CatalogNotifier, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{loader: loader, notifier: notifier, logger: logger}
}

type catalogResponse struct {
	Ready         bool              `json:"ready"`
	Count         int               `json:"count"`
	MQTTConnected bool              `json:"mqtt_connected"`
	Items         []specialty.Entry `json:"items"`
}

type reloadResponse struct {
	Count     int  `json:"count"`
	Announced bool `json:"announced"`
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	c := h.loader.Catalog()
	items := c.Entries()
	if items == nil {
		items = []specialty.Entry{}
	}
	writeJSON(w, http.StatusOK, Ok(catalogResponse{
		Ready:         c.Ready(),
		Count:         len(items),
		MQTTConnected: h.notifier != nil && h.notifier.Connected(),
		Items:         items,
	}))
}

// Reload 同步重新加载；失败时保留旧目录，成功后通知其他实例
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.loader.Refresh(r.Context())
	if err != nil {
		h.logger.Warn("Catalog reload failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Fail(err.Error()))
		return
	}
	announced := false
	if h.notifier != nil {
		if err := h.notifier.Announce("http reload"); err != nil {
			h.logger.Warn("Failed to announce catalog reload", zap.Error(err))
		} else {
			announced = true
		}
	}
	writeJSON(w, http.StatusOK, Ok(reloadResponse{Count: n, Announced: announced}))
}
