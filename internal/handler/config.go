package handler

import (
	"net/http"

	"github.com/wrapped/internal/config"
)

// ConfigHandler отдаёт публичные параметры конфигурации.
type ConfigHandler struct {
	cfg *config.Config
}

// NewConfigHandler создаёт обработчик конфигурации.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GetWrappedConfig возвращает год отчёта и время жизни кеша (без авторизации).
func (h *ConfigHandler) GetWrappedConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"year":              h.cfg.Year,
		"cache_ttl_minutes": h.cfg.Cache.TTLMinutes,
	})
}
