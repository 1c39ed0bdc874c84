package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/podushkina/taskflow/internal/cache"
	"go.uber.org/zap"
)

type CacheHandler struct {
	cache  cache.Cache
	logger *zap.Logger
}

func NewCacheHandler(c cache.Cache, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{cache: c, logger: logger}
}

type CacheStatsResponse struct {
	TotalCachedEntries int      `json:"totalCachedEntries"`
	CachedKeys         []string `json:"cachedKeys"`
	Message            string   `json:"message"`
}

type CacheClearResponse struct {
	Message        string `json:"message"`
	EntriesCleared int    `json:"entriesCleared"`
}

func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	keys, err := h.cache.Keys(r.Context(), cache.Prefix())
	if err != nil {
		h.logger.Warn("cache stats unavailable", zap.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "cache unavailable", nil)
		return
	}
	sort.Strings(keys)

	msg := "No cached entries found"
	if len(keys) > 0 {
		msg = fmt.Sprintf("Cache is active with %d entries", len(keys))
	}

	respondJSON(w, http.StatusOK, CacheStatsResponse{
		TotalCachedEntries: len(keys),
		CachedKeys:         keys,
		Message:            msg,
	})
}

func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.cache.DeleteByPrefix(r.Context(), cache.Prefix())
	if err != nil {
		h.logger.Warn("cache clear failed", zap.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "cache unavailable", nil)
		return
	}
	h.logger.Info("cache cleared", zap.Int("entries", n))

	msg := "No cache entries to clear"
	if n > 0 {
		msg = "Cache cleared successfully"
	}
	respondJSON(w, http.StatusOK, CacheClearResponse{Message: msg, EntriesCleared: n})
}
