package rpc

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"xmdedit/internal/assets"
)

// AssetHandler serves stored image bytes by asset key. Documents reference
// assets through asset-key:// tokens; the preview layer fetches the bytes
// here.
type AssetHandler struct {
	resolver assets.Resolver
}

func NewAssetHandler(resolver assets.Resolver) *AssetHandler {
	return &AssetHandler{resolver: resolver}
}

// HandleGet serves GET /v1/assets/{key}.
func (h *AssetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		http.Error(w, "asset key is required", http.StatusBadRequest)
		return
	}
	if h.resolver == nil {
		http.Error(w, "asset storage is not configured", http.StatusServiceUnavailable)
		return
	}
	b, err := h.resolver.Resolve(r.Context(), key)
	if errors.Is(err, assets.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("resolve asset %s failed: %v", key, err)
		http.Error(w, "asset fetch failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(b))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(b); err != nil {
		log.Printf("write asset %s failed: %v", key, err)
	}
}
