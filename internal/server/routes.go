package server

import (
	"net/http"

	"xmdedit/internal/handler/rpc"
	"xmdedit/internal/middleware"
)

func NewMux(
	editorHandler *rpc.EditorHandler,
	editHandler *rpc.EditHandler,
	assetHandler *rpc.AssetHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/docs/{id}/decorations", editorHandler.HandleDecorations)
	mux.HandleFunc("POST /v1/docs/{id}/replace", editorHandler.HandleReplace)
	mux.HandleFunc("POST /v1/docs/{id}/toggle", editorHandler.HandleToggle)
	mux.HandleFunc("GET /v1/docs/{id}/ws", editHandler.HandleEditWS)
	mux.HandleFunc("GET /v1/docs/{id}/assets/{key}", assetHandler.HandleGet)
	mux.HandleFunc("GET /v1/assets/{key}", assetHandler.HandleGet)

	return middleware.CORS(mux)
}
