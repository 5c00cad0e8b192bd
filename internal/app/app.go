// Package app wires the editor server together: config, document store,
// asset storage, model client, and the HTTP/websocket surface.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"xmdedit/internal/assets"
	"xmdedit/internal/compedit"
	"xmdedit/internal/config"
	"xmdedit/internal/docstore"
	"xmdedit/internal/editor/session"
	"xmdedit/internal/handler/rpc"
	"xmdedit/internal/llm"
	"xmdedit/internal/server"
)

type App struct {
	server *server.Server
	docs   *docstore.Store
	client llm.Client
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	docs := docstore.NewFromEnv(cfg.Doc.DSN)
	sessions := session.NewManager(docs)

	resolver, err := newAssetResolver(cfg)
	if err != nil {
		return nil, err
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model client: %w", err)
	}
	editSvc := compedit.NewService(client)

	editorHandler := rpc.NewEditorHandler(sessions)
	editHandler := rpc.NewEditHandler(sessions, editSvc)
	assetHandler := rpc.NewAssetHandler(resolver)

	// Routing & Server
	mux := server.NewMux(editorHandler, editHandler, assetHandler)
	srv := server.New(cfg.Port, mux)

	return &App{server: srv, docs: docs, client: client}, nil
}

func newAssetResolver(cfg *config.Config) (assets.Resolver, error) {
	if !cfg.Asset.Enabled {
		log.Printf("asset store: disabled")
		return nil, nil
	}
	r, err := assets.NewS3Resolver(assets.S3Config{
		Endpoint:  cfg.Asset.Endpoint,
		Region:    cfg.Asset.Region,
		AccessKey: cfg.Asset.AccessKey,
		SecretKey: cfg.Asset.SecretKey,
		Bucket:    cfg.Asset.Bucket,
		UseSSL:    cfg.Asset.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset store: %w", err)
	}
	log.Printf("asset store: s3 bucket=%s endpoint=%s", cfg.Asset.Bucket, cfg.Asset.Endpoint)
	return r, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.LLM.APIKey == "" {
		// Local development without a key: edit requests fail fast
		// instead of hanging on a misconfigured backend.
		log.Printf("llm: GEMINI_API_KEY is not set; component edits are disabled")
		return llm.NewFakeClient(), nil
	}
	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		Model: cfg.LLM.Model,
		RPS:   cfg.LLM.RPS,
		Burst: cfg.LLM.Burst,
	})
	if err != nil {
		return nil, err
	}
	return llm.Chain(client, llm.Retry(3, 300*time.Millisecond)), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.client != nil {
		_ = a.client.Close()
	}
	if cerr := a.docs.Close(); err == nil {
		err = cerr
	}
	return err
}
