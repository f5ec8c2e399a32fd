package app

import (
	"context"
	"fmt"
	"log"

	"stencil/internal/assemble"
	"stencil/internal/catalog"
	"stencil/internal/gateway/config"
	"stencil/internal/gateway/handler"
	"stencil/internal/gateway/repository/artifact"
	"stencil/internal/gateway/repository/jobstore"
	"stencil/internal/gateway/server"
	"stencil/internal/gateway/service/generate"
	"stencil/internal/llm"
	"stencil/internal/ratelimit"
	"stencil/internal/safety"
)

type App struct {
	server *server.Server
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load template catalog: %w", err)
	}

	// Dependencies
	jobs := jobstore.NewFromEnv()
	artifacts := newArtifactStore(cfg.Artifact)
	limiter, err := ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate limiter: %w", err)
	}
	drafter := newDrafter(cfg.Gemini)

	assembler := assemble.New(cat, assemble.Options{})
	gate := safety.New(safety.Limits{}, nil)
	generator := generate.New(assembler, gate, jobs, artifacts, generate.NewHub())

	svc := handler.NewService(generator, jobs, artifacts, limiter, drafter)

	// Routing & Server
	mux := server.NewMux(svc)
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
	}, nil
}

func newArtifactStore(cfg config.ArtifactConfig) artifact.Store {
	if !cfg.Enabled {
		return artifact.NewMemoryStore()
	}
	s3, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		log.Printf("artifact store: s3 unavailable, using memory: %v", err)
		return artifact.NewMemoryStore()
	}
	return s3
}

func newDrafter(cfg config.GeminiConfig) llm.TemplateDrafter {
	if !cfg.Enabled {
		return llm.Disabled{}
	}
	client, err := llm.NewGeminiClient(context.Background(), cfg.Model)
	if err != nil {
		log.Printf("template drafter: gemini unavailable: %v", err)
		return llm.Disabled{}
	}
	return client
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
