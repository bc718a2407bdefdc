package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"billx/internal/config"
	"billx/internal/document"
	"billx/internal/handler"
	"billx/internal/provider"
	"billx/internal/router"
	"billx/internal/service"
	s3storage "billx/internal/storage/s3"

	// Register provider backends.
	_ "billx/internal/provider/anthropic"
	_ "billx/internal/provider/groq"
	_ "billx/internal/provider/openai"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	objects, err := s3storage.NewFetcher(&cfg.S3)
	if err != nil {
		// Only s3:// document URLs need this; http(s) documents still work.
		log.Printf("s3 fetcher unavailable: %v", err)
		objects = nil
	}

	acquirer := document.NewAcquirer(document.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Language:      cfg.OCR.Language,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		FetchTimeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxFetchBytes: cfg.Fetch.MaxSizeMB << 20,
	}, objects)

	// No page can ever be processed without the OCR engine, so its absence
	// is fatal at startup rather than a per-request failure.
	checkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := acquirer.CheckEngine(checkCtx); err != nil {
		return fmt.Errorf("ocr engine check failed: %w", err)
	}

	completer, err := provider.NewChain(&cfg.Extractor)
	if err != nil {
		return fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	extractSvc := service.NewExtractionService(acquirer, completer, cfg.Extractor.PageConcurrency)

	extractH := handler.NewExtractHandler(extractSvc)
	healthH := handler.NewHealthHandler(acquirer.CheckEngine)

	r := router.Setup(extractH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
