package service

import (
	"context"
	"log"
	"strings"
	"sync"

	"billx/internal/domain"
	"billx/internal/extraction"
	"billx/internal/port"
	"billx/internal/provider"
	"billx/internal/usage"
)

// BillExtractor drives one document end to end: acquisition, per-page
// classification and extraction, aggregation, and token accounting.
type BillExtractor interface {
	Extract(ctx context.Context, url string) (*domain.ExtractionResult, domain.TokenUsage, error)
}

type extractionService struct {
	pages       port.PageSource
	llm         port.Completer
	concurrency int
}

// NewExtractionService creates a BillExtractor. concurrency bounds how many
// pages are processed at once; 1 means strictly sequential.
func NewExtractionService(pages port.PageSource, llm port.Completer, concurrency int) BillExtractor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &extractionService{
		pages:       pages,
		llm:         llm,
		concurrency: concurrency,
	}
}

func (s *extractionService) Extract(ctx context.Context, url string) (*domain.ExtractionResult, domain.TokenUsage, error) {
	ledger := usage.NewLedger()
	engine := extraction.NewEngine(provider.NewMetered(s.llm, ledger))

	pages, err := s.pages.Process(ctx, url)
	if err != nil {
		return nil, domain.TokenUsage{}, err
	}
	log.Printf("service: processed %d pages from document", len(pages))

	// Each non-empty page gets a slot at its source index so output order
	// matches source order no matter which worker finishes first.
	slots := make([]*domain.PageResult, len(pages))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			log.Printf("service: page %d has no text, skipping", page.Number)
			continue
		}

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(i int, page domain.Page) {
			defer wg.Done()
			defer func() { <-sem }() // release

			pr := engine.ProcessPage(ctx, page.Number, page.Text)
			slots[i] = &pr
		}(i, page)
	}
	wg.Wait()

	result := &domain.ExtractionResult{
		PagewiseLineItems: make([]domain.PageResult, 0, len(pages)),
	}
	for _, pr := range slots {
		if pr == nil {
			continue
		}
		result.PagewiseLineItems = append(result.PagewiseLineItems, *pr)
		result.TotalItemCount += len(pr.BillItems)
	}

	// The ledger is read only after every worker has joined.
	tokenUsage := ledger.Snapshot()

	log.Printf("service: extracted %d items across %d pages (tokens in=%d out=%d)",
		result.TotalItemCount, len(result.PagewiseLineItems), tokenUsage.InputTokens, tokenUsage.OutputTokens)
	return result, tokenUsage, nil
}
