package port

import (
	"context"

	"billx/internal/domain"
)

// PageSource turns a document URL into an ordered sequence of OCR'd pages.
type PageSource interface {
	Process(ctx context.Context, url string) ([]domain.Page, error)
}
