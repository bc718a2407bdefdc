package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billx/internal/domain"
	"billx/internal/port"
)

type fakePageSource struct {
	pages []domain.Page
	err   error
	url   string
}

func (f *fakePageSource) Process(_ context.Context, url string) ([]domain.Page, error) {
	f.url = url
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// pageAwareCompleter answers classification calls with a fixed label and
// extraction calls with one item named after the page text, so results can
// be traced back to their source page.
type pageAwareCompleter struct{}

func (pageAwareCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (*port.Completion, error) {
	if strings.Contains(systemPrompt, "classification") {
		return &port.Completion{Text: "Bill Detail", InputTokens: 10, OutputTokens: 2}, nil
	}
	// Echo the last line of the prompt (the page text) as the item name.
	lines := strings.Split(strings.TrimSpace(strings.TrimSuffix(userPrompt, "JSON:")), "\n")
	name := strings.TrimSpace(lines[len(lines)-1])
	body := fmt.Sprintf(`{"bill_items":[{"item_name":%q,"item_amount":10.0,"item_rate":10.0,"item_quantity":1.0}]}`, name)
	return &port.Completion{Text: body, InputTokens: 50, OutputTokens: 20}, nil
}

func TestExtract_SkipsBlankPagesAndPreservesOrder(t *testing.T) {
	source := &fakePageSource{pages: []domain.Page{
		{Number: 1, Text: "alpha"},
		{Number: 2, Text: "   \n\t"},
		{Number: 3, Text: "gamma"},
	}}

	svc := NewExtractionService(source, pageAwareCompleter{}, 1)
	result, tokens, err := svc.Extract(context.Background(), "https://example.com/bill.pdf")

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/bill.pdf", source.url)

	require.Len(t, result.PagewiseLineItems, 2)
	assert.Equal(t, "1", result.PagewiseLineItems[0].PageNo)
	assert.Equal(t, "3", result.PagewiseLineItems[1].PageNo)
	assert.Equal(t, "alpha", result.PagewiseLineItems[0].BillItems[0].ItemName)
	assert.Equal(t, "gamma", result.PagewiseLineItems[1].BillItems[0].ItemName)
	assert.Equal(t, 2, result.TotalItemCount)

	// Two pages, each one classify call and one extract call.
	assert.Equal(t, 2*(10+50), tokens.InputTokens)
	assert.Equal(t, 2*(2+20), tokens.OutputTokens)
	assert.Equal(t, tokens.InputTokens+tokens.OutputTokens, tokens.TotalTokens)
}

func TestExtract_OrderStableUnderConcurrency(t *testing.T) {
	var pages []domain.Page
	for i := 1; i <= 12; i++ {
		pages = append(pages, domain.Page{Number: i, Text: fmt.Sprintf("page-%02d", i)})
	}
	source := &fakePageSource{pages: pages}

	svc := NewExtractionService(source, pageAwareCompleter{}, 4)
	result, _, err := svc.Extract(context.Background(), "https://example.com/bill.pdf")

	require.NoError(t, err)
	require.Len(t, result.PagewiseLineItems, 12)
	for i, pr := range result.PagewiseLineItems {
		assert.Equal(t, fmt.Sprintf("%d", i+1), pr.PageNo)
		assert.Equal(t, fmt.Sprintf("page-%02d", i+1), pr.BillItems[0].ItemName)
	}
	assert.Equal(t, 12, result.TotalItemCount)
}

func TestExtract_TotalItemCountMatchesPages(t *testing.T) {
	source := &fakePageSource{pages: []domain.Page{
		{Number: 1, Text: "one"},
		{Number: 2, Text: "two"},
	}}

	svc := NewExtractionService(source, pageAwareCompleter{}, 2)
	result, _, err := svc.Extract(context.Background(), "https://example.com/bill.pdf")
	require.NoError(t, err)

	sum := 0
	for _, pr := range result.PagewiseLineItems {
		sum += len(pr.BillItems)
	}
	assert.Equal(t, sum, result.TotalItemCount)
}

func TestExtract_PropagatesAcquisitionError(t *testing.T) {
	source := &fakePageSource{err: fmt.Errorf("404: %w", domain.ErrDocumentFetch)}

	svc := NewExtractionService(source, pageAwareCompleter{}, 1)
	_, tokens, err := svc.Extract(context.Background(), "https://example.com/missing.pdf")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentFetch))
	assert.Equal(t, 0, tokens.TotalTokens)
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string, string) (*port.Completion, error) {
	return nil, errors.New("provider down")
}

func TestExtract_ProviderFailureStillReturnsPages(t *testing.T) {
	source := &fakePageSource{pages: []domain.Page{{Number: 1, Text: "text"}}}

	svc := NewExtractionService(source, failingCompleter{}, 1)
	result, tokens, err := svc.Extract(context.Background(), "https://example.com/bill.pdf")

	require.NoError(t, err)
	require.Len(t, result.PagewiseLineItems, 1)
	assert.Equal(t, domain.DefaultPageType, result.PagewiseLineItems[0].PageType)
	assert.Empty(t, result.PagewiseLineItems[0].BillItems)
	assert.Equal(t, 0, result.TotalItemCount)
	assert.Equal(t, 0, tokens.TotalTokens)
}
