package domain

// Page is one OCR'd page of a source document. Numbers are 1-based and
// follow source order.
type Page struct {
	Number int
	Text   string
}

// BillItem is a single extracted line item.
type BillItem struct {
	ItemName     string  `json:"item_name"`
	ItemAmount   float64 `json:"item_amount"`
	ItemRate     float64 `json:"item_rate"`
	ItemQuantity float64 `json:"item_quantity"`
}

// PageResult holds the classification and line items for one page.
// BillItems preserves provider output order.
type PageResult struct {
	PageNo    string     `json:"page_no"`
	PageType  PageType   `json:"page_type"`
	BillItems []BillItem `json:"bill_items"`
}

// TokenUsage is a snapshot of accumulated token counts across all provider
// calls made while processing one request. TotalTokens is always the sum of
// the other two.
type TokenUsage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ExtractionResult is the aggregated output for one document.
// TotalItemCount equals the sum of len(BillItems) across all page results.
type ExtractionResult struct {
	PagewiseLineItems []PageResult `json:"pagewise_line_items"`
	TotalItemCount    int          `json:"total_item_count"`
}
