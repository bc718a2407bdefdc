package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"billx/internal/domain"
	"billx/internal/port"
)

// Engine classifies bill pages and extracts validated line items from their
// OCR text. All provider failures are contained here: classification
// degrades to the default page type and extraction degrades to an empty
// item list, so a single bad page never fails the whole document.
type Engine struct {
	llm port.Completer
}

// NewEngine creates an Engine on top of the given completer. Wrap the
// completer with provider.NewMetered so usage lands in the request ledger.
func NewEngine(llm port.Completer) *Engine {
	return &Engine{llm: llm}
}

// Classification is the outcome of a page-type call. Degraded is set when
// the default was substituted because the call failed or the answer matched
// no known label.
type Classification struct {
	Type     domain.PageType
	Degraded bool
}

// pageTypePriority is the fixed match order; the first label found as a
// substring of the response wins.
var pageTypePriority = []domain.PageType{
	domain.PageTypeBillDetail,
	domain.PageTypeFinalBill,
	domain.PageTypePharmacy,
}

// ClassifyPage determines the page type from its text. It is total: every
// input yields one of the three labels, falling back to Bill Detail.
func (e *Engine) ClassifyPage(ctx context.Context, text string) Classification {
	out, err := e.llm.Complete(ctx, classifySystemPrompt, buildClassifyPrompt(text))
	if err != nil {
		log.Printf("extraction: page classification failed, using default: %v", err)
		return Classification{Type: domain.DefaultPageType, Degraded: true}
	}

	for _, pt := range pageTypePriority {
		if strings.Contains(out.Text, string(pt)) {
			return Classification{Type: pt}
		}
	}
	return Classification{Type: domain.DefaultPageType, Degraded: true}
}

// extractEnvelope is the JSON shape the extraction prompt demands.
type extractEnvelope struct {
	BillItems []map[string]any `json:"bill_items"`
}

// ExtractItems extracts line items from page text. A provider failure or a
// malformed response returns an empty slice along with the error; callers
// log it and keep going.
func (e *Engine) ExtractItems(ctx context.Context, text string) ([]domain.BillItem, error) {
	out, err := e.llm.Complete(ctx, extractSystemPrompt, buildExtractPrompt(text))
	if err != nil {
		return []domain.BillItem{}, err
	}

	raw := StripCodeFence(out.Text)

	var envelope extractEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return []domain.BillItem{}, fmt.Errorf("decoding extraction response: %w (raw: %s)", err, truncate(raw, 500))
	}

	items := make([]domain.BillItem, 0, len(envelope.BillItems))
	for _, m := range envelope.BillItems {
		item, ok := buildItem(m)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// buildItem validates and coerces one raw item. Items without a usable name
// or with non-numeric fields are dropped, not surfaced as errors.
func buildItem(m map[string]any) (domain.BillItem, bool) {
	name, _ := m["item_name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.BillItem{}, false
	}

	amount, ok := coerceFloat(m["item_amount"], 0.0)
	if !ok {
		return domain.BillItem{}, false
	}
	rate, ok := coerceFloat(m["item_rate"], 0.0)
	if !ok {
		return domain.BillItem{}, false
	}
	quantity, ok := coerceFloat(m["item_quantity"], 1.0)
	if !ok {
		return domain.BillItem{}, false
	}

	// The prompt asks the model to derive rate = amount / quantity when the
	// bill omits it; enforce that here since the model sometimes leaves
	// rate at zero anyway.
	if rate == 0 && quantity != 0 && amount != 0 {
		rate = amount / quantity
	}

	return domain.BillItem{
		ItemName:     name,
		ItemAmount:   amount,
		ItemRate:     rate,
		ItemQuantity: quantity,
	}, true
}

// coerceFloat turns a decoded JSON value into a float64. Absent or null
// values take the default; a present but non-numeric value fails.
func coerceFloat(v any, def float64) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return def, true
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ProcessPage classifies a page and extracts its line items. This is the
// per-page unit of work the pipeline invokes for every non-empty page.
func (e *Engine) ProcessPage(ctx context.Context, pageNo int, text string) domain.PageResult {
	cls := e.ClassifyPage(ctx, text)
	log.Printf("extraction: page %d classified as %q (degraded=%t)", pageNo, cls.Type, cls.Degraded)

	items, err := e.ExtractItems(ctx, text)
	if err != nil {
		log.Printf("extraction: page %d yielded no items: %v", pageNo, err)
	} else {
		log.Printf("extraction: page %d yielded %d items", pageNo, len(items))
	}

	return domain.PageResult{
		PageNo:    strconv.Itoa(pageNo),
		PageType:  cls.Type,
		BillItems: items,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
