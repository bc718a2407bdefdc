package extraction_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billx/internal/domain"
	"billx/internal/extraction"
	"billx/internal/port"
)

// stubCompleter returns canned responses keyed by call order, or a fixed
// error.
type stubCompleter struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *stubCompleter) Complete(_ context.Context, _, userPrompt string) (*port.Completion, error) {
	s.prompts = append(s.prompts, userPrompt)
	if s.err != nil {
		return nil, s.err
	}
	resp := s.responses[s.calls%len(s.responses)]
	s.calls++
	return &port.Completion{Text: resp, InputTokens: 10, OutputTokens: 5}, nil
}

func TestClassifyPage_MatchesLabels(t *testing.T) {
	cases := []struct {
		response string
		want     domain.PageType
	}{
		{`Final Bill`, domain.PageTypeFinalBill},
		{`The document is a "Pharmacy" bill.`, domain.PageTypePharmacy},
		{`Bill Detail`, domain.PageTypeBillDetail},
		// Bill Detail wins on priority when several labels appear.
		{`Could be Bill Detail or Final Bill`, domain.PageTypeBillDetail},
	}

	for _, tc := range cases {
		e := extraction.NewEngine(&stubCompleter{responses: []string{tc.response}})
		cls := e.ClassifyPage(context.Background(), "some page text")
		assert.Equal(t, tc.want, cls.Type, "response %q", tc.response)
		assert.False(t, cls.Degraded)
	}
}

func TestClassifyPage_DefaultsOnUnknownAnswer(t *testing.T) {
	e := extraction.NewEngine(&stubCompleter{responses: []string{"I cannot classify this"}})
	cls := e.ClassifyPage(context.Background(), "text")
	assert.Equal(t, domain.PageTypeBillDetail, cls.Type)
	assert.True(t, cls.Degraded)
}

func TestClassifyPage_DefaultsOnProviderFailure(t *testing.T) {
	e := extraction.NewEngine(&stubCompleter{err: errors.New("rate limited")})
	cls := e.ClassifyPage(context.Background(), "text")
	assert.Equal(t, domain.PageTypeBillDetail, cls.Type)
	assert.True(t, cls.Degraded)
}

func TestClassifyPage_TruncatesLongPages(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}

	stub := &stubCompleter{responses: []string{"Bill Detail"}}
	e := extraction.NewEngine(stub)
	e.ClassifyPage(context.Background(), string(long))

	require.Len(t, stub.prompts, 1)
	// Prompt preamble plus at most 2000 chars of page text.
	assert.Less(t, len(stub.prompts[0]), 2100)
}

func TestClassifyPage_TruncationKeepsRunesIntact(t *testing.T) {
	// A rupee sign straddles the cut point; the truncated prompt must not
	// carry a split multi-byte sequence.
	long := strings.Repeat("a", 1999) + strings.Repeat("₹", 100)

	stub := &stubCompleter{responses: []string{"Bill Detail"}}
	e := extraction.NewEngine(stub)
	e.ClassifyPage(context.Background(), long)

	require.Len(t, stub.prompts, 1)
	assert.True(t, utf8.ValidString(stub.prompts[0]))
	assert.True(t, strings.HasSuffix(stub.prompts[0], "a"))
}

func TestExtractItems_ParsesItems(t *testing.T) {
	resp := `{"bill_items":[
		{"item_name":"Paracetamol 500mg","item_amount":40.0,"item_rate":20.0,"item_quantity":2.0},
		{"item_name":"Room Charges","item_amount":1500.0,"item_rate":1500.0,"item_quantity":1.0}
	]}`

	e := extraction.NewEngine(&stubCompleter{responses: []string{resp}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Paracetamol 500mg", items[0].ItemName)
	assert.Equal(t, 40.0, items[0].ItemAmount)
	assert.Equal(t, 20.0, items[0].ItemRate)
	assert.Equal(t, 2.0, items[0].ItemQuantity)
	assert.Equal(t, "Room Charges", items[1].ItemName)
}

func TestExtractItems_StripsCodeFence(t *testing.T) {
	resp := "```json\n{\"bill_items\":[{\"item_name\":\"X-Ray\",\"item_amount\":350.0,\"item_rate\":350.0,\"item_quantity\":1.0}]}\n```"

	e := extraction.NewEngine(&stubCompleter{responses: []string{resp}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "X-Ray", items[0].ItemName)
}

func TestExtractItems_DefaultsMissingNumericFields(t *testing.T) {
	resp := `{"bill_items":[{"item_name":"Consultation"}]}`

	e := extraction.NewEngine(&stubCompleter{responses: []string{resp}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0.0, items[0].ItemAmount)
	assert.Equal(t, 0.0, items[0].ItemRate)
	assert.Equal(t, 1.0, items[0].ItemQuantity)
}

func TestExtractItems_RecomputesRateFromAmountAndQuantity(t *testing.T) {
	resp := `{"bill_items":[{"item_name":"Syringe","item_amount":50.0,"item_quantity":5.0}]}`

	e := extraction.NewEngine(&stubCompleter{responses: []string{resp}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10.0, items[0].ItemRate)
}

func TestExtractItems_DropsEmptyNames(t *testing.T) {
	resp := `{"bill_items":[
		{"item_name":"  ","item_amount":10.0},
		{"item_amount":10.0},
		{"item_name":"Valid Item","item_amount":10.0}
	]}`

	e := extraction.NewEngine(&stubCompleter{responses: []string{resp}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Valid Item", items[0].ItemName)
}

func TestExtractItems_DropsNonCoercibleNumbers(t *testing.T) {
	resp := `{"bill_items":[
		{"item_name":"Bad Amount","item_amount":"not a number"},
		{"item_name":"String Amount","item_amount":"12.50","item_quantity":"1"}
	]}`

	e := extraction.NewEngine(&stubCompleter{responses: []string{resp}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "String Amount", items[0].ItemName)
	assert.Equal(t, 12.50, items[0].ItemAmount)
}

func TestExtractItems_NonJSONDegradesToEmpty(t *testing.T) {
	e := extraction.NewEngine(&stubCompleter{responses: []string{"sorry, I cannot help with that"}})
	items, err := e.ExtractItems(context.Background(), "page text")

	assert.Error(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractItems_MissingBillItemsKeyIsEmpty(t *testing.T) {
	e := extraction.NewEngine(&stubCompleter{responses: []string{`{"line_items":[]}`}})
	items, err := e.ExtractItems(context.Background(), "page text")

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExtractItems_ProviderFailureDegradesToEmpty(t *testing.T) {
	e := extraction.NewEngine(&stubCompleter{err: errors.New("boom")})
	items, err := e.ExtractItems(context.Background(), "page text")

	assert.Error(t, err)
	assert.Empty(t, items)
}

func TestProcessPage_AssemblesResult(t *testing.T) {
	// First call classifies, second extracts.
	stub := &stubCompleter{responses: []string{
		"Pharmacy",
		`{"bill_items":[{"item_name":"Amoxicillin","item_amount":120.0,"item_rate":60.0,"item_quantity":2.0}]}`,
	}}

	e := extraction.NewEngine(stub)
	pr := e.ProcessPage(context.Background(), 3, "page text")

	assert.Equal(t, "3", pr.PageNo)
	assert.Equal(t, domain.PageTypePharmacy, pr.PageType)
	require.Len(t, pr.BillItems, 1)
	assert.Equal(t, "Amoxicillin", pr.BillItems[0].ItemName)
}

func TestProcessPage_FailedExtractionYieldsEmptyItems(t *testing.T) {
	e := extraction.NewEngine(&stubCompleter{err: errors.New("provider down")})
	pr := e.ProcessPage(context.Background(), 1, "page text")

	assert.Equal(t, "1", pr.PageNo)
	assert.Equal(t, domain.PageTypeBillDetail, pr.PageType)
	assert.NotNil(t, pr.BillItems)
	assert.Empty(t, pr.BillItems)
}
