package extraction

import "unicode/utf8"

// classifyMaxChars bounds how much page text the classification call sees.
// The page type is obvious from the header region and provider cost scales
// with input size.
const classifyMaxChars = 2000

const classifySystemPrompt = `You are a document classification expert. Classify the document type based on the content.
Return ONLY one of these three options: "Bill Detail", "Final Bill", or "Pharmacy".
- "Bill Detail": Detailed itemized bills with line items
- "Final Bill": Summary bills with totals
- "Pharmacy": Pharmacy bills with medication items`

const extractSystemPrompt = `You are an expert at extracting structured data from medical bills and invoices.
Extract ALL line items from the bill text. For each line item, extract:
- item_name: The exact name/description as shown in the bill
- item_amount: The net amount (after discounts) for this line item (float)
- item_rate: The unit rate/price for this item (float)
- item_quantity: The quantity of this item (float)

IMPORTANT RULES:
1. Extract EVERY line item - do not miss any
2. Do NOT include subtotals or totals as line items
3. item_amount should be the total for that line (quantity x rate, after discounts)
4. If quantity is not explicitly mentioned, use 1.0
5. If rate is not explicitly mentioned but amount and quantity are, calculate rate = amount / quantity
6. Return ONLY valid JSON in this exact format (no markdown, no code blocks, just pure JSON):
{
  "bill_items": [
    {
      "item_name": "string",
      "item_amount": 0.0,
      "item_rate": 0.0,
      "item_quantity": 1.0
    }
  ]
}`

func buildClassifyPrompt(text string) string {
	if len(text) > classifyMaxChars {
		// back the cut up to a rune boundary so a multi-byte character is
		// never split mid-sequence
		cut := classifyMaxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return "Classify this document:\n\n" + text
}

func buildExtractPrompt(text string) string {
	return "Extract all line items from this bill page. Return ONLY valid JSON in the exact format specified above, no additional text or markdown:\n\n" + text + "\n\nJSON:"
}
