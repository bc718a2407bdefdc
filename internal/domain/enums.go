package domain

// PageType is the coarse classification of a bill page.
type PageType string

const (
	PageTypeBillDetail PageType = "Bill Detail"
	PageTypeFinalBill  PageType = "Final Bill"
	PageTypePharmacy   PageType = "Pharmacy"
)

// DefaultPageType is used when classification is ambiguous or the provider
// call fails. Bill Detail is by far the most common page kind.
const DefaultPageType = PageTypeBillDetail

// Format identifies the raw byte payload of a fetched document.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatImage       Format = "image"
	FormatUnsupported Format = "unsupported"
)
