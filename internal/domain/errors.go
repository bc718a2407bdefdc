package domain

import "errors"

var (
	ErrNoProviderConfigured = errors.New("no usable llm provider configured")
	ErrOCRUnavailable       = errors.New("ocr engine unavailable")
	ErrDocumentFetch        = errors.New("document fetch failed")
	ErrUnsupportedFormat    = errors.New("unsupported document format")
	ErrNegativeTokenCount   = errors.New("negative token count")
)
