package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"billx/internal/service"
)

// ExtractRequest is the request body for the extraction endpoint.
type ExtractRequest struct {
	Document string `json:"document" binding:"required"`
}

// ExtractHandler handles bill extraction requests.
type ExtractHandler struct {
	extractor service.BillExtractor
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(extractor service.BillExtractor) *ExtractHandler {
	return &ExtractHandler{extractor: extractor}
}

// Extract handles POST /extract-bill-data.
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document url is required")
		return
	}

	log.Printf("handler: received request to process document: %s", req.Document)

	result, tokenUsage, err := h.extractor.Extract(c.Request.Context(), req.Document)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, tokenUsage, result)
}
