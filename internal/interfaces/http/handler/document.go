package handler

import (
	"context"
	"net/http"
	"strings"

	appfinance "github.com/erp/reconciler/internal/application/finance"
	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentReconciler edits and deletes documents
type DocumentReconciler interface {
	EditDocument(ctx context.Context, kind finance.DocumentKind, tenantID, documentID uuid.UUID, req appfinance.EditDocumentRequest) (*appfinance.EditDocumentResult, error)
	DeleteDocument(ctx context.Context, kind finance.DocumentKind, tenantID, documentID uuid.UUID) (*appfinance.DeleteDocumentResult, error)
}

// DocumentReader loads the joined read model of a document
type DocumentReader interface {
	GetDocument(ctx context.Context, kind finance.DocumentKind, tenantID, id uuid.UUID) (*appfinance.DocumentView, error)
}

// DocumentHandler serves one document kind: payables or receivables
type DocumentHandler struct {
	BaseHandler
	kind       finance.DocumentKind
	reconciler DocumentReconciler
	reader     DocumentReader
}

// NewDocumentHandler creates a handler bound to kind
func NewDocumentHandler(kind finance.DocumentKind, reconciler DocumentReconciler, reader DocumentReader) *DocumentHandler {
	return &DocumentHandler{
		kind:       kind,
		reconciler: reconciler,
		reader:     reader,
	}
}

// Kind returns the document kind this handler serves
func (h *DocumentHandler) Kind() finance.DocumentKind {
	return h.kind
}

// Get returns a document with installments, allocations and movements
// GET /api/v1/finance/{payables|receivables}/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, documentID, ok := h.resolveIDs(c)
	if !ok {
		return
	}

	view, err := h.reader.GetDocument(c.Request.Context(), h.kind, tenantID, documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, view)
}

// Update replaces the full state of a document
// PUT /api/v1/finance/{payables|receivables}/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	tenantID, documentID, ok := h.resolveIDs(c)
	if !ok {
		return
	}

	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	editReq, invalid := req.toEditRequest()
	if len(invalid) > 0 {
		details := make([]dto.ValidationDetail, 0, len(invalid))
		for _, field := range invalid {
			details = append(details, dto.ValidationDetail{
				Field:   field,
				Message: "Invalid date, expected YYYY-MM-DD or RFC 3339",
			})
		}
		h.ValidationError(c, details)
		return
	}

	result, err := h.reconciler.EditDocument(c.Request.Context(), h.kind, tenantID, documentID, editReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toUpdateDocumentResponse(result))
}

// Delete removes a document and everything derived from it
// DELETE /api/v1/finance/{payables|receivables}/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, documentID, ok := h.resolveIDs(c)
	if !ok {
		return
	}

	result, err := h.reconciler.DeleteDocument(c.Request.Context(), h.kind, tenantID, documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDeleteDocumentResponse(result))
}

// resolveIDs writes the error response itself when ok is false
func (h *DocumentHandler) resolveIDs(c *gin.Context) (tenantID, documentID uuid.UUID, ok bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidTenant, "Invalid tenant ID format")
		return uuid.Nil, uuid.Nil, false
	}

	documentID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid "+strings.ToLower(h.kind.String())+" ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, documentID, true
}
