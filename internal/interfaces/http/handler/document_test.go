package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appfinance "github.com/erp/reconciler/internal/application/finance"
	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/erp/reconciler/internal/interfaces/http/dto"
	"github.com/erp/reconciler/internal/interfaces/http/middleware"
	"github.com/erp/reconciler/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) EditDocument(ctx context.Context, kind finance.DocumentKind, tenantID, documentID uuid.UUID, req appfinance.EditDocumentRequest) (*appfinance.EditDocumentResult, error) {
	args := m.Called(ctx, kind, tenantID, documentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.EditDocumentResult), args.Error(1)
}

func (m *mockReconciler) DeleteDocument(ctx context.Context, kind finance.DocumentKind, tenantID, documentID uuid.UUID) (*appfinance.DeleteDocumentResult, error) {
	args := m.Called(ctx, kind, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.DeleteDocumentResult), args.Error(1)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetDocument(ctx context.Context, kind finance.DocumentKind, tenantID, id uuid.UUID) (*appfinance.DocumentView, error) {
	args := m.Called(ctx, kind, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.DocumentView), args.Error(1)
}

func setupDocumentEngine(kind finance.DocumentKind) (*gin.Engine, *mockReconciler, *mockReader) {
	rec := new(mockReconciler)
	reader := new(mockReader)
	h := NewDocumentHandler(kind, rec, reader)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.TenantMiddleware())
	group := engine.Group("/api/v1/finance/payables")
	if kind == finance.DocumentKindReceivable {
		group = engine.Group("/api/v1/finance/receivables")
	}
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	return engine, rec, reader
}

func validUpdateBody() map[string]any {
	return map[string]any{
		"title":       "NF 1234",
		"total_value": "1000.00",
		"issue_date":  "2024-01-15",
		"status":      "OPEN",
		"installments": []map[string]any{
			{
				"title":         "Parcela 1",
				"due_date":      "2024-02-15",
				"payment_date":  "2024-02-10",
				"nominal_value": "1000.00",
				"total_value":   "1000.00",
				"status":        "Pago",
			},
		},
		"accounting_allocations": []map[string]any{
			{"target_id": uuid.NewString(), "amount": "600.00", "percentage": "60"},
			{"target_id": "", "amount": "400.00", "percentage": "40"},
		},
	}
}

func TestDocumentHandler_Update(t *testing.T) {
	tenant := testutil.TestTenantID()
	docID := uuid.New()
	path := "/api/v1/finance/payables/" + docID.String()
	headers := map[string]string{middleware.TenantHeaderKey: tenant.String()}

	t.Run("success", func(t *testing.T) {
		engine, rec, _ := setupDocumentEngine(finance.DocumentKindPayable)
		skippedTarget := uuid.Nil
		result := &appfinance.EditDocumentResult{
			DocumentID:           docID,
			Version:              2,
			InstallmentsInserted: 1,
			MovementsCreated:     1,
			AccountsRecalculated: 1,
			AllocationsSkipped: []finance.AllocationOutcome{
				{
					Dimension: finance.AllocationDimensionAccountingAccount,
					Entry:     finance.AllocationEntry{TargetID: skippedTarget, Amount: decimal.NewFromInt(400)},
					Reason:    finance.SkipReasonMissingTarget,
				},
			},
		}
		rec.On("EditDocument", mock.Anything, finance.DocumentKindPayable, tenant, docID,
			mock.MatchedBy(func(req appfinance.EditDocumentRequest) bool {
				return req.Header.Title == "NF 1234" &&
					len(req.Installments) == 1 &&
					req.Installments[0].ID == uuid.Nil &&
					req.Installments[0].PaymentDate != nil &&
					len(req.AccountingAllocations) == 2 &&
					req.AccountingAllocations[1].TargetID == uuid.Nil &&
					req.CostCenterAllocations == nil &&
					req.ExpectedVersion == nil
			}),
		).Return(result, nil)

		w := testutil.RunHTTPTestCase(t, engine, testutil.HTTPTestCase{
			Method:         http.MethodPut,
			Path:           path,
			Body:           validUpdateBody(),
			Headers:        headers,
			ExpectedStatus: http.StatusOK,
		})

		resp := testutil.AssertSuccessResponse(t, w)
		data := resp["data"].(map[string]any)
		assert.Equal(t, docID.String(), data["id"])
		assert.Equal(t, float64(2), data["version"])
		assert.Equal(t, float64(1), data["movements_created"])
		skipped := data["allocations_skipped"].([]any)
		require.Len(t, skipped, 1)
		entry := skipped[0].(map[string]any)
		assert.Equal(t, "400.00", entry["amount"])
		assert.Equal(t, string(finance.SkipReasonMissingTarget), entry["reason"])
		assert.NotContains(t, entry, "target_id")
		rec.AssertExpectations(t)
	})

	engine, rec, _ := setupDocumentEngine(finance.DocumentKindPayable)
	rec.On("EditDocument", mock.Anything, finance.DocumentKindPayable, tenant, docID, mock.Anything).
		Return(nil, shared.ErrNotFound).Once()

	testutil.RunHTTPTestCases(t, engine, []testutil.HTTPTestCase{
		{
			Name:           "not found",
			Method:         http.MethodPut,
			Path:           path,
			Body:           validUpdateBody(),
			Headers:        headers,
			ExpectedStatus: http.StatusNotFound,
			ExpectedCode:   dto.ErrCodeNotFound,
		},
		{
			Name:           "invalid document id",
			Method:         http.MethodPut,
			Path:           "/api/v1/finance/payables/not-a-uuid",
			Body:           validUpdateBody(),
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeBadRequest,
		},
		{
			Name:           "malformed json",
			Method:         http.MethodPut,
			Path:           path,
			Body:           `{"title":`,
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeInvalidJSON,
		},
		{
			Name:           "missing title",
			Method:         http.MethodPut,
			Path:           path,
			Body:           map[string]any{"issue_date": "2024-01-15", "total_value": "10"},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := testutil.JSONResponseAs[dto.Response](t, w)
				require.NotEmpty(t, resp.Error.Details)
				assert.Equal(t, "title", resp.Error.Details[0].Field)
			},
		},
		{
			Name:   "negative installment value",
			Method: http.MethodPut,
			Path:   path,
			Body: map[string]any{
				"title": "NF", "issue_date": "2024-01-15", "total_value": "10",
				"installments": []map[string]any{{"due_date": "2024-02-01", "total_value": "-5"}},
			},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := testutil.JSONResponseAs[dto.Response](t, w)
				require.NotEmpty(t, resp.Error.Details)
				assert.Equal(t, "installments[0].total_value", resp.Error.Details[0].Field)
			},
		},
		{
			Name:   "invalid dates",
			Method: http.MethodPut,
			Path:   path,
			Body: map[string]any{
				"title": "NF", "issue_date": "15/01/2024", "total_value": "10",
				"installments": []map[string]any{{"due_date": "soon"}},
			},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := testutil.JSONResponseAs[dto.Response](t, w)
				fields := make([]string, 0, len(resp.Error.Details))
				for _, d := range resp.Error.Details {
					fields = append(fields, d.Field)
				}
				assert.ElementsMatch(t, []string{"issue_date", "installments[0].due_date"}, fields)
			},
		},
		{
			Name:           "invalid tenant header",
			Method:         http.MethodPut,
			Path:           path,
			Body:           validUpdateBody(),
			Headers:        map[string]string{middleware.TenantHeaderKey: "acme"},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeInvalidTenant,
		},
	})
	rec.AssertExpectations(t)
}

func TestDocumentHandler_Update_ErrorMapping(t *testing.T) {
	docID := uuid.New()
	path := "/api/v1/finance/receivables/" + docID.String()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{"version conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict, shared.ErrConcurrencyConflict.Message},
		{"header rejected", shared.NewDomainError("INVALID_AMOUNT", "Total value cannot be negative"), http.StatusBadRequest, dto.ErrCodeValidation, "Total value cannot be negative"},
		{"rolled back", shared.WithCause(appfinance.ErrReconciliationFailed, errors.New("insert movement: connection reset")), http.StatusInternalServerError, dto.ErrCodeReconciliationFailed, "failed to reconcile document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, rec, _ := setupDocumentEngine(finance.DocumentKindReceivable)
			rec.On("EditDocument", mock.Anything, finance.DocumentKindReceivable, middleware.DefaultTenantID, docID, mock.Anything).
				Return(nil, tt.err)

			w := testutil.RunHTTPTestCase(t, engine, testutil.HTTPTestCase{
				Method:         http.MethodPut,
				Path:           path,
				Body:           validUpdateBody(),
				ExpectedStatus: tt.expectedStatus,
				ExpectedCode:   tt.expectedCode,
			})

			resp := testutil.JSONResponseAs[dto.Response](t, w)
			assert.Equal(t, tt.expectedMsg, resp.Error.Message)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestDocumentHandler_Get(t *testing.T) {
	tenant := testutil.TestTenantID()
	docID := uuid.New()
	headers := map[string]string{middleware.TenantHeaderKey: tenant.String()}

	engine, _, reader := setupDocumentEngine(finance.DocumentKindReceivable)
	reader.On("GetDocument", mock.Anything, finance.DocumentKindReceivable, tenant, docID).
		Return(&appfinance.DocumentView{
			ID:           docID,
			TenantID:     tenant,
			Kind:         finance.DocumentKindReceivable.String(),
			Title:        "Invoice 9",
			TotalValue:   decimal.NewFromInt(250),
			Version:      4,
			Installments: []appfinance.InstallmentView{},
		}, nil)
	missing := uuid.New()
	reader.On("GetDocument", mock.Anything, finance.DocumentKindReceivable, tenant, missing).
		Return(nil, shared.ErrNotFound)

	testutil.RunHTTPTestCases(t, engine, []testutil.HTTPTestCase{
		{
			Name:           "found",
			Path:           "/api/v1/finance/receivables/" + docID.String(),
			Headers:        headers,
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := testutil.AssertSuccessResponse(t, w)["data"].(map[string]any)
				assert.Equal(t, "Invoice 9", data["title"])
				assert.Equal(t, "RECEIVABLE", data["kind"])
				assert.Equal(t, float64(4), data["version"])
			},
		},
		{
			Name:           "not found",
			Path:           "/api/v1/finance/receivables/" + missing.String(),
			Headers:        headers,
			ExpectedStatus: http.StatusNotFound,
			ExpectedCode:   dto.ErrCodeNotFound,
		},
		{
			Name:           "invalid id",
			Path:           "/api/v1/finance/receivables/123",
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeBadRequest,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := testutil.JSONResponseAs[dto.Response](t, w)
				assert.Equal(t, "Invalid receivable ID format", resp.Error.Message)
			},
		},
	})
	reader.AssertExpectations(t)
}

func TestDocumentHandler_Delete(t *testing.T) {
	docID := uuid.New()
	missing := uuid.New()

	engine, rec, _ := setupDocumentEngine(finance.DocumentKindPayable)
	rec.On("DeleteDocument", mock.Anything, finance.DocumentKindPayable, middleware.DefaultTenantID, docID).
		Return(&appfinance.DeleteDocumentResult{DocumentID: docID, MovementsDeleted: 2, InstallmentsDeleted: 3, AccountsRecalculated: 1}, nil)
	rec.On("DeleteDocument", mock.Anything, finance.DocumentKindPayable, middleware.DefaultTenantID, missing).
		Return(nil, shared.ErrNotFound)

	testutil.RunHTTPTestCases(t, engine, []testutil.HTTPTestCase{
		{
			Name:           "deleted",
			Method:         http.MethodDelete,
			Path:           "/api/v1/finance/payables/" + docID.String(),
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := testutil.AssertSuccessResponse(t, w)["data"].(map[string]any)
				assert.Equal(t, docID.String(), data["id"])
				assert.Equal(t, float64(2), data["movements_deleted"])
				assert.Equal(t, float64(3), data["installments_deleted"])
				assert.Equal(t, float64(1), data["accounts_recalculated"])
			},
		},
		{
			Name:           "not found",
			Method:         http.MethodDelete,
			Path:           "/api/v1/finance/payables/" + missing.String(),
			ExpectedStatus: http.StatusNotFound,
			ExpectedCode:   dto.ErrCodeNotFound,
		},
	})
	rec.AssertExpectations(t)
}

func TestNewDocumentHandler_Kind(t *testing.T) {
	h := NewDocumentHandler(finance.DocumentKindReceivable, nil, nil)
	assert.Equal(t, finance.DocumentKindReceivable, h.Kind())
}
