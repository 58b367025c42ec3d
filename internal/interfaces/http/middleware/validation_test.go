package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationLine struct {
	DueDate string          `json:"due_date" binding:"required"`
	Value   decimal.Decimal `json:"value" binding:"gte=0"`
}

type validationBody struct {
	Title string           `json:"title" binding:"required,max=5"`
	Total decimal.Decimal  `json:"total_value" binding:"gte=0"`
	Ref   *string          `json:"ref,omitempty" binding:"omitempty,uuid"`
	Lines []validationLine `json:"lines" binding:"dive"`
}

func validationEngine() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.PUT("/test", func(c *gin.Context) {
		var body validationBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestSetupValidator_DecimalAndFieldNames(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantFields  []string
		wantMessage string
	}{
		{
			name:       "valid",
			body:       `{"title":"ok","total_value":"10.50","lines":[{"due_date":"2024-01-01","value":1}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "negative decimal",
			body:        `{"title":"ok","total_value":"-1"}`,
			wantStatus:  http.StatusBadRequest,
			wantFields:  []string{"total_value"},
			wantMessage: "Must be greater than or equal to 0",
		},
		{
			name:       "nested line errors use json paths",
			body:       `{"title":"toolong","total_value":0,"ref":"nope","lines":[{"value":"-2"}]}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"title", "ref", "lines[0].due_date", "lines[0].value"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validationEngine()
			req := httptest.NewRequest(http.MethodPut, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			for _, f := range tt.wantFields {
				assert.Contains(t, w.Body.String(), `"field":"`+f+`"`)
			}
			if tt.wantMessage != "" {
				assert.Contains(t, w.Body.String(), tt.wantMessage)
			}
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"code":"ERR_VALIDATION"`)
				assert.Contains(t, w.Body.String(), `"request_id":"`)
			}
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}
