package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func installmentWithValue(value string) Installment {
	return Installment{ID: uuid.New(), TotalValue: dec(value), NominalValue: dec(value)}
}

func TestSplitAllocations_Proportional(t *testing.T) {
	target := uuid.New()
	inst1 := installmentWithValue("400")
	inst2 := installmentWithValue("600")

	result := SplitAllocations(SplitInput{
		DocumentID:    uuid.New(),
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: dec("1000"),
		Entries:       []AllocationEntry{{TargetID: target, Amount: dec("600"), Percentage: dec("60")}},
		Installments:  []Installment{inst1, inst2},
	})

	require.Len(t, result.DocumentRows, 1)
	assert.True(t, result.DocumentRows[0].Amount.Equal(dec("600")))
	assert.True(t, result.DocumentRows[0].Percentage.Equal(dec("60")))

	require.Len(t, result.InstallmentRows, 2)
	assert.Equal(t, inst1.ID, result.InstallmentRows[0].InstallmentID)
	assert.True(t, result.InstallmentRows[0].Amount.Equal(dec("240")), "got %s", result.InstallmentRows[0].Amount)
	assert.True(t, result.InstallmentRows[0].Percentage.Equal(dec("60")))
	assert.Equal(t, inst2.ID, result.InstallmentRows[1].InstallmentID)
	assert.True(t, result.InstallmentRows[1].Amount.Equal(dec("360")), "got %s", result.InstallmentRows[1].Amount)
	assert.True(t, result.InstallmentRows[1].Percentage.Equal(dec("60")))

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeAccepted, result.Outcomes[0].Status)
	assert.Equal(t, 2, result.Outcomes[0].InstallmentRows)
	assert.Empty(t, result.Skipped())
}

func TestSplitAllocations_MultipleEntries(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionCostCenter,
		DocumentTotal: dec("300"),
		Entries: []AllocationEntry{
			{TargetID: a, Amount: dec("100")},
			{TargetID: b, Amount: dec("200")},
		},
		Installments: []Installment{installmentWithValue("100"), installmentWithValue("100"), installmentWithValue("100")},
	})

	require.Len(t, result.DocumentRows, 2)
	assert.True(t, result.DocumentRows[0].Percentage.Equal(dec("33.3333")), "derived percentage, got %s", result.DocumentRows[0].Percentage)
	assert.True(t, result.DocumentRows[1].Percentage.Equal(dec("66.6667")))

	require.Len(t, result.InstallmentRows, 6)
	for _, row := range result.InstallmentRows[:3] {
		assert.Equal(t, a, row.TargetID)
		assert.True(t, row.Amount.Equal(dec("33.33")), "got %s", row.Amount)
		assert.True(t, row.Percentage.Equal(dec("33.33")))
		assert.Equal(t, AllocationDimensionCostCenter, row.Dimension)
	}
	for _, row := range result.InstallmentRows[3:] {
		assert.Equal(t, b, row.TargetID)
		assert.True(t, row.Amount.Equal(dec("66.67")), "got %s", row.Amount)
	}
}

func TestSplitAllocations_SkipsMalformedEntries(t *testing.T) {
	target := uuid.New()
	tests := []struct {
		name   string
		entry  AllocationEntry
		reason SkipReason
	}{
		{"missing target", AllocationEntry{Amount: dec("10")}, SkipReasonMissingTarget},
		{"zero amount", AllocationEntry{TargetID: target, Amount: decimal.Zero}, SkipReasonNonPositiveAmount},
		{"negative amount", AllocationEntry{TargetID: target, Amount: dec("-5")}, SkipReasonNonPositiveAmount},
		{"supplied percentage too large to store", AllocationEntry{TargetID: target, Amount: dec("100"), Percentage: dec("123456789")}, SkipReasonPercentageOutOfRange},
		{"derived percentage too large to store", AllocationEntry{TargetID: target, Amount: dec("1000000000")}, SkipReasonPercentageOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := SplitAllocations(SplitInput{
				Dimension:     AllocationDimensionAccountingAccount,
				DocumentTotal: dec("100"),
				Entries:       []AllocationEntry{tc.entry},
				Installments:  []Installment{installmentWithValue("100")},
			})
			assert.Empty(t, result.DocumentRows)
			assert.Empty(t, result.InstallmentRows)
			require.Len(t, result.Outcomes, 1)
			assert.True(t, result.Outcomes[0].IsSkipped())
			assert.Equal(t, tc.reason, result.Outcomes[0].Reason)
		})
	}
}

func TestSplitAllocations_InstallmentPercentageOutOfRange(t *testing.T) {
	inst := installmentWithValue("100")
	entry := AllocationEntry{TargetID: uuid.New(), Amount: dec("1000000000"), Percentage: dec("50")}

	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionCostCenter,
		DocumentTotal: dec("100"),
		Entries:       []AllocationEntry{entry},
		Installments:  []Installment{inst},
	})

	require.Len(t, result.DocumentRows, 1, "the supplied percentage fits, so the document row is kept")
	assert.Empty(t, result.InstallmentRows)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, SkipReasonPercentageOutOfRange, result.Outcomes[0].Reason)
	assert.Equal(t, inst.ID, result.Outcomes[0].InstallmentID)
	assert.False(t, result.Outcomes[1].IsSkipped())
	assert.Equal(t, 0, result.Outcomes[1].InstallmentRows)
}

func TestSplitAllocations_ZeroDocumentTotal(t *testing.T) {
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: decimal.Zero,
		Entries:       []AllocationEntry{{TargetID: uuid.New(), Amount: dec("50"), Percentage: dec("100")}},
		Installments:  []Installment{installmentWithValue("50")},
	})

	require.Len(t, result.DocumentRows, 1, "document-level row is kept as given")
	assert.Empty(t, result.InstallmentRows)
	require.Len(t, result.Skipped(), 1)
	assert.Equal(t, SkipReasonZeroDocumentTotal, result.Skipped()[0].Reason)
}

func TestSplitAllocations_ZeroValueInstallment(t *testing.T) {
	zero := Installment{ID: uuid.New()}
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: dec("100"),
		Entries:       []AllocationEntry{{TargetID: uuid.New(), Amount: dec("100")}},
		Installments:  []Installment{zero, installmentWithValue("100")},
	})

	require.Len(t, result.InstallmentRows, 1)
	assert.True(t, result.InstallmentRows[0].Amount.Equal(dec("100")))

	skips := result.Skipped()
	require.Len(t, skips, 1)
	assert.Equal(t, SkipReasonZeroInstallmentValue, skips[0].Reason)
	assert.Equal(t, zero.ID, skips[0].InstallmentID)
}

func TestSplitAllocations_NominalValueFallback(t *testing.T) {
	inst := Installment{ID: uuid.New(), NominalValue: dec("250")}
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: dec("500"),
		Entries:       []AllocationEntry{{TargetID: uuid.New(), Amount: dec("500")}},
		Installments:  []Installment{inst},
	})

	require.Len(t, result.InstallmentRows, 1)
	assert.True(t, result.InstallmentRows[0].Amount.Equal(dec("250")))
	assert.True(t, result.InstallmentRows[0].Percentage.Equal(dec("100")))
}

func TestSplitAllocations_LegacyTarget(t *testing.T) {
	legacy := uuid.New()
	inst1 := installmentWithValue("400")
	inst2 := installmentWithValue("600")

	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionCostCenter,
		DocumentTotal: dec("1000"),
		LegacyTarget:  &legacy,
		Installments:  []Installment{inst1, inst2},
	})

	require.Len(t, result.DocumentRows, 1)
	assert.Equal(t, legacy, result.DocumentRows[0].TargetID)
	assert.True(t, result.DocumentRows[0].Amount.Equal(dec("1000")))
	assert.True(t, result.DocumentRows[0].Percentage.Equal(dec("100")))

	require.Len(t, result.InstallmentRows, 2)
	assert.True(t, result.InstallmentRows[0].Amount.Equal(dec("400")))
	assert.True(t, result.InstallmentRows[1].Amount.Equal(dec("600")))
	for _, row := range result.InstallmentRows {
		assert.Equal(t, legacy, row.TargetID)
		assert.True(t, row.Percentage.Equal(dec("100")))
	}

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Legacy)
	assert.Equal(t, OutcomeAccepted, result.Outcomes[0].Status)
}

func TestSplitAllocations_LegacyIgnoredWhenEntriesPresent(t *testing.T) {
	legacy := uuid.New()
	explicit := uuid.New()
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: dec("100"),
		Entries:       []AllocationEntry{{TargetID: explicit, Amount: dec("100")}},
		LegacyTarget:  &legacy,
		Installments:  []Installment{installmentWithValue("100")},
	})

	require.Len(t, result.DocumentRows, 1)
	assert.Equal(t, explicit, result.DocumentRows[0].TargetID)
}

func TestSplitAllocations_LegacyZeroTotal(t *testing.T) {
	legacy := uuid.New()
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: decimal.Zero,
		LegacyTarget:  &legacy,
		Installments:  []Installment{installmentWithValue("10")},
	})

	assert.Empty(t, result.DocumentRows)
	assert.Empty(t, result.InstallmentRows)
	require.Len(t, result.Skipped(), 1)
	assert.Equal(t, SkipReasonZeroDocumentTotal, result.Skipped()[0].Reason)
}

func TestSplitAllocations_NothingRequested(t *testing.T) {
	result := SplitAllocations(SplitInput{
		Dimension:     AllocationDimensionAccountingAccount,
		DocumentTotal: dec("100"),
		Installments:  []Installment{installmentWithValue("100")},
	})
	assert.Empty(t, result.DocumentRows)
	assert.Empty(t, result.InstallmentRows)
	assert.Empty(t, result.Outcomes)
}
