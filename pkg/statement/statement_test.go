package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		wantDate int
		wantDesc int
		wantAmt  int
		valid    bool
	}{
		{
			name:     "any case any order",
			header:   []string{"Desc", "value date", "Other", "AMOUNT"},
			wantDate: 1, wantDesc: -1, wantAmt: 3,
			valid: false,
		},
		{
			name:     "full bank export header",
			header:   []string{"Value Date", "Value Time", "Type", "Description", "Beneficiary or CardHolder", "Amount"},
			wantDate: 0, wantDesc: 3, wantAmt: 5,
			valid: true,
		},
		{
			name:     "padded cells",
			header:   []string{" Description ", "  Value Date", "Amount "},
			wantDate: 1, wantDesc: 0, wantAmt: 2,
			valid: true,
		},
		{
			name:     "missing amount",
			header:   []string{"Value Date", "Description", "Balance"},
			wantDate: 0, wantDesc: 1, wantAmt: -1,
			valid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx := ResolveColumns(tc.header)
			assert.Equal(t, tc.wantDate, idx.ValueDate)
			assert.Equal(t, tc.wantDesc, idx.Description)
			assert.Equal(t, tc.wantAmt, idx.Amount)
			assert.Equal(t, tc.valid, idx.IsValid())
		})
	}
}

func TestResolveColumns_SpecOrdering(t *testing.T) {
	idx := ResolveColumns([]string{"Desc", "Value Date", "Other", "Amount"})
	assert.Equal(t, 1, idx.ValueDate)
	assert.Equal(t, 3, idx.Amount)
	assert.False(t, idx.IsValid(), "Desc is not Description")
}

func TestParse_BankExport(t *testing.T) {
	csvText := `"Value Date","Value Time","Type","Description","Beneficiary or CardHolder","Amount"
2025-06-28,12:45:56,"Pending","Uber JOHANNESBURG ZA","Jake Daniels",-91.00
2025-06-25,21:16:20,"POS Purchase","WOOLWORTHS CAPE TOWN","J Daniels",-142.07
`

	records, err := Parse(csvText)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2025-06-28", records[0].ValueDate)
	assert.Equal(t, "Uber JOHANNESBURG ZA", records[0].Description)
	assert.Equal(t, "-91.00", records[0].Amount)
	assert.Equal(t, "WOOLWORTHS CAPE TOWN", records[1].Description)
}

func TestParse_QuotedFields(t *testing.T) {
	csvText := "Value Date,Description,Amount\n" +
		"2025-06-28,\"COFFEE, BEANS & CO\",-45.00\n" +
		"2025-06-27,\"TWO\nLINES\",-10.00\n"

	records, err := Parse(csvText)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "COFFEE, BEANS & CO", records[0].Description)
	assert.Equal(t, "TWO\nLINES", records[1].Description)
}

func TestParse_ShortRowsSkipped(t *testing.T) {
	csvText := "Value Date,Description,Amount\n" +
		"2025-06-28,CHECKERS,-50.00\n" +
		"2025-06-27,ONLY-TWO-FIELDS\n" +
		"2025-06-26,SPAR,-20.00\n"

	records, err := Parse(csvText)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CHECKERS", records[0].Description)
	assert.Equal(t, "SPAR", records[1].Description)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptyStatement)
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse("Value Date,Description,Balance\n2025-06-28,X,100.00\n")
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestParse_HeaderOnly(t *testing.T) {
	records, err := Parse("Value Date,Description,Amount\n")
	require.NoError(t, err)
	assert.Empty(t, records)
}
