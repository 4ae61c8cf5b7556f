package expense

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpense_Validate_Amount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"0", true},
		{"0.01", true},
		{"10.50", true},
		{"10.500", true},
		{"99999999999999999.99", true},
		{"10.005", false},
		{"0.001", false},
		{"100000000000000000", false},
		{"1e20", false},
		{"-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			// given
			e := groceries()
			e.Amount = amount(tt.amount)

			// when
			err := e.Validate()

			// then
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidExpense)
			}
		})
	}
}
