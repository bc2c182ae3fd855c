package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFees(t *testing.T) {
	t.Run("hundred dollar listing", func(t *testing.T) {
		fees, err := CalculateFees(10000)

		require.NoError(t, err)
		assert.Equal(t, int64(10000), fees.SubtotalCents)
		assert.Equal(t, int64(450), fees.PlatformFeeCents)
		assert.Equal(t, int64(320), fees.TransactionFeeCents)
		assert.Equal(t, int64(10770), fees.TotalCents)
	})

	t.Run("rounds half up", func(t *testing.T) {
		// 4.5% of $1.11 is 4.995 cents, which rounds to 5.
		fees, err := CalculateFees(111)

		require.NoError(t, err)
		assert.Equal(t, int64(5), fees.PlatformFeeCents)
		// 2.9% of $1.11 is 3.219 cents, rounds to 3, plus the 30c flat fee.
		assert.Equal(t, int64(33), fees.TransactionFeeCents)
	})

	t.Run("total is the sum of its parts", func(t *testing.T) {
		for _, subtotal := range []int64{1, 99, 100, 2599, 10000, 999999} {
			fees, err := CalculateFees(subtotal)
			require.NoError(t, err)
			assert.Equal(t, fees.TotalCents,
				fees.SubtotalCents+fees.PlatformFeeCents+fees.TransactionFeeCents)
		}
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := CalculateFees(0)
		assert.ErrorIs(t, err, ErrNonPositiveAmount)

		_, err = CalculateFees(-500)
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})
}

func TestNewOrderNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewOrderNumber(mustParseDate(t, "2026-03-15"))
		assert.Regexp(t, `^PM-20260315-[A-Z2-9]{6}$`, n)
		assert.False(t, seen[n], "order numbers should not repeat")
		seen[n] = true
	}
}
