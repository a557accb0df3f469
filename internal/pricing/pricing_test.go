package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rentify-backend/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestDurationDays(t *testing.T) {
	t.Run("Whole days", func(t *testing.T) {
		days, err := DurationDays(day(1), day(4))
		assert.NoError(t, err)
		assert.Equal(t, 3, days)
	})

	t.Run("Partial day rounds up", func(t *testing.T) {
		start := day(1)
		end := day(2).Add(6 * time.Hour)
		days, err := DurationDays(start, end)
		assert.NoError(t, err)
		assert.Equal(t, 2, days)
	})

	t.Run("Less than a day bills one day", func(t *testing.T) {
		start := day(1)
		days, err := DurationDays(start, start.Add(3*time.Hour))
		assert.NoError(t, err)
		assert.Equal(t, 1, days)
	})

	t.Run("End equal to start is invalid", func(t *testing.T) {
		_, err := DurationDays(day(1), day(1))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidRange))
	})

	t.Run("End before start is invalid", func(t *testing.T) {
		_, err := DurationDays(day(4), day(1))
		assert.True(t, errors.Is(err, domain.ErrInvalidRange))
	})
}

func TestCompute(t *testing.T) {
	rate := domain.MustMoney("350.00")

	t.Run("Rate times days plus fees minus discount", func(t *testing.T) {
		quote, err := Compute(rate, day(1), day(5),
			domain.MustMoney("100.00"), domain.MustMoney("50.00"), "child seat", "loyalty")
		assert.NoError(t, err)
		assert.Equal(t, 4, quote.DurationDays)
		assert.True(t, quote.AgreedPrice.Equal(domain.MustMoney("1400.00")))
		assert.True(t, quote.FinalPrice.Equal(domain.MustMoney("1450.00")))
	})

	t.Run("No adjustments", func(t *testing.T) {
		quote, err := Compute(rate, day(1), day(2), domain.ZeroMoney(), domain.ZeroMoney(), "", "")
		assert.NoError(t, err)
		assert.True(t, quote.FinalPrice.Equal(domain.MustMoney("350.00")))
	})

	t.Run("Negative discount rejected", func(t *testing.T) {
		_, err := Compute(rate, day(1), day(2), domain.ZeroMoney(), domain.MustMoney("-5.00"), "", "")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("Fees without a reason rejected", func(t *testing.T) {
		_, err := Compute(rate, day(1), day(2), domain.MustMoney("20.00"), domain.ZeroMoney(), "", "")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("Discount without a reason rejected", func(t *testing.T) {
		_, err := Compute(rate, day(1), day(2), domain.ZeroMoney(), domain.MustMoney("20.00"), "", "")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestComputeWithAgreedPrice(t *testing.T) {
	t.Run("Manual price back-derives per day rate", func(t *testing.T) {
		quote, err := ComputeWithAgreedPrice(domain.MustMoney("1000.00"), day(1), day(4),
			domain.ZeroMoney(), domain.ZeroMoney(), "", "")
		assert.NoError(t, err)
		assert.Equal(t, 3, quote.DurationDays)
		assert.True(t, quote.AgreedPrice.Equal(domain.MustMoney("1000.00")))
		assert.True(t, quote.PricePerDay.Equal(domain.MustMoney("333.33")))
		assert.True(t, quote.FinalPrice.Equal(domain.MustMoney("1000.00")))
	})

	t.Run("Derived rate never alters the agreed price", func(t *testing.T) {
		// 1000 / 3 rounds to 333.33; 333.33 * 3 would be 999.99. The
		// agreed price must stay exactly what was fixed.
		quote, err := ComputeWithAgreedPrice(domain.MustMoney("1000.00"), day(1), day(4),
			domain.MustMoney("7.50"), domain.ZeroMoney(), "fuel", "")
		assert.NoError(t, err)
		assert.True(t, quote.FinalPrice.Equal(domain.MustMoney("1007.50")))
	})

	t.Run("Negative agreed price rejected", func(t *testing.T) {
		_, err := ComputeWithAgreedPrice(domain.MustMoney("-1.00"), day(1), day(2),
			domain.ZeroMoney(), domain.ZeroMoney(), "", "")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}
