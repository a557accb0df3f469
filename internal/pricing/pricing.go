// Package pricing derives the monetary figures of a reservation from
// its rate and date range. Every caller that edits dates, fees or
// discounts goes through Compute so all screens and tests observe one
// authoritative calculation.
package pricing

import (
	"time"

	"rentify-backend/internal/domain"
)

// Quote is the derived pricing of a reservation.
type Quote struct {
	DurationDays int
	PricePerDay  domain.Money
	AgreedPrice  domain.Money
	FinalPrice   domain.Money
}

// DurationDays is the billable length of a booking window: the number
// of started 24h periods, never less than one full day.
func DurationDays(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, &domain.InvalidRangeError{Start: start, End: end}
	}
	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days, nil
}

// Compute derives the quote from a daily rate. agreedPrice = rate x days,
// finalPrice = agreedPrice + fees - discount.
func Compute(pricePerDay domain.Money, start, end time.Time, fees, discount domain.Money, feesReason, discountReason string) (Quote, error) {
	days, err := DurationDays(start, end)
	if err != nil {
		return Quote{}, err
	}
	if err := validateAdjustments(pricePerDay, fees, discount, feesReason, discountReason); err != nil {
		return Quote{}, err
	}
	agreed := pricePerDay.MulInt(int64(days))
	return Quote{
		DurationDays: days,
		PricePerDay:  pricePerDay,
		AgreedPrice:  agreed,
		FinalPrice:   agreed.Add(fees).Sub(discount),
	}, nil
}

// ComputeWithAgreedPrice is the manual-override path: the caller fixes
// the agreed price and the per-day rate is back-derived for display
// only. The derived rate never re-triggers an agreed price computation,
// which is what prevents feedback loops between the two fields.
func ComputeWithAgreedPrice(agreedPrice domain.Money, start, end time.Time, fees, discount domain.Money, feesReason, discountReason string) (Quote, error) {
	days, err := DurationDays(start, end)
	if err != nil {
		return Quote{}, err
	}
	if err := validateAdjustments(agreedPrice, fees, discount, feesReason, discountReason); err != nil {
		return Quote{}, err
	}
	return Quote{
		DurationDays: days,
		PricePerDay:  agreedPrice.DivRound(int64(days)),
		AgreedPrice:  agreedPrice,
		FinalPrice:   agreedPrice.Add(fees).Sub(discount),
	}, nil
}

func validateAdjustments(base, fees, discount domain.Money, feesReason, discountReason string) error {
	if base.IsNegative() {
		return &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if fees.IsNegative() {
		return &domain.ValidationError{Field: "additionalFees", Reason: "must not be negative"}
	}
	if discount.IsNegative() {
		return &domain.ValidationError{Field: "discount", Reason: "must not be negative"}
	}
	if fees.IsPositive() && feesReason == "" {
		return &domain.ValidationError{Field: "additionalFeesReason", Reason: "required when additional fees are charged"}
	}
	if discount.IsPositive() && discountReason == "" {
		return &domain.ValidationError{Field: "discountReason", Reason: "required when a discount is applied"}
	}
	return nil
}
