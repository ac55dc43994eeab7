package model

import "time"

// DiscountType selects how a coupon's Value is applied to an order total.
type DiscountType string

const (
	// DiscountPercentage subtracts floor(total * Value / 100).
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed subtracts Value outright.  The result is not clamped
	// at zero: a fixed discount may legally exceed the order amount.
	DiscountFixed DiscountType = "fixed"
)

// Coupon is a discount code with a bounded number of redemptions and a
// validity window.  UsedCount only moves forward, one at a time, inside a
// successful redemption; it never exceeds MaxUses.
//
// Fields:
//
//	Code        – unique coupon code, the store key.
//	Description – human-readable text for display surfaces.
//	Type        – percentage or fixed.
//	Value       – percent points or fixed amount depending on Type.
//	MinPurchase – minimum order amount required to redeem.
//	MaxUses     – redemption cap.
//	UsedCount   – redemptions so far.
//	ValidFrom   – start of the validity window (inclusive).
//	ValidTo     – end of the validity window (inclusive).
//	Active      – kill switch; inactive codes behave as unknown.
type Coupon struct {
	Code        string       `json:"code"`
	Description string       `json:"description,omitempty"`
	Type        DiscountType `json:"discount_type"`
	Value       int64        `json:"discount_value"`
	MinPurchase int64        `json:"min_purchase"`
	MaxUses     int          `json:"max_uses"`
	UsedCount   int          `json:"used_count"`
	ValidFrom   time.Time    `json:"valid_from"`
	ValidTo     time.Time    `json:"valid_to"`
	Active      bool         `json:"active"`
}

// Exhausted reports whether the coupon has no redemptions left.
func (c *Coupon) Exhausted() bool { return c.UsedCount >= c.MaxUses }

// InWindow reports whether the instant falls inside the validity window.
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}

// DiscountFor computes the discount this coupon grants on the amount,
// ignoring eligibility checks.  Percentage discounts round down.
func (c *Coupon) DiscountFor(amount int64) int64 {
	if c.Type == DiscountPercentage {
		return amount * c.Value / 100
	}
	return c.Value
}
