package v1

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FactKind identifies which family of financial event a Fact carries.
type FactKind string

const (
	FactKindSale FactKind = "sale"
	FactKindFee  FactKind = "fee"
	FactKindAd   FactKind = "ad"
	FactKindCost FactKind = "cost"
)

// ValidFactKind reports whether k is a recognized fact kind.
func ValidFactKind(k FactKind) bool {
	switch k {
	case FactKindSale, FactKindFee, FactKindAd, FactKindCost:
		return true
	}
	return false
}

// FulfillmentChannel describes who fulfills orders for a product.
// It selects which cost components count toward per-unit net proceeds.
type FulfillmentChannel string

const (
	FulfillmentFBA FulfillmentChannel = "FBA"
	FulfillmentMFN FulfillmentChannel = "MFN"
)

// Fact is the atomic unit of the system: one immutable financial or sales
// event supplied by the upstream data source. The engine never mutates a
// Fact; it only folds its values into group accumulators.
//
// Which value fields are meaningful depends on Kind:
//
//	sale  — UnitsOrdered, UnitsRefunded, OrderedProductSales, RefundedProductSales
//	fee   — TypeName (fee type), optional ComponentName, Amount,
//	        PromotionAmount, TaxAmount, Quantity
//	ad    — TypeName (ad type), Amount, PromotionAmount, TaxAmount, Quantity
//	cost  — seller-provided per-unit costs plus FulfillmentChannel
type Fact struct {
	// ID is the unique immutable identifier provided by the source.
	ID string `json:"id"`

	Kind FactKind `json:"kind"`

	// MarketplaceID is the marketplace the event occurred in.
	MarketplaceID string `json:"marketplace_id"`

	// Date is the occurrence date in marketplace-local terms.
	Date Date `json:"date"`

	// Product identifiers. Any may be absent (empty string).
	ParentAsin string `json:"parent_asin,omitempty"`
	ChildAsin  string `json:"child_asin,omitempty"`
	Fnsku      string `json:"fnsku,omitempty"`
	Msku       string `json:"msku,omitempty"`

	// TypeName is the fee type for fee facts and ad type for ad facts.
	TypeName string `json:"type_name,omitempty"`

	// ComponentName is the fee component for fee facts that decompose
	// into components. Empty for fees without a component breakdown.
	ComponentName string `json:"component_name,omitempty"`

	// CurrencyCode is passed through unmodified; no conversion happens here.
	CurrencyCode string `json:"currency_code,omitempty"`

	// Charge values (fee and ad facts).
	Amount          decimal.Decimal `json:"amount"`
	PromotionAmount decimal.Decimal `json:"promotion_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`

	// Quantity is nullable: nil means "not charged per unit". A nil
	// quantity poisons the group's summed quantity.
	Quantity *int64 `json:"quantity,omitempty"`

	// Sales counters (sale facts).
	UnitsOrdered         int64           `json:"units_ordered,omitempty"`
	UnitsRefunded        int64           `json:"units_refunded,omitempty"`
	OrderedProductSales  decimal.Decimal `json:"ordered_product_sales"`
	RefundedProductSales decimal.Decimal `json:"refunded_product_sales"`

	// Seller-provided per-unit costs (cost facts). Each component is
	// individually optional; a missing component contributes zero.
	CostOfGoodsSold         decimal.NullDecimal `json:"cost_of_goods_sold"`
	MiscellaneousCost       decimal.NullDecimal `json:"miscellaneous_cost"`
	FbaShippingToAmazonCost decimal.NullDecimal `json:"fba_shipping_to_amazon_cost"`
	MfnFulfillmentCost      decimal.NullDecimal `json:"mfn_fulfillment_cost"`
	MfnStorageCost          decimal.NullDecimal `json:"mfn_storage_cost"`

	FulfillmentChannel FulfillmentChannel `json:"fulfillment_channel,omitempty"`
}

// Validate ensures the fact has all required attributes for its kind.
func (f *Fact) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !ValidFactKind(f.Kind) {
		return fmt.Errorf("unrecognized fact kind %q", f.Kind)
	}
	if f.MarketplaceID == "" {
		return fmt.Errorf("marketplace_id is required")
	}
	if f.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	switch f.Kind {
	case FactKindFee, FactKindAd:
		if f.TypeName == "" {
			return fmt.Errorf("type_name is required for %s facts", f.Kind)
		}
		if f.CurrencyCode == "" {
			return fmt.Errorf("currency_code is required for %s facts", f.Kind)
		}
	case FactKindSale:
		if f.CurrencyCode == "" {
			return fmt.Errorf("currency_code is required for sale facts")
		}
		if f.UnitsOrdered < 0 || f.UnitsRefunded < 0 {
			return fmt.Errorf("sales unit counters must be non-negative")
		}
	case FactKindCost:
		if f.FulfillmentChannel != "" &&
			f.FulfillmentChannel != FulfillmentFBA &&
			f.FulfillmentChannel != FulfillmentMFN {
			return fmt.Errorf("unrecognized fulfillment channel %q", f.FulfillmentChannel)
		}
	}
	if f.Quantity != nil && *f.Quantity < 0 {
		return fmt.Errorf("quantity must be non-negative")
	}
	return nil
}
