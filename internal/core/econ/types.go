package econ

import (
	"github.com/shopspring/decimal"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// DateGranularity controls how a query's date range is split into buckets.
type DateGranularity string

const (
	GranularityDay   DateGranularity = "DAY"
	GranularityWeek  DateGranularity = "WEEK"
	GranularityMonth DateGranularity = "MONTH"
	GranularityRange DateGranularity = "RANGE"
)

// ValidDateGranularity reports whether g is a recognized date granularity.
func ValidDateGranularity(g DateGranularity) bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityRange:
		return true
	}
	return false
}

// ProductGranularity controls which product identifier rows are grouped by.
type ProductGranularity string

const (
	GranularityChildAsin  ProductGranularity = "CHILD_ASIN"
	GranularityFnsku      ProductGranularity = "FNSKU"
	GranularityMsku       ProductGranularity = "MSKU"
	GranularityParentAsin ProductGranularity = "PARENT_ASIN"
)

// ValidProductGranularity reports whether g is a recognized product granularity.
func ValidProductGranularity(g ProductGranularity) bool {
	switch g {
	case GranularityChildAsin, GranularityFnsku, GranularityMsku, GranularityParentAsin:
		return true
	}
	return false
}

// Money is a monetary leaf on the wire: an exact amount plus the source
// currency code, passed through unmodified.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// NewMoney pairs an amount with a currency code.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, CurrencyCode: currency}
}

// DateBucket is one calendar-aligned closed interval [Start, End] produced
// by the date range normalizer. Buckets for one granularity partition the
// normalized range with no gaps or overlaps.
type DateBucket struct {
	Start       v1.Date         `json:"startDate"`
	End         v1.Date         `json:"endDate"`
	Granularity DateGranularity `json:"-"`
}

// Contains reports whether d falls inside the bucket.
func (b DateBucket) Contains(d v1.Date) bool {
	return !d.Before(b.Start.Time) && !d.After(b.End.Time)
}

// GroupKey identifies one accumulation group: a marketplace, a date bucket,
// and the product identifier value at the requested granularity.
// ProductID is empty when the contributing facts do not carry the
// requested identifier.
type GroupKey struct {
	MarketplaceID string
	Bucket        DateBucket
	ProductID     string
}

// AggregatedDetail is the finalized, read-only charge view for one
// (fact kind, type name) within a group.
type AggregatedDetail struct {
	Amount          Money  `json:"amount"`
	PromotionAmount Money  `json:"promotionAmount"`
	TaxAmount       Money  `json:"taxAmount"`
	TotalAmount     Money  `json:"totalAmount"`
	AmountPerUnit   *Money `json:"amountPerUnit"`
	Quantity        *int64 `json:"quantity"`
}

// FeeComponentDetail is one entry of a fee type's component breakdown.
type FeeComponentDetail struct {
	ComponentName string           `json:"componentName"`
	Charge        AggregatedDetail `json:"charge"`
}

// FeeDetail is the aggregated charge for one fee type. Components is nil
// unless the caller requested a breakdown for this fee type and the fee
// decomposes into components.
type FeeDetail struct {
	FeeType    string               `json:"feeType"`
	Charge     AggregatedDetail     `json:"charge"`
	Components []FeeComponentDetail `json:"components"`
}

// AdDetail is the aggregated charge for one advertising product type.
type AdDetail struct {
	AdType string           `json:"adType"`
	Charge AggregatedDetail `json:"charge"`
}

// Sales is the per-group sales block.
type Sales struct {
	OrderedProductSales  Money  `json:"orderedProductSales"`
	RefundedProductSales Money  `json:"refundedProductSales"`
	NetProductSales      Money  `json:"netProductSales"`
	UnitsOrdered         int64  `json:"unitsOrdered"`
	UnitsRefunded        int64  `json:"unitsRefunded"`
	NetUnitsSold         int64  `json:"netUnitsSold"`
	AverageSellingPrice  *Money `json:"averageSellingPrice"`
}

// FbaCost carries costs specific to Amazon-fulfilled products.
type FbaCost struct {
	ShippingToAmazonCost *Money `json:"shippingToAmazonCost"`
}

// MfnCost carries costs specific to merchant-fulfilled products.
type MfnCost struct {
	FulfillmentCost *Money `json:"fulfillmentCost"`
	StorageCost     *Money `json:"storageCost"`
}

// Cost is the per-group seller-provided unit cost block. The whole block is
// nil when no cost record exists for the product.
type Cost struct {
	CostOfGoodsSold    *Money                `json:"costOfGoodsSold"`
	MiscellaneousCost  *Money                `json:"miscellaneousCost"`
	FbaCost            *FbaCost              `json:"fbaCost"`
	MfnCost            *MfnCost              `json:"mfnCost"`
	FulfillmentChannel v1.FulfillmentChannel `json:"-"`
}

// NetProceeds is the derived bottom-line block.
type NetProceeds struct {
	Total   Money  `json:"total"`
	PerUnit *Money `json:"perUnit"`
}

// EconomicsRow is the output unit: one group's identity plus its finalized
// blocks. Rows are created once per group after all facts are folded in and
// are immutable thereafter.
type EconomicsRow struct {
	MarketplaceID string  `json:"marketplaceId"`
	StartDate     v1.Date `json:"startDate"`
	EndDate       v1.Date `json:"endDate"`

	ParentAsin string  `json:"parentAsin"`
	ChildAsin  *string `json:"childAsin"`
	Fnsku      *string `json:"fnsku"`
	Msku       *string `json:"msku"`

	Sales       Sales       `json:"sales"`
	Fees        []FeeDetail `json:"fees"`
	Ads         []AdDetail  `json:"ads"`
	Cost        *Cost       `json:"cost"`
	NetProceeds NetProceeds `json:"netProceeds"`
}
