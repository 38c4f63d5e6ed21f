package econ

import (
	"sort"

	"github.com/shopspring/decimal"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// Finalize derives the immutable output row from the group's running sums.
// includeComponents selects which fee types emit a component breakdown.
//
// Two distinct missing-value policies apply and must not be conflated:
// undefined ratios (division by a null or zero denominator) resolve to
// null, while absent cost components contribute zero to the per-unit cost
// sum.
func (acc *GroupAccumulator) Finalize(includeComponents FeeTypeSet) EconomicsRow {
	parentAsin, child, fnsku, msku := resolveIdentifiers(acc.granularity, acc.parents, acc.granIdent)

	fees := acc.finalizeFees(includeComponents)
	ads := acc.finalizeAds()
	sales := acc.finalizeSales()
	cost := acc.finalizeCost()

	return EconomicsRow{
		MarketplaceID: acc.Key.MarketplaceID,
		StartDate:     acc.Key.Bucket.Start,
		EndDate:       acc.Key.Bucket.End,
		ParentAsin:    parentAsin,
		ChildAsin:     child,
		Fnsku:         fnsku,
		Msku:          msku,
		Sales:         sales,
		Fees:          fees,
		Ads:           ads,
		Cost:          cost,
		NetProceeds:   acc.finalizeNetProceeds(sales, fees, ads),
	}
}

// finalizeDetail computes the derived charge fields for one running sum.
// totalAmount = amount - promotionAmount + taxAmount, exact.
// amountPerUnit = totalAmount / quantity, null when quantity is null or zero.
func (acc *GroupAccumulator) finalizeDetail(d *detailAcc) AggregatedDetail {
	total := d.amount.Sub(d.promotion).Add(d.tax)

	detail := AggregatedDetail{
		Amount:          NewMoney(d.amount, acc.currency),
		PromotionAmount: NewMoney(d.promotion, acc.currency),
		TaxAmount:       NewMoney(d.tax, acc.currency),
		TotalAmount:     NewMoney(total, acc.currency),
	}
	if !d.quantityNull {
		qty := d.quantity
		detail.Quantity = &qty
		if qty != 0 {
			perUnit := NewMoney(total.Div(decimal.NewFromInt(qty)), acc.currency)
			detail.AmountPerUnit = &perUnit
		}
	}
	return detail
}

// finalizeFees emits the fee list in deterministic fee-type order.
// The list is never nil: a group without fee facts gets an empty list.
func (acc *GroupAccumulator) finalizeFees(includeComponents FeeTypeSet) []FeeDetail {
	feeTypes := acc.typeNames(v1.FactKindFee)
	fees := make([]FeeDetail, 0, len(feeTypes))
	for _, feeType := range feeTypes {
		fee := FeeDetail{
			FeeType: feeType,
			Charge:  acc.finalizeDetail(acc.details[typeKey{Kind: v1.FactKindFee, TypeName: feeType}]),
		}
		// A fee type with no natural component decomposition emits a nil
		// breakdown even when requested.
		if includeComponents.Requested(feeType) {
			fee.Components = acc.finalizeComponents(feeType)
		}
		fees = append(fees, fee)
	}
	return fees
}

func (acc *GroupAccumulator) finalizeComponents(feeType string) []FeeComponentDetail {
	byComponent := acc.components[feeType]
	if len(byComponent) == 0 {
		return nil
	}
	names := make([]string, 0, len(byComponent))
	for name := range byComponent {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]FeeComponentDetail, 0, len(names))
	for _, name := range names {
		out = append(out, FeeComponentDetail{
			ComponentName: name,
			Charge:        acc.finalizeDetail(byComponent[name]),
		})
	}
	return out
}

// finalizeAds emits the ad list in deterministic ad-type order, or nil when
// the group saw no ad facts.
func (acc *GroupAccumulator) finalizeAds() []AdDetail {
	adTypes := acc.typeNames(v1.FactKindAd)
	if len(adTypes) == 0 {
		return nil
	}
	ads := make([]AdDetail, 0, len(adTypes))
	for _, adType := range adTypes {
		ads = append(ads, AdDetail{
			AdType: adType,
			Charge: acc.finalizeDetail(acc.details[typeKey{Kind: v1.FactKindAd, TypeName: adType}]),
		})
	}
	return ads
}

func (acc *GroupAccumulator) typeNames(kind v1.FactKind) []string {
	var names []string
	for k := range acc.details {
		if k.Kind == kind {
			names = append(names, k.TypeName)
		}
	}
	sort.Strings(names)
	return names
}

func (acc *GroupAccumulator) finalizeSales() Sales {
	sales := Sales{
		OrderedProductSales:  NewMoney(acc.orderedSales, acc.currency),
		RefundedProductSales: NewMoney(acc.refundedSales, acc.currency),
		NetProductSales:      NewMoney(acc.orderedSales.Sub(acc.refundedSales), acc.currency),
		UnitsOrdered:         acc.unitsOrdered,
		UnitsRefunded:        acc.unitsRefunded,
		NetUnitsSold:         acc.unitsOrdered - acc.unitsRefunded,
	}
	if acc.unitsOrdered != 0 {
		asp := NewMoney(acc.orderedSales.Div(decimal.NewFromInt(acc.unitsOrdered)), acc.currency)
		sales.AverageSellingPrice = &asp
	}
	return sales
}

// finalizeCost passes the seller-provided cost record through unchanged.
// The whole block is nil when no cost record exists for the product.
func (acc *GroupAccumulator) finalizeCost() *Cost {
	rec := acc.cost
	if rec == nil {
		return nil
	}

	cost := &Cost{
		CostOfGoodsSold:    acc.nullableMoney(rec.CostOfGoodsSold),
		MiscellaneousCost:  acc.nullableMoney(rec.MiscellaneousCost),
		FulfillmentChannel: rec.FulfillmentChannel,
	}
	if rec.FbaShippingToAmazonCost.Valid {
		cost.FbaCost = &FbaCost{ShippingToAmazonCost: acc.nullableMoney(rec.FbaShippingToAmazonCost)}
	}
	if rec.MfnFulfillmentCost.Valid || rec.MfnStorageCost.Valid {
		cost.MfnCost = &MfnCost{
			FulfillmentCost: acc.nullableMoney(rec.MfnFulfillmentCost),
			StorageCost:     acc.nullableMoney(rec.MfnStorageCost),
		}
	}
	return cost
}

func (acc *GroupAccumulator) nullableMoney(d decimal.NullDecimal) *Money {
	if !d.Valid {
		return nil
	}
	m := NewMoney(d.Decimal, acc.currency)
	return &m
}

// finalizeNetProceeds computes the bottom line:
//
//	total = netProductSales - sum(fee totals) - sum(ad totals)
//	        - applicablePerUnitCost * netUnitsSold
//	perUnit = total / netUnitsSold, null when netUnitsSold is zero
func (acc *GroupAccumulator) finalizeNetProceeds(sales Sales, fees []FeeDetail, ads []AdDetail) NetProceeds {
	total := sales.NetProductSales.Amount
	for _, fee := range fees {
		total = total.Sub(fee.Charge.TotalAmount.Amount)
	}
	for _, ad := range ads {
		total = total.Sub(ad.Charge.TotalAmount.Amount)
	}

	netUnits := decimal.NewFromInt(sales.NetUnitsSold)
	total = total.Sub(acc.applicablePerUnitCost().Mul(netUnits))

	proceeds := NetProceeds{Total: NewMoney(total, acc.currency)}
	if sales.NetUnitsSold != 0 {
		perUnit := NewMoney(total.Div(netUnits), acc.currency)
		proceeds.PerUnit = &perUnit
	}
	return proceeds
}

// applicablePerUnitCost sums the cost components that apply to the
// product's fulfillment channel. Absent components contribute zero --
// costs are additive defaults-to-zero, unlike the quantity poisoning rule.
func (acc *GroupAccumulator) applicablePerUnitCost() decimal.Decimal {
	rec := acc.cost
	if rec == nil {
		return decimal.Zero
	}

	sum := zeroIfNull(rec.CostOfGoodsSold).Add(zeroIfNull(rec.MiscellaneousCost))
	if rec.FulfillmentChannel == v1.FulfillmentFBA {
		sum = sum.Add(zeroIfNull(rec.FbaShippingToAmazonCost))
	} else {
		sum = sum.Add(zeroIfNull(rec.MfnFulfillmentCost)).Add(zeroIfNull(rec.MfnStorageCost))
	}
	return sum
}

func zeroIfNull(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
