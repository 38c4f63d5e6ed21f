package econ

import (
	"github.com/shopspring/decimal"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// typeKey distinguishes running sums inside one group: fee charges by fee
// type, ad charges by ad type.
type typeKey struct {
	Kind     v1.FactKind
	TypeName string
}

// detailAcc holds the running sums for one (fact kind, type name).
// Monetary sums are plain additions. Quantity is null-poisoning: one
// contributing fact without a quantity forces the whole sum to null,
// reflecting "not charged per unit".
type detailAcc struct {
	amount    decimal.Decimal
	promotion decimal.Decimal
	tax       decimal.Decimal

	quantity     int64
	quantityNull bool
}

func (a *detailAcc) fold(f *v1.Fact) {
	a.amount = a.amount.Add(f.Amount)
	a.promotion = a.promotion.Add(f.PromotionAmount)
	a.tax = a.tax.Add(f.TaxAmount)
	if f.Quantity == nil {
		a.quantityNull = true
	} else {
		a.quantity += *f.Quantity
	}
}

func (a *detailAcc) merge(other *detailAcc) {
	a.amount = a.amount.Add(other.amount)
	a.promotion = a.promotion.Add(other.promotion)
	a.tax = a.tax.Add(other.tax)
	a.quantity += other.quantity
	a.quantityNull = a.quantityNull || other.quantityNull
}

// GroupAccumulator is the accumulation unit for one
// (marketplace, date bucket, product key). Facts are folded in one at a
// time; Finalize derives the immutable output row.
type GroupAccumulator struct {
	Key GroupKey

	granularity ProductGranularity
	currency    string

	parents   identitySet
	granIdent identitySet

	details    map[typeKey]*detailAcc
	components map[string]map[string]*detailAcc

	unitsOrdered  int64
	unitsRefunded int64
	orderedSales  decimal.Decimal
	refundedSales decimal.Decimal

	// cost is the pass-through cost record. At most one is expected per
	// product; the first folded record wins.
	cost *v1.Fact
}

// NewGroupAccumulator creates an empty accumulator for one group.
func NewGroupAccumulator(key GroupKey, g ProductGranularity) *GroupAccumulator {
	return &GroupAccumulator{
		Key:         key,
		granularity: g,
		details:     make(map[typeKey]*detailAcc),
		components:  make(map[string]map[string]*detailAcc),
	}
}

// Fold adds one fact's values to the group's running sums. The fact must
// already be assigned to this group's bucket and key by the caller.
func (acc *GroupAccumulator) Fold(f *v1.Fact) {
	acc.parents.add(f.ParentAsin)
	acc.granIdent.add(ProductIDForGranularity(f, acc.granularity))
	if acc.currency == "" {
		acc.currency = f.CurrencyCode
	}

	switch f.Kind {
	case v1.FactKindSale:
		acc.unitsOrdered += f.UnitsOrdered
		acc.unitsRefunded += f.UnitsRefunded
		acc.orderedSales = acc.orderedSales.Add(f.OrderedProductSales)
		acc.refundedSales = acc.refundedSales.Add(f.RefundedProductSales)

	case v1.FactKindFee:
		acc.detail(typeKey{Kind: v1.FactKindFee, TypeName: f.TypeName}).fold(f)
		if f.ComponentName != "" {
			byComponent, ok := acc.components[f.TypeName]
			if !ok {
				byComponent = make(map[string]*detailAcc)
				acc.components[f.TypeName] = byComponent
			}
			comp, ok := byComponent[f.ComponentName]
			if !ok {
				comp = &detailAcc{}
				byComponent[f.ComponentName] = comp
			}
			comp.fold(f)
		}

	case v1.FactKindAd:
		acc.detail(typeKey{Kind: v1.FactKindAd, TypeName: f.TypeName}).fold(f)

	case v1.FactKindCost:
		if acc.cost == nil {
			acc.cost = f
		}
	}
}

func (acc *GroupAccumulator) detail(k typeKey) *detailAcc {
	d, ok := acc.details[k]
	if !ok {
		d = &detailAcc{}
		acc.details[k] = d
	}
	return d
}

// Merge folds another accumulator for the same group key into acc.
// Merging is associative and commutative for every field except the
// cost record and currency, where the receiver wins when both are set.
func (acc *GroupAccumulator) Merge(other *GroupAccumulator) {
	for v := range other.parents.values {
		acc.parents.add(v)
	}
	for v := range other.granIdent.values {
		acc.granIdent.add(v)
	}
	if acc.currency == "" {
		acc.currency = other.currency
	}

	for k, d := range other.details {
		acc.detail(k).merge(d)
	}
	for feeType, byComponent := range other.components {
		target, ok := acc.components[feeType]
		if !ok {
			target = make(map[string]*detailAcc)
			acc.components[feeType] = target
		}
		for name, d := range byComponent {
			existing, ok := target[name]
			if !ok {
				existing = &detailAcc{}
				target[name] = existing
			}
			existing.merge(d)
		}
	}

	acc.unitsOrdered += other.unitsOrdered
	acc.unitsRefunded += other.unitsRefunded
	acc.orderedSales = acc.orderedSales.Add(other.orderedSales)
	acc.refundedSales = acc.refundedSales.Add(other.refundedSales)

	if acc.cost == nil {
		acc.cost = other.cost
	}
}
