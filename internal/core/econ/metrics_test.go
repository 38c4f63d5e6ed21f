package econ

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

func requireMoney(t *testing.T, want string, got Money) {
	t.Helper()
	require.True(t, got.Amount.Equal(decimal.RequireFromString(want)),
		"amount mismatch: want %s, got %s", want, got.Amount)
}

func TestFinalize_SalesBlock(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(&v1.Fact{
		Kind:                 v1.FactKindSale,
		Msku:                 "SKU-RED-L",
		ParentAsin:           "B00PARENT",
		CurrencyCode:         "USD",
		UnitsOrdered:         10,
		UnitsRefunded:        2,
		OrderedProductSales:  decimal.RequireFromString("100.00"),
		RefundedProductSales: decimal.RequireFromString("20.00"),
	})

	row := acc.Finalize(nil)

	requireMoney(t, "100.00", row.Sales.OrderedProductSales)
	requireMoney(t, "20.00", row.Sales.RefundedProductSales)
	requireMoney(t, "80.00", row.Sales.NetProductSales)
	require.EqualValues(t, 10, row.Sales.UnitsOrdered)
	require.EqualValues(t, 2, row.Sales.UnitsRefunded)
	require.EqualValues(t, 8, row.Sales.NetUnitsSold)
	require.NotNil(t, row.Sales.AverageSellingPrice)
	requireMoney(t, "10", *row.Sales.AverageSellingPrice)
}

func TestFinalize_AverageSellingPriceNullWithoutOrders(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(&v1.Fact{
		Kind:                 v1.FactKindSale,
		CurrencyCode:         "USD",
		UnitsRefunded:        1,
		RefundedProductSales: decimal.RequireFromString("9.99"),
	})

	row := acc.Finalize(nil)
	require.Nil(t, row.Sales.AverageSellingPrice)
	require.EqualValues(t, -1, row.Sales.NetUnitsSold)
}

func TestFinalize_FeeTotalsAndPerUnit(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(&v1.Fact{
		Kind:            v1.FactKindFee,
		TypeName:        "FBAFees",
		CurrencyCode:    "USD",
		Amount:          decimal.RequireFromString("5.00"),
		PromotionAmount: decimal.RequireFromString("1.00"),
		TaxAmount:       decimal.RequireFromString("0.50"),
	})

	row := acc.Finalize(nil)
	require.Len(t, row.Fees, 1)

	charge := row.Fees[0].Charge
	requireMoney(t, "5.00", charge.Amount)
	requireMoney(t, "1.00", charge.PromotionAmount)
	requireMoney(t, "0.50", charge.TaxAmount)
	requireMoney(t, "4.50", charge.TotalAmount)
	require.Nil(t, charge.Quantity, "null quantity must stay null")
	require.Nil(t, charge.AmountPerUnit, "per-unit is undefined without a quantity")
}

func TestFinalize_PerUnitNullForZeroQuantity(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(feeFact("ReferralFee", "", "4.50", qty(0)))

	row := acc.Finalize(nil)
	charge := row.Fees[0].Charge
	require.NotNil(t, charge.Quantity)
	require.EqualValues(t, 0, *charge.Quantity)
	require.Nil(t, charge.AmountPerUnit)
}

func TestFinalize_TotalAmountIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		acc := NewGroupAccumulator(testKey(), GranularityMsku)
		n := 1 + rng.Intn(5)
		for j := 0; j < n; j++ {
			acc.Fold(&v1.Fact{
				Kind:            v1.FactKindFee,
				TypeName:        "FBAFees",
				CurrencyCode:    "USD",
				Amount:          decimal.New(rng.Int63n(100000), -2),
				PromotionAmount: decimal.New(rng.Int63n(10000), -2),
				TaxAmount:       decimal.New(rng.Int63n(10000), -2),
				Quantity:        qty(rng.Int63n(20)),
			})
		}

		charge := acc.Finalize(nil).Fees[0].Charge
		want := charge.Amount.Amount.Sub(charge.PromotionAmount.Amount).Add(charge.TaxAmount.Amount)
		require.True(t, charge.TotalAmount.Amount.Equal(want),
			"totalAmount must equal amount - promotion + tax")
	}
}

func TestFinalize_FeesOrderedAndNeverNil(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	require.NotNil(t, acc.Finalize(nil).Fees)
	require.Empty(t, acc.Finalize(nil).Fees)

	acc.Fold(feeFact("ReferralFee", "", "1.00", qty(1)))
	acc.Fold(feeFact("FBAFees", "", "2.00", qty(1)))

	row := acc.Finalize(nil)
	require.Len(t, row.Fees, 2)
	require.Equal(t, "FBAFees", row.Fees[0].FeeType)
	require.Equal(t, "ReferralFee", row.Fees[1].FeeType)
}

func TestFinalize_ComponentsOnlyWhenRequested(t *testing.T) {
	fold := func() *GroupAccumulator {
		acc := NewGroupAccumulator(testKey(), GranularityMsku)
		acc.Fold(feeFact("FBAFees", "StorageFee", "1.50", qty(1)))
		acc.Fold(feeFact("FBAFees", "FulfillmentFee", "3.00", qty(1)))
		acc.Fold(feeFact("ReferralFee", "", "5.00", qty(1)))
		return acc
	}

	t.Run("not requested", func(t *testing.T) {
		row := fold().Finalize(nil)
		require.Nil(t, row.Fees[0].Components)
	})

	t.Run("requested with breakdown", func(t *testing.T) {
		row := fold().Finalize(NewFeeTypeSet([]string{"FBAFees"}))
		require.Len(t, row.Fees[0].Components, 2)
		require.Equal(t, "FulfillmentFee", row.Fees[0].Components[0].ComponentName)
		require.Equal(t, "StorageFee", row.Fees[0].Components[1].ComponentName)
		requireMoney(t, "3.00", row.Fees[0].Components[0].Charge.TotalAmount)
	})

	t.Run("requested but fee has no components", func(t *testing.T) {
		row := fold().Finalize(NewFeeTypeSet([]string{"ReferralFee"}))
		require.Equal(t, "ReferralFee", row.Fees[1].FeeType)
		require.Nil(t, row.Fees[1].Components)
	})
}

func TestFinalize_AdsNilWithoutAdFacts(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(feeFact("FBAFees", "", "1.00", qty(1)))
	require.Nil(t, acc.Finalize(nil).Ads)
}

func TestFinalize_CostBlock(t *testing.T) {
	t.Run("nil without a cost record", func(t *testing.T) {
		acc := NewGroupAccumulator(testKey(), GranularityMsku)
		require.Nil(t, acc.Finalize(nil).Cost)
	})

	t.Run("fba record omits mfn block", func(t *testing.T) {
		acc := NewGroupAccumulator(testKey(), GranularityMsku)
		acc.Fold(&v1.Fact{
			Kind:                    v1.FactKindCost,
			CurrencyCode:            "USD",
			CostOfGoodsSold:         decimal.NewNullDecimal(decimal.RequireFromString("3.00")),
			FbaShippingToAmazonCost: decimal.NewNullDecimal(decimal.RequireFromString("0.40")),
			FulfillmentChannel:      v1.FulfillmentFBA,
		})

		cost := acc.Finalize(nil).Cost
		require.NotNil(t, cost)
		require.NotNil(t, cost.CostOfGoodsSold)
		requireMoney(t, "3.00", *cost.CostOfGoodsSold)
		require.Nil(t, cost.MiscellaneousCost)
		require.NotNil(t, cost.FbaCost)
		requireMoney(t, "0.40", *cost.FbaCost.ShippingToAmazonCost)
		require.Nil(t, cost.MfnCost)
	})

	t.Run("mfn record omits fba block", func(t *testing.T) {
		acc := NewGroupAccumulator(testKey(), GranularityMsku)
		acc.Fold(&v1.Fact{
			Kind:               v1.FactKindCost,
			CurrencyCode:       "USD",
			MfnFulfillmentCost: decimal.NewNullDecimal(decimal.RequireFromString("1.10")),
			FulfillmentChannel: v1.FulfillmentMFN,
		})

		cost := acc.Finalize(nil).Cost
		require.NotNil(t, cost)
		require.Nil(t, cost.FbaCost)
		require.NotNil(t, cost.MfnCost)
		requireMoney(t, "1.10", *cost.MfnCost.FulfillmentCost)
		require.Nil(t, cost.MfnCost.StorageCost)
	})
}

func TestFinalize_NetProceeds(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(&v1.Fact{
		Kind:                 v1.FactKindSale,
		CurrencyCode:         "USD",
		UnitsOrdered:         10,
		UnitsRefunded:        2,
		OrderedProductSales:  decimal.RequireFromString("100.00"),
		RefundedProductSales: decimal.RequireFromString("20.00"),
	})
	acc.Fold(feeFact("ReferralFee", "", "12.00", qty(10)))
	acc.Fold(&v1.Fact{
		Kind:         v1.FactKindAd,
		TypeName:     "SponsoredProducts",
		CurrencyCode: "USD",
		Amount:       decimal.RequireFromString("4.00"),
		Quantity:     qty(3),
	})
	acc.Fold(&v1.Fact{
		Kind:                    v1.FactKindCost,
		CurrencyCode:            "USD",
		CostOfGoodsSold:         decimal.NewNullDecimal(decimal.RequireFromString("2.00")),
		MiscellaneousCost:       decimal.NewNullDecimal(decimal.RequireFromString("0.50")),
		FbaShippingToAmazonCost: decimal.NewNullDecimal(decimal.RequireFromString("0.25")),
		MfnFulfillmentCost:      decimal.NewNullDecimal(decimal.RequireFromString("9.99")),
		FulfillmentChannel:      v1.FulfillmentFBA,
	})

	row := acc.Finalize(nil)

	// 80.00 net sales - 12.00 fees - 4.00 ads - 2.75 per-unit cost * 8 net units.
	requireMoney(t, "42.00", row.NetProceeds.Total)
	require.NotNil(t, row.NetProceeds.PerUnit)
	requireMoney(t, "5.25", *row.NetProceeds.PerUnit)
}

func TestFinalize_NetProceedsPerUnitNullAtZeroNetUnits(t *testing.T) {
	acc := NewGroupAccumulator(testKey(), GranularityMsku)
	acc.Fold(&v1.Fact{
		Kind:                 v1.FactKindSale,
		CurrencyCode:         "USD",
		UnitsOrdered:         3,
		UnitsRefunded:        3,
		OrderedProductSales:  decimal.RequireFromString("30.00"),
		RefundedProductSales: decimal.RequireFromString("30.00"),
	})
	acc.Fold(feeFact("ReferralFee", "", "4.00", qty(3)))

	row := acc.Finalize(nil)
	requireMoney(t, "-4.00", row.NetProceeds.Total)
	require.Nil(t, row.NetProceeds.PerUnit)
}

func TestApplicablePerUnitCost_ChannelSelection(t *testing.T) {
	costFact := func(channel v1.FulfillmentChannel) *v1.Fact {
		return &v1.Fact{
			Kind:                    v1.FactKindCost,
			CostOfGoodsSold:         decimal.NewNullDecimal(decimal.RequireFromString("2.00")),
			FbaShippingToAmazonCost: decimal.NewNullDecimal(decimal.RequireFromString("0.30")),
			MfnFulfillmentCost:      decimal.NewNullDecimal(decimal.RequireFromString("1.00")),
			MfnStorageCost:          decimal.NewNullDecimal(decimal.RequireFromString("0.20")),
			FulfillmentChannel:      channel,
		}
	}

	fba := NewGroupAccumulator(testKey(), GranularityMsku)
	fba.Fold(costFact(v1.FulfillmentFBA))
	require.True(t, fba.applicablePerUnitCost().Equal(decimal.RequireFromString("2.30")))

	mfn := NewGroupAccumulator(testKey(), GranularityMsku)
	mfn.Fold(costFact(v1.FulfillmentMFN))
	require.True(t, mfn.applicablePerUnitCost().Equal(decimal.RequireFromString("3.20")))

	none := NewGroupAccumulator(testKey(), GranularityMsku)
	require.True(t, none.applicablePerUnitCost().IsZero())
}

func TestFeeTypeSet(t *testing.T) {
	require.Nil(t, NewFeeTypeSet(nil))
	require.Nil(t, NewFeeTypeSet([]string{}))
	require.False(t, FeeTypeSet(nil).Requested("FBAFees"))

	s := NewFeeTypeSet([]string{"FBAFees", "", "FBAFees"})
	require.True(t, s.Requested("FBAFees"))
	require.False(t, s.Requested("ReferralFee"))
}
