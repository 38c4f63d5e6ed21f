package postgres

import (
	"database/sql"
	"fmt"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// saveFactArgs flattens a fact into the querySaveFact argument list.
// Nullable fields map to SQL NULL through sql.Null* / decimal.NullDecimal.
func saveFactArgs(f *v1.Fact, ingestedAt interface{}) []interface{} {
	return []interface{}{
		f.ID,
		string(f.Kind),
		f.MarketplaceID,
		f.Date.Time,
		nullString(f.ParentAsin),
		nullString(f.ChildAsin),
		nullString(f.Fnsku),
		nullString(f.Msku),
		nullString(f.TypeName),
		nullString(f.ComponentName),
		nullString(f.CurrencyCode),
		f.Amount,
		f.PromotionAmount,
		f.TaxAmount,
		nullInt64(f.Quantity),
		f.UnitsOrdered,
		f.UnitsRefunded,
		f.OrderedProductSales,
		f.RefundedProductSales,
		f.CostOfGoodsSold,
		f.MiscellaneousCost,
		f.FbaShippingToAmazonCost,
		f.MfnFulfillmentCost,
		f.MfnStorageCost,
		nullString(string(f.FulfillmentChannel)),
		ingestedAt,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFactRow scans a database row into a Fact struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanFactRow(row scanner) (*v1.Fact, error) {
	var (
		fact       v1.Fact
		kind       string
		occurredOn sql.NullTime
		parentAsin sql.NullString
		childAsin  sql.NullString
		fnsku      sql.NullString
		msku       sql.NullString
		typeName   sql.NullString
		component  sql.NullString
		currency   sql.NullString
		quantity   sql.NullInt64
		channel    sql.NullString
	)

	err := row.Scan(
		&fact.ID,
		&kind,
		&fact.MarketplaceID,
		&occurredOn,
		&parentAsin,
		&childAsin,
		&fnsku,
		&msku,
		&typeName,
		&component,
		&currency,
		&fact.Amount,
		&fact.PromotionAmount,
		&fact.TaxAmount,
		&quantity,
		&fact.UnitsOrdered,
		&fact.UnitsRefunded,
		&fact.OrderedProductSales,
		&fact.RefundedProductSales,
		&fact.CostOfGoodsSold,
		&fact.MiscellaneousCost,
		&fact.FbaShippingToAmazonCost,
		&fact.MfnFulfillmentCost,
		&fact.MfnStorageCost,
		&channel,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan fact row: %w", err)
	}

	fact.Kind = v1.FactKind(kind)
	if occurredOn.Valid {
		fact.Date = v1.DateOf(occurredOn.Time)
	}
	fact.ParentAsin = parentAsin.String
	fact.ChildAsin = childAsin.String
	fact.Fnsku = fnsku.String
	fact.Msku = msku.String
	fact.TypeName = typeName.String
	fact.ComponentName = component.String
	fact.CurrencyCode = currency.String
	if quantity.Valid {
		q := quantity.Int64
		fact.Quantity = &q
	}
	fact.FulfillmentChannel = v1.FulfillmentChannel(channel.String)

	return &fact, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
