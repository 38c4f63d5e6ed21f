package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

func TestAdapter_SaveFacts(t *testing.T) {
	fact := func(id string) *v1.Fact {
		return &v1.Fact{
			ID:            id,
			Kind:          v1.FactKindFee,
			MarketplaceID: "ATVPDKIKX0DER",
			Date:          v1.NewDate(2024, 3, 12),
			ParentAsin:    "B00PARENT",
			Msku:          "SKU-RED-L",
			TypeName:      "ReferralFee",
			CurrencyCode:  "USD",
			Amount:        decimal.RequireFromString("5.00"),
		}
	}

	saveArgs := func(id string) []driver.Value {
		args := make([]driver.Value, 26)
		args[0] = id
		args[1] = "fee"
		args[2] = "ATVPDKIKX0DER"
		for i := 3; i < 26; i++ {
			args[i] = sqlmock.AnyArg()
		}
		return args
	}

	t.Run("batch commits once", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectPrepare(regexp.QuoteMeta(querySaveFact))
		mock.ExpectQuery(regexp.QuoteMeta(querySaveFact)).
			WithArgs(saveArgs("fact-1")...).
			WillReturnRows(sqlmock.NewRows([]string{"ingest_seq"}).AddRow(int64(1)))
		mock.ExpectQuery(regexp.QuoteMeta(querySaveFact)).
			WithArgs(saveArgs("fact-2")...).
			WillReturnRows(sqlmock.NewRows([]string{"ingest_seq"}).AddRow(int64(2)))
		mock.ExpectCommit()

		err := adapter.SaveFacts(context.Background(), []*v1.Fact{fact("fact-1"), fact("fact-2")})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicates are skipped, batch still commits", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectPrepare(regexp.QuoteMeta(querySaveFact))
		mock.ExpectQuery(regexp.QuoteMeta(querySaveFact)).
			WithArgs(saveArgs("fact-dup")...).
			WillReturnRows(sqlmock.NewRows([]string{"ingest_seq"}))
		mock.ExpectQuery(regexp.QuoteMeta(querySaveFact)).
			WithArgs(saveArgs("fact-new")...).
			WillReturnRows(sqlmock.NewRows([]string{"ingest_seq"}).AddRow(int64(7)))
		mock.ExpectCommit()

		err := adapter.SaveFacts(context.Background(), []*v1.Fact{fact("fact-dup"), fact("fact-new")})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls the batch back", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		insertErr := errors.New("constraint violation")

		mock.ExpectBegin()
		mock.ExpectPrepare(regexp.QuoteMeta(querySaveFact))
		mock.ExpectQuery(regexp.QuoteMeta(querySaveFact)).
			WithArgs(saveArgs("fact-bad")...).
			WillReturnError(insertErr)
		mock.ExpectRollback()

		err := adapter.SaveFacts(context.Background(), []*v1.Fact{fact("fact-bad")})
		require.Error(t, err)
		require.ErrorIs(t, err, insertErr)
		require.ErrorContains(t, err, "fact-bad")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		require.NoError(t, adapter.SaveFacts(context.Background(), nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_RetrieveFacts(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	marketplaces := []string{"ATVPDKIKX0DER", "A2EUQ1WTGCTBG2"}

	mock.ExpectQuery(regexp.QuoteMeta(queryRetrieveFacts)).
		WithArgs(pq.Array(marketplaces), start, end).
		WillReturnRows(sqlmock.NewRows(factRowColumns()).
			AddRow(
				"fact-1", "sale", "ATVPDKIKX0DER", start.AddDate(0, 0, 2),
				"B00PARENT", nil, nil, "SKU-RED-L",
				nil, nil, "USD",
				"0", "0", "0", nil,
				int64(10), int64(2),
				"100.00", "20.00",
				nil, nil, nil, nil, nil,
				nil,
			).
			AddRow(
				"fact-2", "fee", "ATVPDKIKX0DER", start.AddDate(0, 0, 2),
				"B00PARENT", nil, nil, "SKU-RED-L",
				"ReferralFee", nil, "USD",
				"15.00", "0", "0", int64(10),
				int64(0), int64(0),
				"0", "0",
				nil, nil, nil, nil, nil,
				nil,
			).
			AddRow(
				"fact-3", "cost", "ATVPDKIKX0DER", start.AddDate(0, 0, 3),
				nil, nil, nil, "SKU-RED-L",
				nil, nil, "USD",
				"0", "0", "0", nil,
				int64(0), int64(0),
				"0", "0",
				"2.00", nil, "0.25", nil, nil,
				"FBA",
			),
		).RowsWillBeClosed()

	facts, err := adapter.RetrieveFacts(context.Background(), marketplaces, start, end)
	require.NoError(t, err)
	require.Len(t, facts, 3)

	require.Equal(t, "fact-1", facts[0].ID)
	require.Equal(t, v1.FactKindSale, facts[0].Kind)
	require.Equal(t, v1.NewDate(2024, 3, 12), facts[0].Date)
	require.Equal(t, "SKU-RED-L", facts[0].Msku)
	require.Empty(t, facts[0].ChildAsin)
	require.Nil(t, facts[0].Quantity)
	require.EqualValues(t, 10, facts[0].UnitsOrdered)
	require.True(t, facts[0].OrderedProductSales.Equal(decimal.RequireFromString("100.00")))

	require.Equal(t, v1.FactKindFee, facts[1].Kind)
	require.Equal(t, "ReferralFee", facts[1].TypeName)
	require.NotNil(t, facts[1].Quantity)
	require.EqualValues(t, 10, *facts[1].Quantity)

	require.Equal(t, v1.FactKindCost, facts[2].Kind)
	require.True(t, facts[2].CostOfGoodsSold.Valid)
	require.True(t, facts[2].CostOfGoodsSold.Decimal.Equal(decimal.RequireFromString("2.00")))
	require.False(t, facts[2].MiscellaneousCost.Valid)
	require.Equal(t, v1.FulfillmentFBA, facts[2].FulfillmentChannel)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_RetrieveFacts_QueryError(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	queryErr := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(queryRetrieveFacts)).
		WillReturnError(queryErr)

	_, err := adapter.RetrieveFacts(
		context.Background(),
		[]string{"ATVPDKIKX0DER"},
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
	)
	require.ErrorIs(t, err, queryErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	mock.ExpectPrepare(regexp.QuoteMeta(querySaveFact)).WillBeClosed()
	stmtSave, err := db.Prepare(querySaveFact)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryRetrieveFacts)).WillBeClosed()
	stmtRetrieve, err := db.Prepare(queryRetrieveFacts)
	require.NoError(t, err)

	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{
		db:                db,
		stmtSaveFact:      stmtSave,
		stmtRetrieveFacts: stmtRetrieve,
	}

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:                db,
		stmtSaveFact:      mustPrepareStmt(t, db, mock, querySaveFact),
		stmtRetrieveFacts: mustPrepareStmt(t, db, mock, queryRetrieveFacts),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func factRowColumns() []string {
	return []string{
		"id", "kind", "marketplace_id", "occurred_on",
		"parent_asin", "child_asin", "fnsku", "msku",
		"type_name", "component_name", "currency_code",
		"amount", "promotion_amount", "tax_amount", "quantity",
		"units_ordered", "units_refunded",
		"ordered_product_sales", "refunded_product_sales",
		"cost_of_goods_sold", "miscellaneous_cost",
		"fba_shipping_to_amazon_cost", "mfn_fulfillment_cost", "mfn_storage_cost",
		"fulfillment_channel",
	}
}
