package postgres

// SQL queries for fact storage operations.

const (
	// querySaveFact inserts one fact, keyed by the source-provided id for
	// idempotency. ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows)
	// for duplicates.
	querySaveFact = `
		INSERT INTO facts (
			id, kind, marketplace_id, occurred_on,
			parent_asin, child_asin, fnsku, msku,
			type_name, component_name, currency_code,
			amount, promotion_amount, tax_amount, quantity,
			units_ordered, units_refunded,
			ordered_product_sales, refunded_product_sales,
			cost_of_goods_sold, miscellaneous_cost,
			fba_shipping_to_amazon_cost, mfn_fulfillment_cost, mfn_storage_cost,
			fulfillment_channel, ingested_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		ON CONFLICT (id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryRetrieveFacts materializes the fact batch for one query scope.
	// Ordered by ingest_seq so repeated materialization of the same data
	// yields the same fold order.
	queryRetrieveFacts = `
		SELECT
			id, kind, marketplace_id, occurred_on,
			parent_asin, child_asin, fnsku, msku,
			type_name, component_name, currency_code,
			amount, promotion_amount, tax_amount, quantity,
			units_ordered, units_refunded,
			ordered_product_sales, refunded_product_sales,
			cost_of_goods_sold, miscellaneous_cost,
			fba_shipping_to_amazon_cost, mfn_fulfillment_cost, mfn_storage_cost,
			fulfillment_channel
		FROM facts
		WHERE marketplace_id = ANY($1)
		  AND occurred_on >= $2
		  AND occurred_on <= $3
		ORDER BY ingest_seq ASC
	`
)
