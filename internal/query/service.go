package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/profitlens/profitlens/internal/core/econ"
	"github.com/profitlens/profitlens/internal/core/marketplace"
	"github.com/profitlens/profitlens/internal/core/storage"
	"github.com/profitlens/profitlens/internal/engine"
	"github.com/profitlens/profitlens/internal/metrics"
)

var (
	// ErrInvalidMarketplace marks requests naming no recognized marketplace.
	ErrInvalidMarketplace = errors.New("invalid marketplace selection")

	// ErrUnsupportedAggregation marks unrecognized aggregation enums.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")
)

// Service implements the query layer: it validates and defaults the
// request, materializes the fact batch, runs the aggregation pipeline, and
// attaches retention metadata to the assembled row set.
type Service struct {
	store       storage.FactStore
	catalog     *marketplace.Catalog
	queryMx     *metrics.QueryMetrics
	workerCount int
	nowFn       func() time.Time
}

// NewService creates a new query service.
func NewService(store storage.FactStore, catalog *marketplace.Catalog, queryMx *metrics.QueryMetrics, workerCount int) *Service {
	if store == nil {
		panic("query: fact store must not be nil")
	}
	if catalog == nil {
		panic("query: marketplace catalog must not be nil")
	}
	return &Service{
		store:       store,
		catalog:     catalog,
		queryMx:     queryMx,
		workerCount: workerCount,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Query runs one economics query end to end. Validation failures surface
// before any aggregation work; no partial rows accompany an error.
func (s *Service) Query(ctx context.Context, req EconomicsQueryRequest) (*EconomicsQueryResponse, error) {
	started := s.nowFn()

	resp, err := s.query(ctx, req)
	switch {
	case err == nil:
		s.queryMx.IncOutcome("ok")
	case errors.Is(err, econ.ErrInvalidRange),
		errors.Is(err, ErrInvalidMarketplace),
		errors.Is(err, ErrUnsupportedAggregation):
		s.queryMx.IncOutcome("invalid")
	default:
		s.queryMx.IncOutcome("error")
	}
	if resp != nil {
		s.queryMx.ObserveQuery(string(resp.DateGranularity), string(resp.ProductGranularity), s.nowFn().Sub(started))
	}
	return resp, err
}

func (s *Service) query(ctx context.Context, req EconomicsQueryRequest) (*EconomicsQueryResponse, error) {
	dateGranularity, productGranularity, err := resolveAggregateBy(req.AggregateBy)
	if err != nil {
		return nil, err
	}

	if len(req.MarketplaceIDs) == 0 {
		return nil, fmt.Errorf("%w: marketplaceIds must not be empty", ErrInvalidMarketplace)
	}
	known, unknown := s.catalog.FilterKnown(req.MarketplaceIDs)
	if len(known) == 0 {
		return nil, fmt.Errorf("%w: no recognized marketplace in %v", ErrInvalidMarketplace, req.MarketplaceIDs)
	}
	if len(unknown) > 0 {
		slog.Debug("[Query] Ignoring unrecognized marketplaces", "unknown", unknown)
	}

	buckets, err := econ.NormalizeDateRange(req.StartDate, req.EndDate, dateGranularity, s.nowFn())
	if err != nil {
		return nil, err
	}

	normalizedStart := buckets[0].Start
	normalizedEnd := buckets[len(buckets)-1].End

	facts, err := s.store.RetrieveFacts(ctx, known, normalizedStart.Time, normalizedEnd.Time)
	if err != nil {
		return nil, fmt.Errorf("materialize facts: %w", err)
	}
	s.queryMx.AddFactsRead(len(facts))

	includeComponents := econ.NewFeeTypeSet(req.IncludeComponentsForFeeTypes)
	rows, err := engine.Run(ctx, facts, engine.Params{
		Buckets:            buckets,
		ProductGranularity: productGranularity,
		MarketplaceIDs:     known,
		IncludeComponents:  includeComponents,
		WorkerCount:        s.workerCount,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate facts: %w", err)
	}
	s.queryMx.AddRowsServed(len(rows))

	retention, err := econ.ResolveRetention(touchedFieldPaths(rows, includeComponents))
	if err != nil {
		return nil, fmt.Errorf("resolve retention: %w", err)
	}

	return &EconomicsQueryResponse{
		StartDate:          normalizedStart,
		EndDate:            normalizedEnd,
		DateGranularity:    dateGranularity,
		ProductGranularity: productGranularity,
		MarketplaceIDs:     known,
		Rows:               rows,
		Retention:          retention,
	}, nil
}

// resolveAggregateBy applies the DAY / MSKU defaults and rejects
// unrecognized enum values.
func resolveAggregateBy(by *AggregateBy) (econ.DateGranularity, econ.ProductGranularity, error) {
	dateGranularity := econ.GranularityDay
	productGranularity := econ.GranularityMsku
	if by != nil {
		if by.Date != "" {
			dateGranularity = by.Date
		}
		if by.ProductID != "" {
			productGranularity = by.ProductID
		}
	}
	if !econ.ValidDateGranularity(dateGranularity) {
		return "", "", fmt.Errorf("%w: unrecognized date granularity %q", ErrUnsupportedAggregation, dateGranularity)
	}
	if !econ.ValidProductGranularity(productGranularity) {
		return "", "", fmt.Errorf("%w: unrecognized product granularity %q", ErrUnsupportedAggregation, productGranularity)
	}
	return dateGranularity, productGranularity, nil
}

// touchedFieldPaths derives the field paths the response shape actually
// touches. The required blocks are always present; optional blocks count
// only when some row carries them.
func touchedFieldPaths(rows []econ.EconomicsRow, includeComponents econ.FeeTypeSet) []string {
	paths := []string{"sales", "fees", "netProceeds"}
	if len(includeComponents) > 0 {
		paths = append(paths, "fees.components")
	}
	for _, row := range rows {
		if row.Ads != nil {
			paths = append(paths, "ads")
			break
		}
	}
	for _, row := range rows {
		if row.Cost != nil {
			paths = append(paths, "cost")
			break
		}
	}
	return paths
}
