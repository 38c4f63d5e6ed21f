package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
	"github.com/profitlens/profitlens/internal/core/econ"
	"github.com/profitlens/profitlens/internal/core/partition"
)

const defaultWorkerCount = 8

// Params describes one aggregation run over a materialized fact batch.
type Params struct {
	// Buckets is the ordered, non-overlapping bucket sequence produced by
	// the date range normalizer.
	Buckets []econ.DateBucket

	// ProductGranularity selects the grouping identifier.
	ProductGranularity econ.ProductGranularity

	// MarketplaceIDs is the recognized subset of the caller's requested
	// marketplaces. Facts outside it are silently dropped.
	MarketplaceIDs []string

	// IncludeComponents selects which fee types emit component breakdowns.
	IncludeComponents econ.FeeTypeSet

	// WorkerCount bounds fold/finalize parallelism. Zero means default.
	WorkerCount int
}

func (p Params) workerCount() int {
	if p.WorkerCount <= 0 {
		return defaultWorkerCount
	}
	return p.WorkerCount
}

// Run executes the single-pass aggregation pipeline: a pure fact-to-group
// assignment, a partition-parallel fold, a barrier, then partition-parallel
// finalization of each group into an immutable row.
//
// Cancellation is checked between partitions and between groups, never
// mid-fold of a single accumulator, so no partially-summed group can leak
// into the output.
func Run(ctx context.Context, facts []*v1.Fact, params Params) ([]econ.EconomicsRow, error) {
	shards, dropped := shardFacts(facts, params)
	if dropped > 0 {
		slog.Debug("[Engine] Dropped facts outside query scope",
			"dropped", dropped,
			"total", len(facts),
		)
	}

	groups, err := foldShards(ctx, shards, params)
	if err != nil {
		return nil, err
	}

	return finalizeGroups(ctx, groups, params)
}

// assignment is one fact mapped to its partition and group key.
// The mapping is pure: no shared grouping table is touched here.
type assignment struct {
	fact *v1.Fact
	key  econ.GroupKey
}

// shardFacts maps each fact to its (bucket, product key) group and shards
// the assignments by partition. Facts outside the marketplace set or the
// bucket sequence are excluded, mirroring selected-period filtering; this
// is a data gap, not an error.
func shardFacts(facts []*v1.Fact, params Params) ([][]assignment, int) {
	requested := make(map[string]struct{}, len(params.MarketplaceIDs))
	for _, id := range params.MarketplaceIDs {
		requested[id] = struct{}{}
	}

	shards := make([][]assignment, partition.Count)
	dropped := 0
	for _, fact := range facts {
		if _, ok := requested[fact.MarketplaceID]; !ok {
			dropped++
			continue
		}
		bucket, ok := bucketFor(params.Buckets, fact.Date)
		if !ok {
			dropped++
			continue
		}

		key := econ.GroupKey{
			MarketplaceID: fact.MarketplaceID,
			Bucket:        bucket,
			ProductID:     econ.ProductIDForGranularity(fact, params.ProductGranularity),
		}
		p := partition.For(groupID(key))
		shards[p] = append(shards[p], assignment{fact: fact, key: key})
	}
	return shards, dropped
}

// bucketFor locates the bucket containing d. Buckets are ordered and
// non-overlapping, so a binary search on the bucket end suffices.
func bucketFor(buckets []econ.DateBucket, d v1.Date) (econ.DateBucket, bool) {
	i := sort.Search(len(buckets), func(i int) bool {
		return !buckets[i].End.Before(d.Time)
	})
	if i < len(buckets) && buckets[i].Contains(d) {
		return buckets[i], true
	}
	return econ.DateBucket{}, false
}

func groupID(key econ.GroupKey) string {
	return key.MarketplaceID + "|" + key.Bucket.Start.String() + "|" + key.ProductID
}

// foldShards folds every partition shard into group accumulators.
// A group lives entirely inside one partition, so workers share nothing;
// their local maps are merged after the barrier.
func foldShards(ctx context.Context, shards [][]assignment, params Params) (map[econ.GroupKey]*econ.GroupAccumulator, error) {
	work := make(chan []assignment, len(shards))
	for _, shard := range shards {
		if len(shard) > 0 {
			work <- shard
		}
	}
	close(work)

	workers := params.workerCount()
	locals := make([]map[econ.GroupKey]*econ.GroupAccumulator, workers)

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		local := make(map[econ.GroupKey]*econ.GroupAccumulator)
		locals[i] = local
		g.Go(func() error {
			for shard := range work {
				// Cancellation point: between partitions only, so no
				// accumulator is ever left partially summed.
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				for _, a := range shard {
					acc, ok := local[a.key]
					if !ok {
						acc = econ.NewGroupAccumulator(a.key, params.ProductGranularity)
						local[a.key] = acc
					}
					acc.Fold(a.fact)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fold facts: %w", err)
	}

	merged := make(map[econ.GroupKey]*econ.GroupAccumulator)
	for _, local := range locals {
		for key, acc := range local {
			if existing, ok := merged[key]; ok {
				existing.Merge(acc)
				continue
			}
			merged[key] = acc
		}
	}
	return merged, nil
}

// finalizeGroups derives the output rows, partition-parallel per group, and
// emits them in a stable deterministic order: bucket start, then
// marketplace, then product key.
func finalizeGroups(ctx context.Context, groups map[econ.GroupKey]*econ.GroupAccumulator, params Params) ([]econ.EconomicsRow, error) {
	accs := make([]*econ.GroupAccumulator, 0, len(groups))
	for _, acc := range groups {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		a, b := accs[i].Key, accs[j].Key
		if !a.Bucket.Start.Equal(b.Bucket.Start.Time) {
			return a.Bucket.Start.Before(b.Bucket.Start.Time)
		}
		if a.MarketplaceID != b.MarketplaceID {
			return a.MarketplaceID < b.MarketplaceID
		}
		return a.ProductID < b.ProductID
	})

	rows := make([]econ.EconomicsRow, len(accs))
	indexes := make(chan int, len(accs))
	for i := range accs {
		indexes <- i
	}
	close(indexes)

	g, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < params.workerCount(); w++ {
		g.Go(func() error {
			for i := range indexes {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				rows[i] = accs[i].Finalize(params.IncludeComponents)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("finalize groups: %w", err)
	}
	return rows, nil
}
