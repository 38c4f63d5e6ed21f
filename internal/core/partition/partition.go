package partition

import "hash/fnv"

// Count is the fixed number of logical fold partitions per query.
// Independent groups land in independent partitions, so workers can fold
// them with no cross-partition synchronization.
const Count = 64

// For returns the partition ID for a group identity string.
// Stable and deterministic: the same group always maps to the same partition.
// Uses FNV-32a (stdlib, fast, well-distributed).
func For(groupID string) int {
	h := fnv.New32a()
	h.Write([]byte(groupID))
	return int(h.Sum32()) % Count
}
