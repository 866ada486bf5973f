package services

import "github.com/mkarpenko/task-tracker/internal/storage"

// dedupeTagIDs drops repeated ids, preserving first-occurrence order.
func dedupeTagIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// tagDelta computes the minimal add/remove sets between the current
// and desired tag ids. Reconciling an already-matching set yields an
// empty delta, so applying it twice is a no-op.
func tagDelta(current, desired []int64) storage.TagDelta {
	currentSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
	}

	var delta storage.TagDelta
	for _, id := range desired {
		if _, ok := currentSet[id]; !ok {
			delta.Add = append(delta.Add, id)
		}
	}
	for _, id := range current {
		if _, ok := desiredSet[id]; !ok {
			delta.Remove = append(delta.Remove, id)
		}
	}
	return delta
}
