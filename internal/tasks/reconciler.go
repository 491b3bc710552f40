package tasks

import "github.com/desertthunder/livesync/internal/services"

// Plan is the minimal set of mutations transforming the playlist's current
// membership into the desired live set. Computed fresh per task, never persisted.
type Plan struct {
	ToAdd    []services.LiveItem
	ToRemove []services.MemberItem
}

// Empty reports whether the plan contains no mutations.
func (p Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToRemove) == 0
}

// Diff computes the symmetric difference between current and desired
// membership keyed by the extracted key.
//
// toAdd holds every desired element whose key is absent from current, in
// desired order; toRemove holds every current element whose key is absent
// from desired, in current order. Pure, O(|current| + |desired|); only key
// presence matters, all other fields are ignored.
func Diff[C, D any, K comparable](current []C, desired []D, currentKey func(C) K, desiredKey func(D) K) (toAdd []D, toRemove []C) {
	currentKeys := make(map[K]struct{}, len(current))
	for _, c := range current {
		currentKeys[currentKey(c)] = struct{}{}
	}

	desiredKeys := make(map[K]struct{}, len(desired))
	for _, d := range desired {
		desiredKeys[desiredKey(d)] = struct{}{}
	}

	for _, d := range desired {
		if _, ok := currentKeys[desiredKey(d)]; !ok {
			toAdd = append(toAdd, d)
		}
	}

	for _, c := range current {
		if _, ok := desiredKeys[currentKey(c)]; !ok {
			toRemove = append(toRemove, c)
		}
	}

	return toAdd, toRemove
}

// BuildPlan reconciles playlist members against discovered live items,
// keyed by video id.
func BuildPlan(current []services.MemberItem, desired []services.LiveItem) Plan {
	toAdd, toRemove := Diff(current, desired,
		func(m services.MemberItem) string { return m.VideoID },
		func(i services.LiveItem) string { return i.VideoID },
	)
	return Plan{ToAdd: toAdd, ToRemove: toRemove}
}

// dedupeLive keeps the first occurrence per video id, preserving discovery order.
func dedupeLive(items []services.LiveItem) []services.LiveItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]services.LiveItem, 0, len(items))

	for _, it := range items {
		if _, ok := seen[it.VideoID]; ok {
			continue
		}
		seen[it.VideoID] = struct{}{}
		out = append(out, it)
	}

	return out
}
