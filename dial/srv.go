// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package dial

import (
	"math/rand"
	"net"
	"sort"
)

// orderSRV returns records ordered the way RFC 2782 describes: ascending by
// priority, and within a priority group by weighted random selection so that
// higher-weight targets are more likely (but not guaranteed) to sort first.
func orderSRV(records []*net.SRV) []*net.SRV {
	sorted := make([]*net.SRV, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	ordered := make([]*net.SRV, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Priority == sorted[i].Priority {
			j++
		}
		ordered = append(ordered, weightedShuffle(sorted[i:j])...)
		i = j
	}
	return ordered
}

// weightedShuffle implements the selection algorithm of RFC 2782: repeatedly
// pick a random point in the running sum of remaining weights and take
// whichever record it falls under. Each weight counts as one more than its
// value, so a record of weight 0 can still be picked ahead of heavier ones,
// with a correspondingly small probability.
func weightedShuffle(group []*net.SRV) []*net.SRV {
	remaining := make([]*net.SRV, len(group))
	copy(remaining, group)
	out := make([]*net.SRV, 0, len(remaining))

	for len(remaining) > 0 {
		total := 0
		for _, r := range remaining {
			total += int(r.Weight) + 1 // +1 so a zero-weight record can still be picked
		}
		pick := rand.Intn(total)
		running := 0
		for i, r := range remaining {
			running += int(r.Weight) + 1
			if pick < running {
				out = append(out, r)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return out
}
