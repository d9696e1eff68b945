package services

import (
	"math/rand"
	"sort"
)

type weightedEntry struct {
	participantID string
	weight        int
	cumulative    int
}

// PickWinners draws up to k distinct participants from a ledger snapshot,
// each with probability proportional to its weight. Every ticket of a winner
// is removed before the next draw, so a participant wins at most once per
// drawing. The output order is the draw order, deterministic for a seeded
// source.
//
// Instead of materializing one slot per ticket, the pool keeps a running
// cumulative weight and each draw binary-searches a random ticket number,
// then subtracts the winner's weight from the tail of the pool.
func PickWinners(snapshot map[string]int, k int, rng *rand.Rand) []string {
	if k <= 0 || len(snapshot) == 0 {
		return nil
	}

	pool := make([]weightedEntry, 0, len(snapshot))
	for id, weight := range snapshot {
		pool = append(pool, weightedEntry{participantID: id, weight: weight})
	}
	// Map iteration order is random; sort so a seeded source draws the same
	// sequence every run.
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].participantID < pool[j].participantID
	})

	total := 0
	for i := range pool {
		total += pool[i].weight
		pool[i].cumulative = total
	}

	if k > len(pool) {
		k = len(pool)
	}

	winners := make([]string, 0, k)
	for len(winners) < k {
		remaining := pool[len(pool)-1].cumulative
		ticket := rng.Intn(remaining)
		idx := sort.Search(len(pool), func(i int) bool {
			return pool[i].cumulative > ticket
		})

		picked := pool[idx]
		winners = append(winners, picked.participantID)

		pool = append(pool[:idx], pool[idx+1:]...)
		for j := idx; j < len(pool); j++ {
			pool[j].cumulative -= picked.weight
		}
	}
	return winners
}
