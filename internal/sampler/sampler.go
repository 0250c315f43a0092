// Package sampler orders candidate sets for paginated feeds.
//
// The seeded functions are pure: the same seed over the same ids always
// yields the same order, so consecutive pages with one seed partition the
// set. Sample is the opposite, a fresh random draw on every call.
package sampler

import (
	"math/rand/v2"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Rank is the position key of id under seed
func Rank(seed, id string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(seed)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(id)
	return d.Sum64()
}

type ranked[T any] struct {
	rank uint64
	key  string
	item T
}

// Order returns ids sorted by Rank, ties broken by id
func Order(seed string, ids []string) []string {
	return orderBy(ids, func(id string) string { return id }, seed)
}

func orderBy[T any](items []T, key func(T) string, seed string) []T {
	rs := make([]ranked[T], len(items))
	for i, item := range items {
		k := key(item)
		rs[i] = ranked[T]{rank: Rank(seed, k), key: k, item: item}
	}
	slices.SortFunc(rs, func(a, b ranked[T]) int {
		switch {
		case a.rank < b.rank:
			return -1
		case a.rank > b.rank:
			return 1
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	out := make([]T, len(rs))
	for i, r := range rs {
		out[i] = r.item
	}
	return out
}

// Window clamps [offset, offset+limit) to a slice of length n
func Window(n, offset, limit int) (start, end int) {
	start = offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = start + limit
	if limit < 0 || end > n {
		end = n
	}
	return start, end
}

// Page orders items by the seeded rank of key(item) and returns the
// window [offset, offset+limit). Past the end it returns an empty slice.
func Page[T any](items []T, key func(T) string, seed string, offset, limit int) []T {
	ordered := orderBy(items, key, seed)
	start, end := Window(len(ordered), offset, limit)
	return ordered[start:end]
}

// Sample draws min(n, len(items)) distinct items uniformly at random.
// A nil r uses the runtime-seeded global source. items is not modified.
func Sample[T any](items []T, n int, r *rand.Rand) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}
	if n > len(items) {
		n = len(items)
	}

	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}

	pool := slices.Clone(items)
	// partial Fisher-Yates: the first n slots end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
