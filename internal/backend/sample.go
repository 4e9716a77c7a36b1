package backend

import "math/rand/v2"

type weighted[T any] struct {
	item   T
	weight int
}

// weightedSample picks up to k items without replacement, each draw
// proportional to the remaining weights. Weights below 1 count as 1.
func weightedSample[T any](pool []weighted[T], k int, rng *rand.Rand) []T {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	pool = append([]weighted[T](nil), pool...)
	chosen := make([]T, 0, min(k, len(pool)))

	for len(pool) > 0 && len(chosen) < k {
		total := 0
		for _, it := range pool {
			total += max(1, it.weight)
		}
		pick := rng.IntN(total)

		idx := len(pool) - 1
		acc := 0
		for i, it := range pool {
			acc += max(1, it.weight)
			if pick < acc {
				idx = i
				break
			}
		}
		chosen = append(chosen, pool[idx].item)
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return chosen
}

func newRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}
