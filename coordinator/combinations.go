package coordinator

// Count is the binomial coefficient C(n, k): how many distinct opening
// hands of size k a pool of n cards offers.
func Count(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	count := 1
	for i := 0; i < k; i++ {
		count = count * (n - i) / (i + 1)
	}
	return count
}

// Combinations enumerates every k-element subset of pool, in lexicographic
// index order. The order is deterministic, which is what makes partitioning
// across workers reproducible.
func Combinations(pool []int, k int) [][]int {
	if k < 0 || k > len(pool) {
		return nil
	}
	combos := make([][]int, 0, Count(len(pool), k))

	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	for {
		combo := make([]int, k)
		for i, idx := range indices {
			combo[i] = pool[idx]
		}
		combos = append(combos, combo)

		// Advance to the next subset: bump the rightmost index that can
		// still move, then reset everything after it.
		i := k - 1
		for i >= 0 && indices[i] == len(pool)-k+i {
			i--
		}
		if i < 0 {
			return combos
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

// Partition splits combos into at most workers contiguous batches of
// near-equal size. Every combination lands in exactly one batch; batch
// sizes differ by at most one so expected work stays balanced.
func Partition(combos [][]int, workers int) [][][]int {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(combos) {
		workers = len(combos)
	}
	if workers == 0 {
		return nil
	}

	batches := make([][][]int, workers)
	size := len(combos) / workers
	extra := len(combos) % workers
	start := 0
	for i := range batches {
		end := start + size
		if i < extra {
			end++
		}
		batches[i] = combos[start:end]
		start = end
	}
	return batches
}
