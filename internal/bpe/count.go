package bpe

// CountPairs returns the number of occurrences of every pair of adjacent
// live symbols in seq. Tombstones are skipped, so two symbols separated only
// by tombstones are adjacent. Overlapping occurrences are all counted.
func CountPairs(seq []int32) map[Pair]int {
	counts := make(map[Pair]int)

	i := firstLive(seq)
	for i >= 0 {
		j := nextLive(seq, i)
		if j < 0 {
			break
		}

		counts[Pair{Left: seq[i], Right: seq[j]}]++
		i = j
	}

	return counts
}
