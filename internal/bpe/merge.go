package bpe

// SelectPair picks the pair to merge next from counts.
//
// The highest count wins. Ties go to the pair whose merged symbol has fewer
// runes, then to the lexicographically smaller merged text, then to the
// lexicographically smaller left symbol, so the result never depends on map
// iteration order. ok is false when counts is empty or no pair occurs more
// than once; training must stop in that case.
func SelectPair(counts map[Pair]int, symbols *Symbols) (best Pair, count int, ok bool) {
	var bestMerged string

	for p, c := range counts {
		merged := symbols.Text(p.Left) + symbols.Text(p.Right)
		if !ok || better(p, c, merged, best, count, bestMerged, symbols) {
			best, count, bestMerged, ok = p, c, merged, true
		}
	}

	if !ok || count <= 1 {
		return Pair{}, count, false
	}

	return best, count, true
}

func better(p Pair, c int, merged string, best Pair, bestCount int, bestMerged string, symbols *Symbols) bool {
	if c != bestCount {
		return c > bestCount
	}

	if l, bl := symbols.mergedLen(p), symbols.mergedLen(best); l != bl {
		return l < bl
	}

	if merged != bestMerged {
		return merged < bestMerged
	}

	return symbols.Text(p.Left) < symbols.Text(best.Left)
}

// ApplyMerge rewrites every non-overlapping occurrence of p in seq, scanning
// left to right over live slots. The left slot of an occurrence becomes
// merged and the right slot becomes a Tombstone; scanning resumes after the
// consumed pair. It returns the number of occurrences rewritten.
func ApplyMerge(seq []int32, p Pair, merged int32) int {
	n := 0

	i := firstLive(seq)
	for i >= 0 {
		j := nextLive(seq, i)
		if j < 0 {
			break
		}

		if seq[i] == p.Left && seq[j] == p.Right {
			seq[i] = merged
			seq[j] = Tombstone
			n++
			i = nextLive(seq, j)

			continue
		}

		i = j
	}

	return n
}
