package scan

import (
	"fmt"

	"jmfinder/chain"
)

// Range is an inclusive span of block heights.
type Range struct {
	Start int64
	End   int64
}

// Len is the number of blocks in the range.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// ResolveRange turns the requested heights into a concrete range against the
// node's chain state. An end of zero means the current tip and a negative
// start means the last -start blocks up to end.
func ResolveRange(info *chain.ChainInfo, start, end int64) (Range, error) {
	if end == 0 {
		end = info.Blocks
	}
	if start < 0 {
		start = end + start + 1
	}

	r := Range{Start: start, End: end}
	switch {
	case start < 0 || end < 0:
		return r, &RangeError{Start: start, End: end,
			Reason: "negative height"}

	case start > end:
		return r, &RangeError{Start: start, End: end,
			Reason: "start height is after end height"}

	case end > info.Blocks:
		return r, &RangeError{Start: start, End: end,
			Reason: fmt.Sprintf("end height is past the tip at %d",
				info.Blocks)}

	case info.Pruned && start < info.PruneHeight:
		return r, &RangeError{Start: start, End: end,
			Reason: fmt.Sprintf("start height is lower than the "+
				"lowest-height complete block stored (%d)",
				info.PruneHeight)}
	}

	return r, nil
}
