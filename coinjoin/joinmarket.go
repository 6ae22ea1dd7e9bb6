// Package coinjoin classifies transactions by the shape of their inputs and
// outputs.
package coinjoin

const (
	// MinParticipants is the smallest number of equal outputs considered.
	// Two party joins are possible but are mostly false positives.
	MinParticipants = 3

	// MinAmount is the smallest equal output value, in satoshis, that is
	// classified.
	MinAmount = 75000
)

// Match describes a JoinMarket style CoinJoin. The zero value means no
// match.
type Match struct {
	// Amount is the value of each equal output.
	Amount uint64

	// EqualOutputs is the number of outputs paying Amount.
	EqualOutputs int
}

// IsMatch reports whether m describes a classified transaction.
func (m Match) IsMatch() bool {
	return m.EqualOutputs > 0
}

// IsJoinMarket applies the JoinMarket output pattern: every participant gets
// one equal output and all but possibly one get a change output, so half the
// outputs (rounded up) must share a value, and each participant funds at
// least one input.
func IsJoinMarket(numIn, numOut int, values []uint64) Match {
	assumed := numOut / 2
	if numOut%2 != 0 {
		assumed++
	}
	if assumed < MinParticipants {
		return Match{}
	}
	if numIn < assumed {
		return Match{}
	}

	value, count := mostCommon(values)
	if value < MinAmount {
		return Match{}
	}
	if count != assumed {
		return Match{}
	}

	return Match{Amount: value, EqualOutputs: count}
}

// mostCommon returns the most frequent value and its frequency. Ties go to
// the value seen first.
func mostCommon(values []uint64) (uint64, int) {
	counts := make(map[uint64]int, len(values))
	var (
		best      uint64
		bestCount int
	)
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, bestCount
}
