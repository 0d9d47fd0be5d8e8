package valuation

import (
	"fmt"
	"math"
)

// Verdict is the qualitative comparison of intrinsic and market P/E
type Verdict string

const (
	VerdictUndervalued Verdict = "undervalued"
	VerdictOvervalued  Verdict = "overvalued"
)

// Classify compares the intrinsic P/E against the quoted P/E.
// currentPE is the value a caller obtained from a prior lookup; nil means the
// lookup was skipped or the metric was absent, and no verdict is produced.
func Classify(intrinsicPE float64, currentPE *float64) (Verdict, error) {
	if currentPE == nil || math.IsNaN(*currentPE) || math.IsInf(*currentPE, 0) {
		return "", fmt.Errorf("current P/E unavailable: %w", ErrMissingData)
	}
	if intrinsicPE > *currentPE {
		return VerdictUndervalued, nil
	}
	return VerdictOvervalued, nil
}
