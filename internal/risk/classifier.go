// Package risk maps days-past-due to a delinquency tier.
package risk

// Tier enum constants, ordered from healthy to written-off
const (
	TierCurrent     = "CURRENT"
	TierWatch       = "WATCH"
	TierSubstandard = "SUBSTANDARD"
	TierDoubtful    = "DOUBTFUL"
	TierLoss        = "LOSS"
)

// Classify maps days past due to a tier. Buckets are contiguous, exhaustive
// and monotonic; the function is total over all integers and has no state, so
// a loan's tier is safely recomputed on every DPD change.
func Classify(dpd int) string {
	switch {
	case dpd <= 0:
		return TierCurrent
	case dpd <= 30:
		return TierWatch
	case dpd <= 60:
		return TierSubstandard
	case dpd <= 90:
		return TierDoubtful
	default:
		return TierLoss
	}
}
