package fraud

// Operation classes for policy decisions. Withdrawals get the strict
// treatment; everything else is general traffic.
type Operation int

const (
	OpGeneral Operation = iota
	OpWithdrawal
)

// Machine-readable rejection codes.
const (
	CodeFraudDetected  = "FRAUD_DETECTED"
	CodeReviewRequired = "FRAUD_REVIEW_REQUIRED"
	CodeManualReview   = "MANUAL_REVIEW_REQUIRED"
)

// Decision is the policy verdict for one operation attempt.
type Decision struct {
	Allow bool
	Code  string // set when blocked
	Flag  bool   // allowed but worth an alert
}

// blocking flags force manual review of a withdrawal even below HIGH.
var withdrawalBlockingFlags = map[string]bool{
	FlagSelfReferral:    true,
	FlagReferralFarming: true,
	FlagFastCompletion:  true,
}

// Decide is the stateless decision table keyed by operation and level.
func Decide(op Operation, level Level, flags []string) Decision {
	switch op {
	case OpWithdrawal:
		if level == LevelHigh || level == LevelCritical {
			return Decision{Code: CodeReviewRequired}
		}
		for _, f := range flags {
			if withdrawalBlockingFlags[f] {
				return Decision{Code: CodeManualReview}
			}
		}
		return Decision{Allow: true}

	default:
		if level == LevelCritical {
			return Decision{Code: CodeFraudDetected}
		}
		return Decision{Allow: true, Flag: level == LevelHigh}
	}
}

// RequestCeiling is the adaptive per-minute request budget by level.
func RequestCeiling(level Level) int {
	switch level {
	case LevelCritical:
		return 5
	case LevelHigh:
		return 10
	case LevelMedium:
		return 30
	default:
		return 60
	}
}
