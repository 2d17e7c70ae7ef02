package report

import "time"

// SubmissionInterval is the sliding window during which a student may only submit one Report.
const SubmissionInterval = 7 * 24 * time.Hour

// checkEligibility denies a submission when `last` (the student's most recent Report, if any)
// was created within the trailing SubmissionInterval, bounds included.
func checkEligibility(last *Report, now time.Time) Eligibility {
	if last == nil {
		return Eligibility{Eligible: true}
	}
	lastAt := last.CreatedAt.UTC()
	next := lastAt.Add(SubmissionInterval)
	elig := Eligibility{Eligible: now.After(next), LastReportAt: &lastAt}
	if !elig.Eligible {
		elig.NextEligibleAt = &next
	}
	return elig
}
