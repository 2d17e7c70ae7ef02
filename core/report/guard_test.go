package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_checkEligibility(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	tPtr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name   string
		lastAt time.Time
		want   Eligibility
	}{
		{name: "no previous report", want: Eligibility{Eligible: true}},
		{
			name: "one hour ago", lastAt: now.Add(-time.Hour),
			want: Eligibility{LastReportAt: tPtr(now.Add(-time.Hour)), NextEligibleAt: tPtr(now.Add(SubmissionInterval - time.Hour))},
		},
		{
			name: "exactly one week ago", lastAt: now.Add(-SubmissionInterval),
			want: Eligibility{LastReportAt: tPtr(now.Add(-SubmissionInterval)), NextEligibleAt: tPtr(now)},
		},
		{
			name: "just over one week ago", lastAt: now.Add(-SubmissionInterval - time.Second),
			want: Eligibility{Eligible: true, LastReportAt: tPtr(now.Add(-SubmissionInterval - time.Second))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var last *Report
			if !tt.lastAt.IsZero() {
				last = &Report{CreatedAt: tt.lastAt}
			}
			assert.Equal(t, tt.want, checkEligibility(last, now))
		})
	}
}
