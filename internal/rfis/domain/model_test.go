package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRFI_DaysOpen(t *testing.T) {
	now := time.Now()

	t.Run("counts whole days since submission", func(t *testing.T) {
		r := RFI{SubmittedAt: now.Add(-72*time.Hour - time.Hour)}
		assert.Equal(t, 3, r.DaysOpen())
	})

	t.Run("stops counting once answered", func(t *testing.T) {
		answered := now.Add(-10 * 24 * time.Hour)
		r := RFI{
			SubmittedAt: now.Add(-15 * 24 * time.Hour),
			AnsweredAt:  &answered,
		}
		assert.Equal(t, 5, r.DaysOpen())
	})

	t.Run("never negative", func(t *testing.T) {
		r := RFI{SubmittedAt: now.Add(time.Hour)}
		assert.Equal(t, 0, r.DaysOpen())
	})
}

func TestRFI_IsOverdue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name    string
		rfi     RFI
		overdue bool
	}{
		{"open past due date", RFI{Status: StatusOpen, DueDate: &past}, true},
		{"open before due date", RFI{Status: StatusOpen, DueDate: &future}, false},
		{"open without due date", RFI{Status: StatusOpen}, false},
		{"answered past due date", RFI{Status: StatusAnswered, DueDate: &past}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overdue, tc.rfi.IsOverdue())
		})
	}
}
