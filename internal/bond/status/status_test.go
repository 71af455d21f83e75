package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name         string
		effective    string
		cancellation string
		now          time.Time
		wantStatus   Status
		wantDays     int
	}{
		{
			name:         "not yet in force is valid regardless of cancellation",
			effective:    "2024-06-01",
			cancellation: "2024-06-02",
			now:          date("2024-05-01"),
			wantStatus:   StatusValid,
			wantDays:     32,
		},
		{
			name:         "eight days out is expiring soon",
			effective:    "2024-01-01",
			cancellation: "2024-02-28",
			now:          date("2024-02-20"),
			wantStatus:   StatusExpireSoon,
			wantDays:     8,
		},
		{
			name:         "one day past cancellation is expired",
			effective:    "2024-01-01",
			cancellation: "2024-02-28",
			now:          date("2024-03-01"),
			wantStatus:   StatusExpired,
			wantDays:     -1,
		},
		{
			name:         "cancellation today is expired",
			effective:    "2024-01-01",
			cancellation: "2024-02-28",
			now:          date("2024-02-28"),
			wantStatus:   StatusExpired,
			wantDays:     0,
		},
		{
			name:         "fourteen days out is expiring soon",
			effective:    "2024-01-01",
			cancellation: "2024-03-15",
			now:          date("2024-03-01"),
			wantStatus:   StatusExpireSoon,
			wantDays:     14,
		},
		{
			name:         "fifteen days out is valid",
			effective:    "2024-01-01",
			cancellation: "2024-03-16",
			now:          date("2024-03-01"),
			wantStatus:   StatusValid,
			wantDays:     15,
		},
		{
			name:         "one day out is expiring soon",
			effective:    "2024-01-01",
			cancellation: "2024-03-02",
			now:          date("2024-03-01"),
			wantStatus:   StatusExpireSoon,
			wantDays:     1,
		},
		{
			name:         "slash date formats parse",
			effective:    "01/01/24",
			cancellation: "02/28/24",
			now:          date("2024-02-20"),
			wantStatus:   StatusExpireSoon,
			wantDays:     8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.effective, tt.cancellation, tt.now, MissingDatesExpired)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantDays, got.DaysRemaining)
			assert.True(t, got.Computable)
		})
	}
}

func TestDerive_MissingDates(t *testing.T) {
	now := date("2024-02-20")

	t.Run("listing policy reports expired", func(t *testing.T) {
		got := Derive("", "", now, MissingDatesExpired)
		assert.Equal(t, StatusExpired, got.Status)
		assert.False(t, got.Computable)
	})

	t.Run("detail policy reports unknown", func(t *testing.T) {
		got := Derive("", "02/28/24", now, MissingDatesUnknown)
		assert.Equal(t, StatusUnknown, got.Status)
		assert.False(t, got.Computable)
	})

	t.Run("unparseable date follows the same policy", func(t *testing.T) {
		got := Derive("not-a-date", "02/28/24", now, MissingDatesExpired)
		assert.Equal(t, StatusExpired, got.Status)
	})
}

func TestDerive_MidDayNowTruncatesToDate(t *testing.T) {
	// 2024-02-20 23:59 UTC must behave like 2024-02-20.
	now := time.Date(2024, 2, 20, 23, 59, 0, 0, time.UTC)
	got := Derive("2024-01-01", "2024-02-28", now, MissingDatesExpired)
	assert.Equal(t, StatusExpireSoon, got.Status)
	assert.Equal(t, 8, got.DaysRemaining)
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"02/28/24", "2/28/24", "02/28/2024", "2024-02-28"} {
		parsed, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, date("2024-02-28"), parsed)
	}

	_, ok := ParseDate("28-02-2024")
	assert.False(t, ok)
}
