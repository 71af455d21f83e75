// Package status derives a bond's lifecycle status from its calendar dates.
// Pure functions only: the persisted record never carries a status, so this
// is the single authority every read path goes through.
package status

import (
	"time"
)

// Status is the derived lifecycle category.
type Status string

const (
	StatusValid      Status = "VALID"
	StatusExpireSoon Status = "EXPIRE_SOON"
	StatusExpired    Status = "EXPIRED"
	// StatusUnknown means the dates were missing or unparseable and the
	// caller asked for the non-computable policy.
	StatusUnknown Status = "N/A"
)

// expireSoonWindow is the number of days before cancellation at which a
// bond starts reporting EXPIRE_SOON. Day 0 counts as expired; days 1-14
// count as expiring.
const expireSoonWindow = 14

// MissingDatePolicy decides what a missing or unparseable date means.
// Listing contexts need a status for every row; detail contexts can say
// "not computable". Call sites choose explicitly — there is no default.
type MissingDatePolicy int

const (
	// MissingDatesExpired treats missing dates as EXPIRED (listing policy).
	MissingDatesExpired MissingDatePolicy = iota
	// MissingDatesUnknown reports StatusUnknown instead (detail policy).
	MissingDatesUnknown
)

// Result is a derived status with its day count.
type Result struct {
	Status Status `json:"status"`
	// DaysRemaining is days until cancellation, negative once past it.
	// Meaningless when Computable is false.
	DaysRemaining int  `json:"days_remaining"`
	Computable    bool `json:"computable"`
}

// Accepted calendar date layouts, in the order they are tried. The upstream
// system stored dates as strings in more than one shape.
var dateLayouts = []string{
	"01/02/06",
	"1/2/06",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
}

// ParseDate parses a stored calendar date string at UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

// truncateToDate reduces a timestamp to its UTC calendar date.
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Derive computes the status for the given date strings at "now".
//
//   - now before effective date: VALID (bond not yet in force)
//   - daysUntilExpiry <= 0: EXPIRED (boundary closed on the expired side)
//   - daysUntilExpiry 1..14: EXPIRE_SOON
//   - otherwise: VALID
func Derive(effectiveDate, cancellationDate string, now time.Time, policy MissingDatePolicy) Result {
	effective, okEff := ParseDate(effectiveDate)
	cancellation, okCan := ParseDate(cancellationDate)
	if !okEff || !okCan {
		if policy == MissingDatesUnknown {
			return Result{Status: StatusUnknown}
		}
		return Result{Status: StatusExpired}
	}

	today := truncateToDate(now)
	days := int(cancellation.Sub(today).Hours() / 24)

	result := Result{DaysRemaining: days, Computable: true}
	switch {
	case today.Before(effective):
		result.Status = StatusValid
	case days <= 0:
		result.Status = StatusExpired
	case days <= expireSoonWindow:
		result.Status = StatusExpireSoon
	default:
		result.Status = StatusValid
	}
	return result
}
