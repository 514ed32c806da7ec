package eventmodels

import "time"

// Expiry is one dropdown entry: a display label ("28 Oct 2025") and the ISO
// date value ("2025-10-28") the frontend sends back on quote requests.
type Expiry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func NewExpiry(date time.Time) Expiry {
	return Expiry{
		Label: date.Format("02 Jan 2006"),
		Value: date.Format("2006-01-02"),
	}
}
