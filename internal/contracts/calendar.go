package contracts

import "time"

// IST is the exchange time zone.
var IST = time.FixedZone("IST", 19800)

// Calendar knows NSE weekends and the configured exchange holidays.
type Calendar struct {
	holidays map[string]bool
}

// NewCalendar takes holidays as YYYY-MM-DD strings.
func NewCalendar(holidays []string) *Calendar {
	c := &Calendar{holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[h] = true
	}
	return c
}

func (c *Calendar) IsTradingDay(t time.Time) bool {
	d := t.In(IST)
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	return !c.holidays[d.Format("2006-01-02")]
}

// PreviousTradingDay returns the last trading day strictly before t.
func (c *Calendar) PreviousTradingDay(t time.Time) time.Time {
	d := t.In(IST).AddDate(0, 0, -1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
