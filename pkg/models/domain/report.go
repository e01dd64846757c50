package domain

import "time"

const dateLayout = "2006-01-02"

// ClusterTag identifies every instance belonging to one logical cluster.
type ClusterTag struct {
	Key   string
	Value string
}

// OwnerID is one distinct value of the owner tag, discovered at run time.
type OwnerID = string

// ReportWindow is the date range a report covers. Start comes from
// configuration, End is the invocation date.
type ReportWindow struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window can produce a report at all.
func (w ReportWindow) Valid() bool {
	return w.Start.Before(w.End)
}

func (w ReportWindow) StartDate() string {
	return w.Start.Format(dateLayout)
}

func (w ReportWindow) EndDate() string {
	return w.End.Format(dateLayout)
}

// PrettyStart renders the window start the way it appears in the
// notification body, e.g. "Sep 1, 2019".
func (w ReportWindow) PrettyStart() string {
	return w.Start.Format("Jan 2, 2006")
}

// UsagePoint is one daily billing bucket for one owner.
type UsagePoint struct {
	Date  string // ISO day, e.g. "2024-01-01"
	Hours float64
}

// DailyUsage is an owner's per-day usage series. Points keep the order
// the billing API returned them in.
type DailyUsage struct {
	Points []UsagePoint
}

func (u *DailyUsage) Append(date string, hours float64) {
	u.Points = append(u.Points, UsagePoint{Date: date, Hours: hours})
}

// Lookup returns the usage recorded for date, if any.
func (u DailyUsage) Lookup(date string) (float64, bool) {
	for _, p := range u.Points {
		if p.Date == date {
			return p.Hours, true
		}
	}
	return 0, false
}

// Dates returns the series' dates in point order.
func (u DailyUsage) Dates() []string {
	dates := make([]string, 0, len(u.Points))
	for _, p := range u.Points {
		dates = append(dates, p.Date)
	}
	return dates
}

// OwnerUsage pairs an owner with its daily usage series.
type OwnerUsage struct {
	Owner  OwnerID
	Series DailyUsage
}

// OwnerCost pairs an owner with its total unblended cost over the window.
type OwnerCost struct {
	Owner OwnerID
	Total float64
}
