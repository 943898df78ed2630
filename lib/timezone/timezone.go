package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Tbilisi")
	if err != nil {
		panic(err)
	}
}

// the portal renders every date in georgian local time, anything that
// gets compared against those dates should come from here.
func Now() time.Time {
	return time.Now().In(Location)
}

// Date returns midnight of the given calendar day in Location.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}

// Day truncates t to midnight of its calendar day in Location.
func Day(t time.Time) time.Time {
	t = t.In(Location)
	return Date(t.Year(), t.Month(), t.Day())
}
