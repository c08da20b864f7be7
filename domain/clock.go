package domain

import "time"

// Beijing is the fixed UTC+8 zone every "today" boundary is computed in,
// independent of the server's and the viewer's zone.
var Beijing = time.FixedZone("UTC+8", 8*60*60)

// StartOfDay returns midnight UTC+8 of the day t falls on in that zone.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(Beijing).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Beijing)
}
