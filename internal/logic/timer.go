package logic

import "time"

// Elapsed returns end-start in seconds. The result is negative when end
// precedes start; callers decide what that means.
func Elapsed(start, end time.Time) float64 {
	return end.Sub(start).Seconds()
}
