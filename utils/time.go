package utils

import "time"

// SecondsBetween returns num of seconds between two timestamps
func SecondsBetween(from time.Time, to time.Time) float64 {
	return to.Sub(from).Seconds()
}

// NowMillis returns the current wall clock in milliseconds since the Unix epoch
func NowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
