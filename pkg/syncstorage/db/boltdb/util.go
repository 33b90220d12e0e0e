package boltdb

import "time"

// defaultNow is nowFunc's production implementation; see collections.go.
func defaultNow() time.Time {
	return time.Now()
}
