package clientdata

import "time"

// TTL constants added to the current time when storing to calculate expires_at.
const (
	// The exchange republishes its holiday list a few times a year
	TTLHolidays = 24 * time.Hour

	// Index snapshots move every few seconds while the market is open
	TTLIndices = 5 * time.Minute
)
