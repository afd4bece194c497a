package entities

import (
	"encoding/json"
	"time"
)

// Horizons are the supported statistics aggregation windows, in hours.
// Each horizon of a channel is cached and refreshed independently.
var Horizons = []int{24, 48, 72}

// ValidHorizon reports whether h is a supported aggregation window
func ValidHorizon(h int) bool {
	for _, v := range Horizons {
		if v == h {
			return true
		}
	}
	return false
}

// Entry is a cached statistics blob for one (channel identifier, horizon)
// key. UpdatedAt of 0 means the entry has never been computed: such rows
// exist only to make an in-flight first refresh observable.
type Entry struct {
	ID                int64           `json:"id"`
	ChannelIdentifier string          `json:"channelIdentifier"`
	Horizon           int             `json:"horizon"`
	Value             json.RawMessage `json:"value"`
	UpdatedAt         int64           `json:"updatedAt"`
	LastAttemptAt     int64           `json:"lastAttemptAt"`
	RefreshInProgress bool            `json:"refreshInProgress"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
}

// Fresh reports whether the entry was computed within maxAge of now.
// The comparison is strict: an entry exactly maxAge old is stale.
func (e *Entry) Fresh(now time.Time, maxAge time.Duration) bool {
	if e == nil || e.UpdatedAt == 0 {
		return false
	}
	return now.Unix()-e.UpdatedAt < int64(maxAge.Seconds())
}
