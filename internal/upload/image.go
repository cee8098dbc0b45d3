package upload

import "time"

// Image is the metadata returned for a stored upload. URL is what the
// editing client embeds into article content; the rest is informational.
type Image struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Format    string    `json:"format,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"createdAt"`
}
