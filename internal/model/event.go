package model

import "time"

// Event is a stored Decision.
type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"ts"`
	Decision  Decision  `json:"decision"`
}
