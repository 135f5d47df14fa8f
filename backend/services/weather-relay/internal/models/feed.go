package models

// OpInsert marks a change-feed entry produced by a new reading.
const OpInsert = "insert"

// FeedEvent is one entry read from the change feed.
// Err is set when the entry could not be decoded; ID is always set.
type FeedEvent struct {
	ID      string
	Op      string
	Reading Reading
	Err     error
}
