package services

import "context"

const (
	EventMatchCreated     = "MATCH_CREATED"
	EventMatchUpdated     = "MATCH_UPDATED"
	EventMatchDeleted     = "MATCH_DELETED"
	EventStandingsUpdated = "STANDINGS_UPDATED"
)

// EventPublisher fans domain events out to live clients.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}
