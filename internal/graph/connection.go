package graph

import "flowcore/internal/queue"

// Connection is a directed edge carrying flow files between two
// Connectables. It owns a Queue and subscribes to a non-empty set of
// source-declared relationship names.
type Connection struct {
	ID            string
	SourceID      string
	DestinationID string
	Relationships map[string]struct{}
	BendPoints    []Position
	Queue         *queue.Queue
}

// NewConnection creates a Connection with a fresh queue using the given
// back-pressure thresholds. relationships must be non-empty per spec.md §3.
func NewConnection(id, sourceID, destinationID string, relationships []string, thresholds queue.Thresholds) *Connection {
	rels := make(map[string]struct{}, len(relationships))
	for _, r := range relationships {
		rels[r] = struct{}{}
	}
	return &Connection{
		ID:            id,
		SourceID:      sourceID,
		DestinationID: destinationID,
		Relationships: rels,
		Queue:         queue.New(thresholds),
	}
}

// HasRelationship reports whether name is among the connection's selected
// relationships.
func (c *Connection) HasRelationship(name string) bool {
	_, ok := c.Relationships[name]
	return ok
}
