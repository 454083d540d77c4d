// Package replay reconstructs a flow-file record from a prior provenance
// event (spec.md §4.7).
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flowcore/internal/content"
	"flowcore/internal/ferrors"
	"flowcore/internal/flowfile"
	"flowcore/internal/graph"
	"flowcore/internal/repository"
)

// Reasons surfaced verbatim to the caller for each precondition failure
// (spec.md §4.7, §8 scenario 4).
const (
	ReasonJoinEvent          = "Cannot replay events that are created from multiple parents"
	ReasonNoPreviousClaim    = "event does not carry a previous content claim"
	ReasonClaimInaccessible  = "content claim is no longer accessible"
	ReasonNoSourceQueue      = "event does not carry a source queue identifier"
	ReasonNoLiveConnection   = "no live connection exists for the event's source queue"
)

// GraphView is the read-only surface replay needs to recover the source
// connection for an event's queue id; callers hold the controller's shared
// lock for the duration of Replay.
type GraphView interface {
	Connection(id string) (*graph.Connection, bool)
}

// Dependencies bundles replay's external collaborators.
type Dependencies struct {
	Content     *content.Manager
	ContentRepo repository.ContentRepository
	FlowFiles   repository.FlowFileRepository
	Provenance  repository.ProvenanceRepository
	Graph       GraphView
}

// Replay reconstructs and re-enqueues a flow-file from event, per the five
// precondition checks and the success path of spec.md §4.7.
func Replay(ctx context.Context, deps Dependencies, event repository.ProvenanceEvent) (*flowfile.Record, error) {
	if event.Type == repository.ProvenanceEventJoin {
		return nil, ferrors.New(ferrors.ErrCodeInvalidArgument, ReasonJoinEvent)
	}
	if event.PreviousClaim == nil {
		return nil, ferrors.New(ferrors.ErrCodeInvalidArgument, ReasonNoPreviousClaim)
	}
	if event.SourceQueueID == "" {
		return nil, ferrors.New(ferrors.ErrCodeInvalidArgument, ReasonNoSourceQueue)
	}
	conn, ok := deps.Graph.Connection(event.SourceQueueID)
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeInvalidArgument, ReasonNoLiveConnection)
	}

	claim := *event.PreviousClaim
	deps.Content.Increment(claim)

	if deps.ContentRepo != nil && !deps.ContentRepo.IsAccessible(claim) {
		deps.Content.Decrement(claim)
		return nil, ferrors.New(ferrors.ErrCodeIllegalState, ReasonClaimInaccessible)
	}

	now := time.Now()
	newUUID := uuid.NewString()

	attrs := make(map[string]string, len(event.Attributes))
	for k, v := range event.Attributes {
		if k == "discard.reason" || k == "alternate.identifier" {
			continue
		}
		attrs[k] = v
	}
	attrs["flowfile.replay"] = "true"
	attrs["flowfile.replay.timestamp"] = now.Format(time.RFC3339Nano)
	attrs["uuid"] = newUUID

	record := &flowfile.Record{
		UUID:           newUUID,
		EntryTimestamp: now,
		LineageStart:   now,
		LineageIDs:     []string{event.FlowFileUUID},
		Attributes:     attrs,
		ContentClaim:   claim,
		QueueID:        event.SourceQueueID,
	}

	if deps.FlowFiles != nil {
		if err := deps.FlowFiles.UpdateRepository(ctx, []*flowfile.Record{record}); err != nil {
			return nil, ferrors.Repository("update-flowfile-repository", err)
		}
	}

	conn.Queue.Enqueue(record)

	if deps.Provenance != nil {
		provErr := deps.Provenance.RegisterEvent(ctx, repository.ProvenanceEvent{
			Type:          repository.ProvenanceEventReplay,
			FlowFileUUID:  newUUID,
			ParentUUIDs:   []string{event.FlowFileUUID},
			ComponentID:   event.ComponentID,
			Timestamp:     now,
			SourceQueueID: event.SourceQueueID,
		})
		if provErr != nil {
			return nil, ferrors.Repository("register-replay-event", fmt.Errorf("replay provenance event: %w", provErr))
		}
	}

	return record, nil
}
