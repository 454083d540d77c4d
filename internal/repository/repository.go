// Package repository defines the external collaborator contracts FlowCore
// depends on but does not implement (spec.md §6): durable flow-file index,
// content blob store, provenance log, bulletin feed, swap manager, and
// component status history. Concrete implementations are dependency-injected
// by the host process. The `*.implementation` configuration keys are carried
// in config.Config, but nothing in this module resolves them, and
// internal/plugin constructs processors only.
package repository

import (
	"context"
	"time"

	"flowcore/internal/content"
	"flowcore/internal/flowfile"
	"flowcore/internal/status"
)

// FlowFileRepository is the durable index of flow-file records.
type FlowFileRepository interface {
	Initialize() error
	Load(ctx context.Context, startingID int64) (maxID int64, err error)
	NextSequence() int64
	UpdateRepository(ctx context.Context, batch []*flowfile.Record) error
	IsVolatile() bool
	Close() error
}

// ContentRepository is the blob store backing content claims.
type ContentRepository interface {
	Initialize(claims *content.Manager) error
	IsAccessible(claim content.Claim) bool
	Read(claim content.Claim) (ReadCloser, error)
	Cleanup() error
	Shutdown() error
}

// ReadCloser mirrors io.ReadCloser without importing io for this narrow use,
// keeping the contract self-contained.
type ReadCloser interface {
	Read(p []byte) (n int, err error)
	Close() error
}

// ProvenanceEventType enumerates the provenance event kinds spec.md §4.7
// distinguishes for replay eligibility.
type ProvenanceEventType string

const (
	ProvenanceEventCreate  ProvenanceEventType = "CREATE"
	ProvenanceEventReceive ProvenanceEventType = "RECEIVE"
	ProvenanceEventSend    ProvenanceEventType = "SEND"
	ProvenanceEventDrop    ProvenanceEventType = "DROP"
	ProvenanceEventJoin    ProvenanceEventType = "JOIN"
	ProvenanceEventFork    ProvenanceEventType = "FORK"
	ProvenanceEventClone   ProvenanceEventType = "CLONE"
	ProvenanceEventReplay  ProvenanceEventType = "REPLAY"
)

// ProvenanceEvent is one append-only provenance record.
type ProvenanceEvent struct {
	ID               int64
	Type             ProvenanceEventType
	FlowFileUUID     string
	ParentUUIDs      []string
	ChildUUIDs       []string
	ComponentID      string
	Timestamp        time.Time
	Attributes       map[string]string
	PreviousClaim    *content.Claim
	SourceQueueID    string
	AlternateIdentifierURI string
}

// ProvenanceRepository is the append-only provenance event log.
type ProvenanceRepository interface {
	Initialize() error
	RegisterEvent(ctx context.Context, event ProvenanceEvent) error
	GetEvent(id int64) (ProvenanceEvent, bool, error)
	GetEvents(firstID int64, max int) ([]ProvenanceEvent, error)
	Close() error
}

// Bulletin is a diagnostic event surfaced to the bulletin feed.
type Bulletin struct {
	Timestamp   time.Time
	ComponentID string
	GroupID     string
	Category    string
	Severity    string
	Message     string
}

// BulletinRepository is the in-memory bulletin feed. Override lets
// cluster-mode divert new bulletins to a different sink (e.g. the
// transmitted heartbeat payload) instead of local storage.
type BulletinRepository interface {
	Add(b Bulletin)
	Recent(max int) []Bulletin
	Override(sink func(Bulletin))
}

// SwapManager handles overflow of a connection's queue to secondary storage.
type SwapManager interface {
	Purge() error
	RecoverSwappedFlowFiles(ctx context.Context, claims *content.Manager) (maxID int64, err error)
	Start() error
	Shutdown() error
}

// StatusPoint is one historical sample of a component's status.
type StatusPoint struct {
	Timestamp time.Time
	Status    *status.ProcessGroupStatus
}

// ComponentStatusRepository stores the fixed-size status-history reservoir
// (spec.md §4.5: "≈288 samples for 1 day at 5-minute cadence").
type ComponentStatusRepository interface {
	Capture(snapshot *status.ProcessGroupStatus, at time.Time) error
	GetConnectionStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error)
	GetProcessorStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error)
	GetGroupStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error)
	GetRemoteGroupStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error)
}

// NodeProtocolSender transmits cluster heartbeats and bulletins. Errors that
// indicate the target is unresolvable are logged at debug and swallowed per
// spec.md §4.6/§7; callers distinguish them via ferrors.IsUnknownServiceAddress.
type NodeProtocolSender interface {
	Heartbeat(ctx context.Context, msg []byte) error
	SendBulletins(ctx context.Context, msg []byte) error
}
