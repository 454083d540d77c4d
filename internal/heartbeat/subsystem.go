package heartbeat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"flowcore/internal/ferrors"
	"flowcore/internal/repository"
	"flowcore/internal/status"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// GraphView is the read-only surface the generator needs to build a status
// pass; callers acquire it under the controller's shared lock.
type GraphView = status.GraphView

// BulletinSource drains accumulated node bulletins (spec.md §4.6 step 3).
type BulletinSource interface {
	Recent(max int) []repository.Bulletin
}

// Subsystem wires the three heartbeat periodic tasks (generator, sender,
// bulletins) to one Cell, one NodeProtocolSender, and one bulletin source.
// It carries its own lock for start/stop idempotency only — it does not
// itself hold the controller's graph lock outside of one aggregation pass.
type Subsystem struct {
	cell   Cell
	slot   messageSlot
	sender repository.NodeProtocolSender
	source BulletinSource
	log    *logger.Logger

	systemStart time.Time

	view    Locker
	graph   GraphView
	rootID  func() string
	counter status.CounterSource

	mu        sync.Mutex
	tasks     *workerpool.Group
	running   bool
	suspended int32 // atomic bool
}

// Suspend stops the sender from transmitting without tearing down the
// generator or bulletins tasks (spec.md §4.6 step 2: "if suspended,
// returns").
func (s *Subsystem) Suspend(suspended bool) {
	var v int32
	if suspended {
		v = 1
	}
	atomic.StoreInt32(&s.suspended, v)
}

func (s *Subsystem) isSuspended() bool {
	return atomic.LoadInt32(&s.suspended) == 1
}

// Locker mirrors a read-lock acquisition (controller.RLock/RUnlock).
type Locker interface {
	RLock()
	RUnlock()
}

// Config bundles the cadences spec.md §4.6 names.
type Config struct {
	GeneratorInterval time.Duration // heartbeatDelaySeconds
	SenderInterval    time.Duration // spec.md: "every 250ms"
	BulletinInterval  time.Duration // hard-coded 2s (spec.md §9 Open Question)
}

// New constructs a Subsystem. view/graphView/rootID are used to run a status
// aggregation pass for each generated heartbeat.
func New(sender repository.NodeProtocolSender, source BulletinSource, view Locker, gv GraphView, rootID func() string, counters status.CounterSource, log *logger.Logger) *Subsystem {
	return &Subsystem{
		sender:      sender,
		source:      source,
		log:         log,
		systemStart: time.Now(),
		view:        view,
		graph:       gv,
		rootID:      rootID,
		counter:     counters,
	}
}

// SetBean installs a new immutable snapshot (spec.md §3: swapped atomically
// whenever rootGroup/isPrimary/isConnected changes).
func (s *Subsystem) SetBean(bean *Bean) { s.cell.Store(bean) }

// StartHeartbeating is idempotent over StopHeartbeating — it first stops
// then restarts (spec.md §4.6: "`startHeartbeating` is idempotent over
// `stopHeartbeating`").
func (s *Subsystem) StartHeartbeating(ctx context.Context, cfg Config) {
	s.StopHeartbeating()

	s.mu.Lock()
	defer s.mu.Unlock()

	genInterval := cfg.GeneratorInterval
	if genInterval <= 0 {
		genInterval = 5 * time.Second
	}
	sendInterval := cfg.SenderInterval
	if sendInterval <= 0 {
		sendInterval = 250 * time.Millisecond
	}
	bulletinInterval := cfg.BulletinInterval
	if bulletinInterval <= 0 {
		bulletinInterval = 2 * time.Second
	}

	s.tasks = workerpool.NewGroup()
	s.tasks.Add(workerpool.NewPeriodicTask("heartbeat-generator", genInterval, s.log, s.generate))
	s.tasks.Add(workerpool.NewPeriodicTask("heartbeat-sender", sendInterval, s.log, s.send))
	s.tasks.Add(workerpool.NewPeriodicTask("heartbeat-bulletins", bulletinInterval, s.log, s.drainBulletins))
	s.tasks.Start(ctx)
	s.running = true
}

// StopHeartbeating halts all three tasks. Safe to call when not running.
func (s *Subsystem) StopHeartbeating() {
	s.mu.Lock()
	tasks := s.tasks
	s.running = false
	s.tasks = nil
	s.mu.Unlock()
	if tasks != nil {
		tasks.Stop()
	}
}

// generate implements step 1: read the bean, run a status pass, build a
// payload, and store it unconditionally (overwriting any unsent value).
func (s *Subsystem) generate(ctx context.Context) error {
	bean := s.cell.Load()
	if bean == nil {
		return nil
	}

	var snapshot *status.ProcessGroupStatus
	if s.graph != nil && s.rootID != nil {
		s.view.RLock()
		snapshot = status.Aggregate(s.graph, s.rootID(), s.counter)
		s.view.RUnlock()
	}

	msg := &Message{
		SystemStartTime: s.systemStart,
		GeneratedAt:     time.Now(),
		IsPrimary:       bean.IsPrimary,
		IsConnected:     bean.IsConnected,
		GroupStatus:     snapshot,
		Diagnostics:     collectDiagnostics(),
	}
	if snapshot != nil {
		msg.ActiveThreadCount = snapshot.ActiveThreadCount
		msg.QueuedObjects = snapshot.QueuedObjects
		msg.QueuedBytes = snapshot.QueuedBytes
	}
	s.slot.store(msg)
	return nil
}

// send implements step 2: swap-and-take the latest snapshot and transmit
// it, logging and swallowing an "unknown service address" (expected during
// cluster-manager failover).
func (s *Subsystem) send(ctx context.Context) error {
	if s.isSuspended() {
		return nil
	}
	msg := s.slot.take()
	if msg == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.sender.Heartbeat(ctx, payload); err != nil {
		if ferrors.IsUnknownServiceAddress(err) {
			if s.log != nil {
				s.log.WithField("err", err).Debug("heartbeat target unresolvable; will retry next snapshot")
			}
			return nil
		}
		if s.log != nil {
			s.log.WithField("err", err).Debug("heartbeat transmission failed")
		}
		return nil
	}
	return nil
}

// drainBulletins implements step 3: drain accumulated bulletins, escape
// XML-illegal characters, and transmit; an empty drain is a no-op.
func (s *Subsystem) drainBulletins(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	bulletins := s.source.Recent(100)
	if len(bulletins) == 0 {
		return nil
	}
	for i := range bulletins {
		bulletins[i].Message = EscapeXML(bulletins[i].Message)
	}
	payload, err := json.Marshal(bulletins)
	if err != nil {
		return err
	}
	if err := s.sender.SendBulletins(ctx, payload); err != nil {
		if ferrors.IsUnknownServiceAddress(err) {
			if s.log != nil {
				s.log.WithField("err", err).Debug("bulletin target unresolvable")
			}
			return nil
		}
		if s.log != nil {
			s.log.WithField("err", err).Debug("bulletin transmission failed")
		}
		return nil
	}
	return nil
}

// EscapeXML replaces any character below 0x20 other than tab/LF/CR with '?'
// (spec.md §4.6 step 3).
func EscapeXML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != 0x09 && r != 0x0A && r != 0x0D {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collectDiagnostics() SystemDiagnostics {
	var d SystemDiagnostics
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		d.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		d.MemoryUsed = vm.Used
		d.MemoryTotal = vm.Total
	}
	if info, err := host.Info(); err == nil {
		d.HostUptime = info.Uptime
	}
	return d
}
