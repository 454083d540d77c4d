// Package controller implements the FlowController façade (spec.md §4.1): the
// single entry point that owns the live graph, dispatches mutations under an
// exclusive lock and queries under a shared one, and wires the scheduling
// agents, worker pools, and plug-in registry together.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flowcore/internal/config"
	"flowcore/internal/content"
	core "flowcore/internal/core/service"
	"flowcore/internal/ferrors"
	"flowcore/internal/graph"
	"flowcore/internal/plugin"
	"flowcore/internal/scheduler"
	"flowcore/internal/scheduler/eventqueue"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// Controller is FlowCore's single writer/reader-locked façade over the live
// dataflow graph. Graph mutations and queries go through this one
// sync.RWMutex (spec.md §5, §9 "Reader/writer controller lock"); besides it,
// startedMu guards only the deferred-start buffer, and each connection's
// queue carries its own mutex.
type Controller struct {
	mu    sync.RWMutex
	graph *graph.Graph

	registry *plugin.Registry
	content  *content.Manager
	log      *logger.Logger
	cfg      *config.Config

	processors map[string]processorHandle // node id -> live plug-in instance + its class name

	startedMu      sync.Mutex
	started        bool
	deferredStarts []func() error

	timerPool *workerpool.Pool
	eventPool *workerpool.Pool

	eventQueue *eventqueue.Queue

	timerAgent   *scheduler.TimerAgent
	cronAgent    *scheduler.CronAgent
	eventAgent   *scheduler.EventDrivenAgent
	primaryAgent *scheduler.PrimaryNodeOnlyAgent

	periodicTasks *workerpool.Group

	runCtx    context.Context
	runCancel context.CancelFunc
}

// processorHandle pairs a live plug-in instance with the class name it was
// instantiated from, so every later entry point into the plug-in (a
// lifecycle hook or a trigger dispatch) can re-install the same scoped
// class-loader context that construction ran under (spec.md §5).
type processorHandle struct {
	proc      plugin.Processor
	className string
}

// runWithScope installs className as the active plug-in class-loader scope
// for the duration of fn, restoring the previous scope on every exit path,
// including a panic unwinding through fn (spec.md §5).
func runWithScope(className string, fn func()) {
	release := plugin.Enter(className)
	defer release()
	fn()
}

// callWithScope is runWithScope's error-returning counterpart, for hooks
// whose signature can itself fail (OnScheduled, OnUnscheduled).
func callWithScope(className string, fn func() error) error {
	release := plugin.Enter(className)
	defer release()
	return fn()
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithRegistry installs the plug-in registry used to instantiate processors
// and reporting tasks by class name.
func WithRegistry(r *plugin.Registry) Option {
	return func(c *Controller) { c.registry = r }
}

// New constructs a Controller with an empty root process group named
// rootName, rooted at rootID.
func New(rootID, rootName string, cfg *config.Config, log *logger.Logger, opts ...Option) *Controller {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = logger.NewDefault("flowcontroller")
	}
	runCtx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		graph:      graph.New(rootID, rootName),
		registry:   plugin.NewRegistry(),
		content:    content.NewManager(),
		log:        log,
		cfg:        cfg,
		processors: make(map[string]processorHandle),
		eventQueue: eventqueue.New(),
		runCtx:     runCtx,
		runCancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.timerPool = workerpool.NewPool("timer", 10, runCtx)
	c.eventPool = workerpool.NewPool("event", 10, runCtx)

	c.timerAgent = scheduler.NewTimerAgent(c, c.timerPool, c, c.log, time.Duration(cfg.MinimumSchedulingNanos))
	c.cronAgent = scheduler.NewCronAgent(c, c.timerPool, c, c.log, time.Second)
	c.primaryAgent = scheduler.NewPrimaryNodeOnlyAgent(c, c.timerPool, c, c.log, time.Duration(cfg.MinimumSchedulingNanos))
	c.eventAgent = scheduler.NewEventDrivenAgent(c.eventQueue, c.eventPool, c, c, c.log, c.inboundNonEmpty, 4, 0)

	c.periodicTasks = workerpool.NewGroup()

	return c
}

// AddPeriodicTask registers a task (status snapshot, remote-group refresh,
// heartbeat generator/sender/bulletins) to be started and stopped alongside
// the controller's own lifecycle.
func (c *Controller) AddPeriodicTask(task *workerpool.PeriodicTask) {
	c.periodicTasks.Add(task)
}

// Name satisfies system.Service.
func (c *Controller) Name() string { return "flowcontroller" }

// Descriptor satisfies system.DescriptorProvider.
func (c *Controller) Descriptor() core.Descriptor {
	return core.Descriptor{Name: "flowcontroller", Domain: "flow", Layer: core.LayerController}
}

// Start begins scheduling. It does not itself start any component — that is
// governed by each Node's scheduled-state, set via startProcessor/
// startProcessGroup — but it must run before any deferred start can flush,
// so it flips the started flag and drains the deferred-start buffer
// (spec.md §4.1 "startDelayed").
func (c *Controller) Start(ctx context.Context) error {
	c.timerAgent.Start(c.runCtx)
	c.cronAgent.Start(c.runCtx)
	c.primaryAgent.Start(c.runCtx)
	c.eventAgent.Start(c.runCtx)
	c.periodicTasks.Start(c.runCtx)
	return c.startDelayed()
}

// Stop is an alias for a graceful shutdown using the configured grace
// period, satisfying system.Service.
func (c *Controller) Stop(ctx context.Context) error {
	return c.Shutdown(false)
}

// RLock, RUnlock, NodesByStrategy, and OutboundFull implement
// scheduler.GraphView: the scheduling agents acquire the shared lock around
// a single scan, then release it before dispatching triggers.
func (c *Controller) RLock()   { c.mu.RLock() }
func (c *Controller) RUnlock() { c.mu.RUnlock() }

// NodesByStrategy must only be called while holding RLock.
func (c *Controller) NodesByStrategy(strategy graph.SchedulingStrategy) []*graph.Node {
	return c.graph.NodesByStrategy(strategy)
}

// OutboundFull must only be called while holding RLock.
func (c *Controller) OutboundFull(nodeID string) bool {
	return c.graph.AnyOutboundFull(nodeID)
}

// Group, Node, and Connection expose read-only lookups for status.GraphView
// and the replay subsystem; callers must hold RLock for the duration.
func (c *Controller) Group(id string) (*graph.Group, bool)           { return c.graph.Group(id) }
func (c *Controller) Node(id string) (*graph.Node, bool)             { return c.graph.Node(id) }
func (c *Controller) Connection(id string) (*graph.Connection, bool) { return c.graph.Connection(id) }

// RootID returns the id of the root process group.
func (c *Controller) RootID() string { return c.graph.RootID() }

// AllRemoteGroups exposes every remote process group for the periodic
// refresh task; callers must hold RLock for the duration.
func (c *Controller) AllRemoteGroups() []*graph.RemoteGroup { return c.graph.AllRemoteGroups() }

// inboundNonEmpty reports whether any of node's inbound connections still
// holds queued work, used by the event-driven agent to decide whether to
// re-offer a just-triggered component.
func (c *Controller) inboundNonEmpty(node *graph.Node) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cid := range node.Inbound {
		if conn, ok := c.graph.Connection(cid); ok && !conn.Queue.IsEmpty() {
			return true
		}
	}
	return false
}

// withWriteLock runs fn under the exclusive lock, the shape every mutation
// path in spec.md §4.1 shares.
func (c *Controller) withWriteLock(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// withReadLock runs fn under the shared lock, the shape every query path
// shares.
func (c *Controller) withReadLock(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// isStarted reports whether initializeFlow has completed.
func (c *Controller) isStarted() bool {
	c.startedMu.Lock()
	defer c.startedMu.Unlock()
	return c.started
}

// startDelayed flushes every start request buffered before initialization
// completed, in the order they were issued (spec.md §4.1).
func (c *Controller) startDelayed() error {
	c.startedMu.Lock()
	pending := c.deferredStarts
	c.deferredStarts = nil
	c.started = true
	c.startedMu.Unlock()

	var firstErr error
	for _, start := range pending {
		if err := start(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("deferred start failed: %w", err)
		}
	}
	return firstErr
}

// deferOrRun either runs fn immediately (controller already initialised) or
// buffers it for startDelayed to flush later.
func (c *Controller) deferOrRun(fn func() error) error {
	c.startedMu.Lock()
	if !c.started {
		c.deferredStarts = append(c.deferredStarts, fn)
		c.startedMu.Unlock()
		return nil
	}
	c.startedMu.Unlock()
	return fn()
}

// Shutdown transitions the controller to terminated state: it stops every
// running component, cancels periodic tasks, and either drains each worker
// pool for up to half of gracefulShutdownSeconds (kill=false) or cancels them immediately
// (kill=true), reporting workerpool.ErrNotCleanlyTerminated if a pool could
// not be drained cleanly (spec.md §4.3, §8).
func (c *Controller) Shutdown(kill bool) error {
	c.timerAgent.Stop()
	c.cronAgent.Stop()
	c.primaryAgent.Stop()
	c.eventAgent.Stop()
	c.periodicTasks.Stop()

	c.mu.Lock()
	for _, node := range c.graph.AllNodes() {
		if node.State() == graph.StateRunning {
			_ = node.Stop()
		}
	}
	c.mu.Unlock()

	grace := time.Duration(c.cfg.GracefulShutdownSeconds) * time.Second
	if grace <= 0 {
		grace = time.Duration(config.DefaultGracefulShutdownSeconds) * time.Second
	}

	perPool := grace / 2

	var shutdownErr error
	if err := c.timerPool.Shutdown(kill, perPool); err != nil {
		shutdownErr = err
	}
	if err := c.eventPool.Shutdown(kill, perPool); err != nil {
		shutdownErr = err
	}
	c.runCancel()
	return shutdownErr
}

// unknownComponent is a small helper so create*/lifecycle files share one
// error shape for "id not found" checks done outside internal/graph.
func unknownComponent(id string) error {
	return ferrors.UnknownComponent(id)
}
