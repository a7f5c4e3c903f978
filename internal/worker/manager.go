package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/queue"
)

// ManagerConfig holds configuration for the worker pool supervisor.
type ManagerConfig struct {
	// Concurrency is the number of workers in the pool.
	Concurrency int

	// ClaimBatchSize is the maximum number of tasks one claim call returns.
	ClaimBatchSize int

	// BlockTimeout bounds how long an empty claim call waits for work.
	BlockTimeout time.Duration

	// HandlerTimeout bounds a single handler invocation.
	HandlerTimeout time.Duration

	// ShutdownGracePeriod is how long Stop waits for in-flight tasks to
	// resolve before abandoning them to the visibility sweep.
	ShutdownGracePeriod time.Duration
}

// DefaultManagerConfig returns a ManagerConfig with reasonable defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Concurrency:         4,
		ClaimBatchSize:      10,
		BlockTimeout:        5 * time.Second,
		HandlerTimeout:      10 * time.Minute,
		ShutdownGracePeriod: 30 * time.Second,
	}
}

// Manager supervises a fixed pool of workers bound to one consumer group.
// Workers never share state directly; every hand-off goes through the
// queue's atomic claim/ack/nack operations, so a Manager can run alongside
// other processes consuming the same queue.
type Manager struct {
	queue    queue.Queue
	registry *Registry
	config   ManagerConfig
	logger   *slog.Logger

	group string

	// claimCancel stops workers from claiming new batches; procCancel
	// additionally cancels in-flight handler contexts.
	claimCancel context.CancelFunc
	procCancel  context.CancelFunc
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewManager creates a Manager. The registry is treated as closed from this
// point on.
func NewManager(q queue.Queue, registry *Registry, config ManagerConfig, logger *slog.Logger) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
		logger.Warn("invalid worker concurrency specified, using 1")
	}
	if config.ClaimBatchSize <= 0 {
		config.ClaimBatchSize = 1
	}

	return &Manager{
		queue:    q,
		registry: registry,
		config:   config,
		logger:   logger.With("component", "worker_manager"),
		group:    fmt.Sprintf("workers-%s", uuid.New().String()[:8]),
	}
}

// Start launches the pool. Each worker gets a distinct consumer identity so
// stale claims can be traced back to the worker that abandoned them.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("worker manager already started")
	}
	m.started = true

	procCtx, procCancel := context.WithCancel(context.Background())
	claimCtx, claimCancel := context.WithCancel(procCtx)
	m.procCancel = procCancel
	m.claimCancel = claimCancel

	for i := 0; i < m.config.Concurrency; i++ {
		w := &worker{
			id:             fmt.Sprintf("%s-%d", m.group, i),
			queue:          m.queue,
			registry:       m.registry,
			batchSize:      m.config.ClaimBatchSize,
			blockTimeout:   m.config.BlockTimeout,
			handlerTimeout: m.config.HandlerTimeout,
			logger:         m.logger.With("worker_id", fmt.Sprintf("%s-%d", m.group, i)),
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.run(claimCtx, procCtx)
		}()
	}

	m.logger.Info("worker manager started",
		"concurrency", m.config.Concurrency,
		"consumer_group", m.group,
		"handlers", m.registry.Types())
	return nil
}

// Stop shuts the pool down gracefully. Workers first stop claiming new
// batches while in-flight work continues; if everything resolves within the
// grace period Stop returns cleanly. Otherwise remaining handler contexts
// are cancelled and the workers abandoned; their claims exceed the
// visibility deadline and the next claim call sweeps them, so tasks are
// redelivered rather than lost.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	claimCancel := m.claimCancel
	procCancel := m.procCancel
	m.mu.Unlock()

	m.logger.Info("worker manager stopping",
		"grace_period", m.config.ShutdownGracePeriod)
	claimCancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("worker manager stopped")
	case <-time.After(m.config.ShutdownGracePeriod):
		m.logger.Warn("shutdown grace period elapsed, abandoning in-flight work",
			"consumer_group", m.group)
		procCancel()
	}
	// Release the root context in the clean path too.
	procCancel()
}
