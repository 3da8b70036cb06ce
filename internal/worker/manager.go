package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// Manager runs worker goroutines that consume the feed stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	log         *logrus.Entry

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig, log *logrus.Entry) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		log:         log,
	}
}

// Start ensures the consumer group and launches the workers. Stop shuts them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed); err != nil {
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, consumerNameForWorker(i))
	}

	m.log.WithFields(logrus.Fields{
		"workers": m.workerCount, "stream": queue.StreamFeed, "group": queue.ConsumerGroupFeed,
	}).Info("Workers started")
	return nil
}

// Stop blocks until every worker has returned.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.log.Info("All workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := m.log.WithField("worker", workerID)

	// crash recovery: finish what this consumer was handed last time
	m.processPending(log, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(log, consumerName)
		}
	}
}

func (m *Manager) processPending(log *logrus.Entry, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed, consumerName, m.batchSize)
		if err != nil {
			log.WithError(err).Warn("Reading pending messages failed")
			return
		}
		if len(messages) == 0 {
			return
		}
		log.WithField("count", len(messages)).Info("Processing pending messages")
		m.handleMessages(log, messages)
	}
}

func (m *Manager) processMessages(log *logrus.Entry, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("Read failed")
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}
	m.handleMessages(log, messages)
}

// handleMessages acks every message, including failed ones, so one bad event
// cannot wedge the stream.
func (m *Manager) handleMessages(log *logrus.Entry, messages []queue.Message) {
	for _, msg := range messages {
		switch {
		case msg.Err != nil:
			log.WithField("msg_id", msg.ID).WithError(msg.Err).Warn("Dropping malformed message")
		default:
			if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
				log.WithField("msg_id", msg.ID).WithError(err).Warn("Handler error")
			}
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamFeed, queue.ConsumerGroupFeed, msg.ID); err != nil {
			log.WithField("msg_id", msg.ID).WithError(err).Warn("Ack failed")
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return fmt.Sprintf("worker-%d", workerID)
}
