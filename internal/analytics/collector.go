// Package analytics ships query events to Kafka in batches without slowing
// down request handling.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegborzov/themesearcher/pkg/kafka"
)

// Publisher writes a batch of events, typically a *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events in a channel and publishes them in batches of up
// to batchSize, or every flushInterval, whichever comes first. Track never
// blocks; events are dropped when the buffer is full or the collector has
// stopped.
type Collector struct {
	publisher     Publisher
	mu            sync.RWMutex // guards closed and closing eventCh
	closed        bool
	eventCh       chan QueryEvent
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
	started       atomic.Bool
	dropped       atomic.Int64
	published     atomic.Int64
}

func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan QueryEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publishing loop. It stops when ctx is cancelled or
// Close is called, flushing what it holds first.
func (c *Collector) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.flush(context.Background(), batch)
					return
				}
				batch = append(batch, kafka.Event{Key: event.Key(), Value: event})
				if len(batch) >= c.batchSize {
					c.flush(ctx, batch)
					batch = make([]kafka.Event, 0, c.batchSize)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					c.flush(ctx, batch)
					batch = make([]kafka.Event, 0, c.batchSize)
				}
			case <-ctx.Done():
				c.stop()
				batch = c.drainRemaining(batch)
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx, batch)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) Track(event QueryEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		c.logger.Debug("analytics event dropped (collector stopped)")
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the loop to flush what it
// holds. It is safe to call more than once and concurrently with Track.
func (c *Collector) Close() {
	c.stop()
	if c.started.Load() {
		<-c.done
	}
}

func (c *Collector) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
}

func (c *Collector) Dropped() int64   { return c.dropped.Load() }
func (c *Collector) Published() int64 { return c.published.Load() }

// drainRemaining reads eventCh until it is closed. Only call after stop.
func (c *Collector) drainRemaining(batch []kafka.Event) []kafka.Event {
	for event := range c.eventCh {
		batch = append(batch, kafka.Event{Key: event.Key(), Value: event})
	}
	return batch
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		return
	}
	c.published.Add(int64(len(batch)))
	c.logger.Debug("analytics batch published", "events", len(batch))
}
