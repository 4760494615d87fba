// Package pipeline coordinates validation, de-duplication, and output
// writing for match records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-race-watch/config"
	"github.com/aluiziolira/go-race-watch/models"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []*models.MatchRecord) error
	Close() error
	Validate() error
}

// Pipeline batches validated records into the writer.
type Pipeline struct {
	ctx       context.Context
	writer    OutputWriter
	recordCh  chan *models.MatchRecord
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	counters counters

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline sized from cfg.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}
	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		// Only reachable with a non-positive size, which Validate rejects.
		panic(fmt.Sprintf("pipeline: dedupe cache: %v", err))
	}
	return &Pipeline{
		ctx:       ctx,
		writer:    writer,
		recordCh:  make(chan *models.MatchRecord, cfg.PipelineBufferSize),
		batchSize: cfg.BatchSize,
		seen:      seen,
		counters:  newCounters(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines. A single worker preserves the order
// records were enqueued in.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues records for downstream processing.
func (p *Pipeline) Process(records []*models.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := p.enqueue(record); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.counters.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				processed := metrics["processed_records"].(int64)
				validation := metrics["validation_errors"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("validation_errors", len(validation)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.MatchRecord, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for record := range p.recordCh {
		prepared := p.prepare(record)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) prepare(record *models.MatchRecord) *models.MatchRecord {
	if err := ValidateRecord(record); err != nil {
		p.counters.addValidation("invalid_record")
		return nil
	}

	key := record.Entry.HorseURL + "|" + record.Entry.RaceURL
	if _, dup := p.seen.Get(key); dup {
		p.counters.addValidation("duplicate_record")
		return nil
	}
	p.seen.Add(key, struct{}{})

	p.counters.incrementProcessed()
	return record
}

// ValidateRecord ensures a record carries the fields every MatchRecord
// must have.
func ValidateRecord(record *models.MatchRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(record.Entry.Horse) == "" {
		return fmt.Errorf("record missing horse name")
	}
	if strings.TrimSpace(record.Entry.HorseURL) == "" {
		return fmt.Errorf("record missing horse URL for %s", record.Entry.Horse)
	}
	if len(record.MatchedTerms) == 0 {
		return fmt.Errorf("record has no matched terms for %s", record.Entry.Horse)
	}
	return nil
}

func (p *Pipeline) enqueue(record *models.MatchRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case <-p.ctx.Done():
		return ErrPipelineClosed
	case p.recordCh <- record:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type counters struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newCounters() counters {
	return counters{
		validation: make(map[string]int),
	}
}

func (c *counters) incrementProcessed() {
	c.mu.Lock()
	c.processed++
	c.mu.Unlock()
}

func (c *counters) addValidation(kind string) {
	c.mu.Lock()
	c.validation[kind]++
	c.mu.Unlock()
}

func (c *counters) snapshot() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	copyValidation := make(map[string]int, len(c.validation))
	for k, v := range c.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_records": c.processed,
		"validation_errors": copyValidation,
	}
}
