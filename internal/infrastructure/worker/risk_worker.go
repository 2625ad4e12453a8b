package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
)

// RiskScorer assesses a single invoice. Implemented by the invoice
// application service; scoring an already-assessed invoice is a no-op.
type RiskScorer interface {
	AssessRisk(ctx context.Context, id uuid.UUID) error
}

// RiskWorkerConfig holds configuration for the risk retry worker
type RiskWorkerConfig struct {
	PollInterval  time.Duration
	BatchSize     int
	AssessTimeout time.Duration
}

// DefaultRiskWorkerConfig returns default configuration
func DefaultRiskWorkerConfig() RiskWorkerConfig {
	return RiskWorkerConfig{
		PollInterval:  time.Minute,
		BatchSize:     10,
		AssessTimeout: 30 * time.Second,
	}
}

// RiskWorker retries risk scoring for invoices whose initial
// fire-and-forget assessment never produced a verdict, typically
// because the scoring gateway was unavailable at upload time.
type RiskWorker struct {
	config RiskWorkerConfig

	invoiceRepo port.InvoiceRepository
	scorer      RiskScorer
	logger      *zap.Logger

	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	isRunning      bool
	lastProcessed  time.Time
	processedCount int
	failedCount    int
	lastError      error
}

// NewRiskWorker creates a new risk retry worker
func NewRiskWorker(
	config RiskWorkerConfig,
	invoiceRepo port.InvoiceRepository,
	scorer RiskScorer,
	logger *zap.Logger,
) *RiskWorker {
	return &RiskWorker{
		config:        config,
		invoiceRepo:   invoiceRepo,
		scorer:        scorer,
		logger:        logger,
		lastProcessed: time.Now(),
	}
}

// Start begins the worker polling loop
func (w *RiskWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("risk worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("RiskWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *RiskWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("RiskWorker stopped",
		zap.Int("processed_count", w.processedCount),
		zap.Int("failed_count", w.failedCount))

	return nil
}

// Name returns the worker name for identification
func (w *RiskWorker) Name() string {
	return "RiskWorker"
}

// pollLoop runs the main polling loop in background
func (w *RiskWorker) pollLoop() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Poll loop context cancelled")
			return

		case <-ticker.C:
			if err := w.processUnassessed(); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Failed to process unassessed invoices", zap.Error(err))
			}

			w.mu.Lock()
			w.lastProcessed = time.Now()
			w.mu.Unlock()
		}
	}
}

// processUnassessed scores a batch of invoices that still lack a verdict
func (w *RiskWorker) processUnassessed() error {
	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	invoices, err := w.invoiceRepo.List(ctx, port.InvoiceFilter{
		Unassessed: true,
		Limit:      w.config.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to list unassessed invoices: %w", err)
	}

	if len(invoices) == 0 {
		return nil
	}

	w.logger.Debug("Retrying risk assessments", zap.Int("count", len(invoices)))

	for _, inv := range invoices {
		if err := w.assessInvoice(ctx, inv.ID); err != nil {
			// Gateway outages resolve themselves; the next tick retries.
			w.logger.Warn("Risk assessment retry failed",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err))

			w.mu.Lock()
			w.failedCount++
			w.mu.Unlock()
		} else {
			w.mu.Lock()
			w.processedCount++
			w.mu.Unlock()
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
	}

	return nil
}

// assessInvoice scores a single invoice with a bounded timeout
func (w *RiskWorker) assessInvoice(ctx context.Context, id uuid.UUID) error {
	assessCtx, cancel := context.WithTimeout(ctx, w.config.AssessTimeout)
	defer cancel()

	return w.scorer.AssessRisk(assessCtx, id)
}
