package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
)

// NotificationWorkerConfig holds configuration for the retry worker
type NotificationWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	SendTimeout  time.Duration
}

// DefaultNotificationWorkerConfig returns default configuration
func DefaultNotificationWorkerConfig() NotificationWorkerConfig {
	return NotificationWorkerConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    20,
		MaxAttempts:  3,
		SendTimeout:  10 * time.Second,
	}
}

// NotificationWorker re-sends FAILED order notifications until they go
// through or run out of attempts.
type NotificationWorker struct {
	config NotificationWorkerConfig
	repo   port.NotificationRepository
	sender port.MessageSender
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	sent      int
	failed    int
}

// NewNotificationWorker creates a new notification retry worker
func NewNotificationWorker(
	config NotificationWorkerConfig,
	repo port.NotificationRepository,
	sender port.MessageSender,
	logger *zap.Logger,
) *NotificationWorker {
	defaults := DefaultNotificationWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}

	return &NotificationWorker{
		config: config,
		repo:   repo,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the polling loop
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("notification worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("NotificationWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_attempts", w.config.MaxAttempts))

	go w.pollLoop(runCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight batch to finish
func (w *NotificationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done

	w.mu.Lock()
	w.logger.Info("NotificationWorker stopped",
		zap.Int("sent_count", w.sent),
		zap.Int("failed_count", w.failed))
	w.mu.Unlock()
	return nil
}

// Name returns the worker name for identification
func (w *NotificationWorker) Name() string {
	return "NotificationWorker"
}

func (w *NotificationWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RetryOnce(ctx); err != nil {
				w.logger.Error("Failed to retry notifications", zap.Error(err))
			}
		}
	}
}

// RetryOnce processes one batch of retryable notifications and returns how
// many were delivered.
func (w *NotificationWorker) RetryOnce(ctx context.Context) (int, error) {
	pending, err := w.repo.ListRetryable(ctx, w.config.MaxAttempts, w.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list retryable notifications: %w", err)
	}

	delivered := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			break
		}

		sendCtx, cancel := context.WithTimeout(ctx, w.config.SendTimeout)
		sendErr := w.sender.SendText(sendCtx, n.Recipient, n.Message)
		cancel()

		if sendErr != nil {
			w.logger.Warn("Notification retry failed",
				zap.Int64("notification_id", n.ID),
				zap.String("order_number", n.OrderNumber),
				zap.Int("attempts", n.Attempts+1),
				zap.Error(sendErr))
			if err := w.repo.MarkFailed(ctx, n.ID, sendErr.Error()); err != nil {
				w.logger.Error("Failed to record notification failure",
					zap.Int64("notification_id", n.ID), zap.Error(err))
			}
			w.mu.Lock()
			w.failed++
			w.mu.Unlock()
			continue
		}

		if err := w.repo.MarkSent(ctx, n.ID, w.now()); err != nil {
			w.logger.Error("Failed to mark notification sent",
				zap.Int64("notification_id", n.ID), zap.Error(err))
			continue
		}
		delivered++
		w.mu.Lock()
		w.sent++
		w.mu.Unlock()
	}

	if len(pending) > 0 {
		w.logger.Info("Notification retry batch done",
			zap.Int("candidates", len(pending)),
			zap.Int("delivered", delivered))
	}
	return delivered, nil
}
