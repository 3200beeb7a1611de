package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker emits periodic log lines while many records move through
// an operation, such as a CSV parse. Callers bump the counter once per
// record; the tracker writes a progress line at most once per interval so
// a large file cannot flood the log.
type ProgressTracker struct {
	logger    Logger
	operation string
	total     int64
	interval  time.Duration

	mu      sync.Mutex
	count   int64
	started time.Time
	lastLog time.Time
}

// ProgressConfig configures a ProgressTracker. Total may be zero when the
// record count is not known up front, as with a streamed CSV read; the
// percentage field is then omitted from progress lines.
type ProgressConfig struct {
	Operation   string
	Total       int64
	LogInterval time.Duration
	Logger      Logger
}

// NewProgressTracker starts tracking an operation and logs its start.
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	now := time.Now()
	tracker := &ProgressTracker{
		logger:    config.Logger.WithComponent("progress"),
		operation: config.Operation,
		total:     config.Total,
		interval:  config.LogInterval,
		started:   now,
		lastLog:   now,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Increment records one processed record, logging progress when the
// interval has elapsed since the last progress line.
func (p *ProgressTracker) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	if now := time.Now(); now.Sub(p.lastLog) >= p.interval {
		p.logger.WithFields(p.progressFields(now)).Info("Progress update")
		p.lastLog = now
	}
}

// Complete logs the final count, duration and processing rate.
func (p *ProgressTracker) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.WithFields(p.progressFields(time.Now())).Info("Operation completed")
}

// CompleteWithError logs the counts gathered so far together with the
// error that stopped the operation. Used on cancellation mid-file, where
// the processed count tells how far the read got.
func (p *ProgressTracker) CompleteWithError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.WithError(err).WithFields(p.progressFields(time.Now())).Error("Operation completed with error")
}

// progressFields builds the shared log fields. Caller holds the mutex.
func (p *ProgressTracker) progressFields(now time.Time) Fields {
	duration := now.Sub(p.started)

	fields := Fields{
		"operation": p.operation,
		"processed": p.count,
		"duration":  duration.String(),
	}

	if seconds := duration.Seconds(); seconds > 0 {
		fields["rate"] = fmt.Sprintf("%.2f/sec", float64(p.count)/seconds)
	}

	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(p.count)/float64(p.total)*100)
	}

	return fields
}

// OperationLogger logs the lifecycle of one multi-step operation: a start
// line, a line per step, and a success or error line carrying the total
// duration. Fields attached with WithField appear on every subsequent
// line, so a run's context (file paths, record counts) follows it through.
type OperationLogger struct {
	logger    Logger
	operation string
	fields    Fields
	started   time.Time
}

// NewOperationLogger starts an operation and logs its start.
func NewOperationLogger(operation string, logger Logger) *OperationLogger {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	ol := &OperationLogger{
		logger:    logger.WithComponent("operation"),
		operation: operation,
		fields:    make(Fields),
		started:   time.Now(),
	}

	ol.logger.WithField("operation", operation).Info("Starting operation")
	return ol
}

// WithField attaches a field to all subsequent lines of this operation.
func (ol *OperationLogger) WithField(key string, value interface{}) *OperationLogger {
	ol.fields[key] = value
	return ol
}

// Step logs one named step of the operation.
func (ol *OperationLogger) Step(step string) {
	fields := Fields{"step": step}
	ol.logger.WithFields(ol.lineFields(fields)).Info("Operation step")
}

// Success closes the operation, logging its duration.
func (ol *OperationLogger) Success(message string) {
	fields := Fields{
		"duration": time.Since(ol.started).String(),
		"status":   "success",
	}
	ol.logger.WithFields(ol.lineFields(fields)).Info(message)
}

// Error closes the operation with the error that ended it.
func (ol *OperationLogger) Error(err error, message string) {
	fields := Fields{
		"duration": time.Since(ol.started).String(),
		"status":   "error",
	}
	ol.logger.WithError(err).WithFields(ol.lineFields(fields)).Error(message)
}

// lineFields merges the per-line fields with the operation context.
func (ol *OperationLogger) lineFields(extra Fields) Fields {
	fields := Fields{"operation": ol.operation}
	for k, v := range ol.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
