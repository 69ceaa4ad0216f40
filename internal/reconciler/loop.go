package reconciler

import (
	"context"
	"log/slog"
	"time"

	netv1 "k8s.io/api/networking/v1"
	"k8s.io/utils/clock"

	"github.com/lexfrei/gatus-ingress-operator/internal/gatus"
	"github.com/lexfrei/gatus-ingress-operator/internal/metrics"
)

// Lister fetches the full cluster-wide Ingress snapshot.
type Lister interface {
	ListIngresses(ctx context.Context) ([]netv1.Ingress, error)
}

// Deployer applies a values document to the cluster.
type Deployer interface {
	Deploy(ctx context.Context, values map[string]any) error
}

// Loop drives reconciliation cycles off watch notifications.
type Loop struct {
	Lister   Lister
	Builder  *gatus.Builder
	Deployer Deployer
	Notifier *Notifier

	// Clock drives the debounce window. Injected for tests.
	Clock            clock.Clock
	DebounceInterval time.Duration

	Metrics metrics.Collector
	Logger  *slog.Logger

	// lastApplied is the last successfully deployed document.
	// Owned exclusively by the Run goroutine.
	lastApplied *gatus.Document
}

// NewLoop creates a reconciliation loop.
func NewLoop(
	lister Lister,
	builder *gatus.Builder,
	deployer Deployer,
	notifier *Notifier,
	debounceInterval time.Duration,
	metricsCollector metrics.Collector,
	logger *slog.Logger,
) *Loop {
	if metricsCollector == nil {
		metricsCollector = metrics.NewNoopCollector()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Loop{
		Lister:           lister,
		Builder:          builder,
		Deployer:         deployer,
		Notifier:         notifier,
		Clock:            clock.RealClock{},
		DebounceInterval: debounceInterval,
		Metrics:          metricsCollector,
		Logger:           logger.With("component", "reconciler"),
	}
}

// Run blocks processing notifications until the context is cancelled.
// Cycles run strictly one at a time; an in-flight deploy finishes (bounded
// by its own timeout) even after cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.Logger.Info("reconciliation loop started", "debounceInterval", l.DebounceInterval)

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("reconciliation loop stopped")

			return nil
		case <-l.Notifier.C():
			if !l.debounce(ctx) {
				l.Logger.Info("reconciliation loop stopped")

				return nil
			}

			l.runCycle(ctx)
		}
	}
}

// LastApplied returns the last successfully deployed document, or nil.
// Intended for the Run goroutine and for tests after Run has returned.
func (l *Loop) LastApplied() *gatus.Document {
	return l.lastApplied
}

// debounce waits out the configured window so event bursts collapse into
// one cycle. Notifications arriving during the window are covered by the
// relist the cycle performs, so the pending flag is cleared afterwards.
// Returns false if the context was cancelled while waiting.
func (l *Loop) debounce(ctx context.Context) bool {
	timer := l.Clock.NewTimer(l.DebounceInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C():
	}

	l.Notifier.Drain()

	return true
}

func (l *Loop) runCycle(ctx context.Context) {
	startTime := time.Now()

	snapshot, err := l.Lister.ListIngresses(ctx)
	if err != nil {
		l.Logger.Error("failed to list ingresses, cycle aborted", "error", err)
		l.Metrics.RecordReconcileError(ctx, metrics.ClassifyError(err))
		l.Metrics.RecordReconcileDuration(ctx, "error", time.Since(startTime))

		return
	}

	l.Metrics.RecordIngresses(ctx, len(snapshot))

	document := l.Builder.Build(ctx, snapshot)

	changed, err := gatus.Changed(document, l.lastApplied)
	if err != nil {
		l.Logger.Error("failed to compare documents, cycle aborted", "error", err)
		l.Metrics.RecordReconcileError(ctx, metrics.ClassifyError(err))
		l.Metrics.RecordReconcileDuration(ctx, "error", time.Since(startTime))

		return
	}

	if !changed {
		l.Logger.Debug("configuration unchanged, skipping deploy",
			"endpoints", len(document.Endpoints),
		)
		l.Metrics.RecordReconcileDuration(ctx, "unchanged", time.Since(startTime))

		return
	}

	l.Logger.Info("configuration changed, deploying",
		"endpoints", len(document.Endpoints),
		"ingresses", len(snapshot),
	)

	if err := l.Deployer.Deploy(ctx, document.Values()); err != nil {
		// Last-applied state stays at the prior value so the next event
		// retries this document.
		l.Logger.Error("deploy failed, cycle aborted", "error", err)
		l.Metrics.RecordReconcileError(ctx, metrics.ClassifyError(err))
		l.Metrics.RecordReconcileDuration(ctx, "error", time.Since(startTime))

		return
	}

	l.lastApplied = document

	l.Logger.Info("deploy succeeded", "endpoints", len(document.Endpoints))
	l.Metrics.RecordReconcileDuration(ctx, "success", time.Since(startTime))
}
