package helm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
)

const (
	retryInitialDelay = 2 * time.Second
	retryFactor       = 2.0
	retryJitter       = 0.1
)

// NamespaceEnsurer guarantees a namespace exists before a deploy.
type NamespaceEnsurer interface {
	EnsureNamespace(ctx context.Context, name string) error
}

// Invoker wraps a Deployer with namespace assurance, a per-attempt timeout
// and exponential backoff for retryable failures.
type Invoker struct {
	Deployer   Deployer
	Namespaces NamespaceEnsurer
	Namespace  string
	Timeout    time.Duration
	Logger     *slog.Logger

	// Backoff governs the retry schedule; Steps is the attempt ceiling.
	Backoff wait.Backoff
}

// NewInvoker creates an Invoker around the given Deployer.
func NewInvoker(
	deployer Deployer,
	namespaces NamespaceEnsurer,
	namespace string,
	attempts int,
	timeout time.Duration,
	logger *slog.Logger,
) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Invoker{
		Deployer:   deployer,
		Namespaces: namespaces,
		Namespace:  namespace,
		Timeout:    timeout,
		Logger:     logger.With("component", "deploy-invoker"),
		Backoff: wait.Backoff{
			Steps:    attempts,
			Duration: retryInitialDelay,
			Factor:   retryFactor,
			Jitter:   retryJitter,
		},
	}
}

// Deploy ensures the target namespace exists and applies the values
// document. Retryable failures are retried with exponential backoff up to
// the attempt ceiling; the last error is returned once retries are
// exhausted. Fatal failures return immediately.
func (i *Invoker) Deploy(ctx context.Context, values map[string]any) error {
	if err := i.Namespaces.EnsureNamespace(ctx, i.Namespace); err != nil {
		return errors.Wrapf(err, "failed to ensure namespace %s", i.Namespace)
	}

	// Shutdown stops further retries but never kills an attempt already in
	// flight: each attempt runs on a detached context bounded only by the
	// deploy timeout, so an interrupted process cannot leave the release
	// half-applied.
	retryable := func(err error) bool {
		if ctx.Err() != nil {
			return false
		}

		return IsRetryable(err)
	}

	attempt := 0

	err := retry.OnError(i.Backoff, retryable, func() error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.Timeout)
		defer cancel()

		deployErr := i.Deployer.UpgradeOrInstall(attemptCtx, values)
		if deployErr != nil {
			i.Logger.Warn("deploy attempt failed",
				"attempt", attempt,
				"maxAttempts", i.Backoff.Steps,
				"retryable", IsRetryable(deployErr),
				"error", deployErr,
			)
		}

		return deployErr
	})
	if err != nil {
		return errors.Wrap(err, "deploy failed")
	}

	return nil
}
