package helm

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"
)

// fakeDeployer fails with the queued errors before succeeding.
type fakeDeployer struct {
	failures []error
	calls    int
	values   map[string]any
}

func (d *fakeDeployer) UpgradeOrInstall(_ context.Context, values map[string]any) error {
	d.calls++
	d.values = values

	if len(d.failures) > 0 {
		err := d.failures[0]
		d.failures = d.failures[1:]

		return err
	}

	return nil
}

type fakeNamespaces struct {
	ensured []string
	err     error
}

func (n *fakeNamespaces) EnsureNamespace(_ context.Context, name string) error {
	n.ensured = append(n.ensured, name)

	return n.err
}

func newTestInvoker(deployer *fakeDeployer, namespaces *fakeNamespaces, attempts int) *Invoker {
	invoker := NewInvoker(deployer, namespaces, "gatus", attempts, time.Minute, nil)
	invoker.Backoff = wait.Backoff{
		Steps:    attempts,
		Duration: time.Millisecond,
		Factor:   2.0,
	}

	return invoker
}

func TestDeploy_Success(t *testing.T) {
	t.Parallel()

	deployer := &fakeDeployer{}
	namespaces := &fakeNamespaces{}
	invoker := newTestInvoker(deployer, namespaces, 5)

	values := map[string]any{"config": map[string]any{}}
	err := invoker.Deploy(context.Background(), values)

	require.NoError(t, err)
	assert.Equal(t, 1, deployer.calls)
	assert.Equal(t, []string{"gatus"}, namespaces.ensured)
	assert.Equal(t, values, deployer.values)
}

func TestDeploy_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	// Three transient failures, then success, inside a ceiling of five.
	deployer := &fakeDeployer{
		failures: []error{
			errors.New("dial tcp: connection refused"),
			context.DeadlineExceeded,
			errors.New("request timeout"),
		},
	}
	invoker := newTestInvoker(deployer, &fakeNamespaces{}, 5)

	err := invoker.Deploy(context.Background(), map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, 4, deployer.calls)
}

func TestDeploy_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	deployer := &fakeDeployer{
		failures: []error{
			errors.New("connection refused"),
			errors.New("connection refused"),
			errors.New("connection refused"),
		},
	}
	invoker := newTestInvoker(deployer, &fakeNamespaces{}, 3)

	err := invoker.Deploy(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Equal(t, 3, deployer.calls)
}

func TestDeploy_FatalFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	deployer := &fakeDeployer{
		failures: []error{
			errors.New("chart not found in repository"),
		},
	}
	invoker := newTestInvoker(deployer, &fakeNamespaces{}, 5)

	err := invoker.Deploy(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Equal(t, 1, deployer.calls)
}

func TestDeploy_NamespaceFailureAbortsDeploy(t *testing.T) {
	t.Parallel()

	deployer := &fakeDeployer{}
	namespaces := &fakeNamespaces{err: errors.New("boom")}
	invoker := newTestInvoker(deployer, namespaces, 5)

	err := invoker.Deploy(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Zero(t, deployer.calls)
}

func TestDeploy_ShutdownStopsRetries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	deployer := &fakeDeployer{
		failures: []error{
			errors.New("connection refused"),
			errors.New("connection refused"),
		},
	}
	invoker := newTestInvoker(deployer, &fakeNamespaces{}, 5)

	// Cancel before the first attempt: the attempt itself still runs on a
	// detached context, but no retries follow its failure.
	cancel()

	err := invoker.Deploy(ctx, map[string]any{})

	require.Error(t, err)
	assert.Equal(t, 1, deployer.calls)
}
