package helm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"helm.sh/helm/v4/pkg/action"
	"helm.sh/helm/v4/pkg/chart"
	"helm.sh/helm/v4/pkg/chart/loader"
	"helm.sh/helm/v4/pkg/cli"
	"helm.sh/helm/v4/pkg/kube"

	"github.com/lexfrei/gatus-ingress-operator/internal/config"
	"github.com/lexfrei/gatus-ingress-operator/internal/metrics"
)

// Deployer applies a values document as a Helm release with
// upgrade-or-install semantics. Implementations must be atomic: a failed
// deploy leaves the previous release state intact.
type Deployer interface {
	UpgradeOrInstall(ctx context.Context, values map[string]any) error
}

// Manager deploys the Gatus chart through the Helm SDK.
type Manager struct {
	settings    *cli.EnvSettings
	chartName   string
	repoURL     string
	version     string
	releaseName string
	namespace   string
	timeout     time.Duration
	metrics     metrics.Collector
	logger      *slog.Logger

	chartCache   chart.Charter
	chartVersion string
	cacheMu      sync.RWMutex
}

// NewManager creates a Manager for the configured chart and release.
func NewManager(cfg *config.Config, metricsCollector metrics.Collector, logger *slog.Logger) *Manager {
	if metricsCollector == nil {
		metricsCollector = metrics.NewNoopCollector()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		settings:    cli.New(),
		chartName:   cfg.Chart,
		repoURL:     cfg.ChartRepository,
		version:     cfg.ChartVersion,
		releaseName: cfg.HelmRelease,
		namespace:   cfg.HelmNamespace,
		timeout:     cfg.DeployTimeout,
		metrics:     metricsCollector,
		logger:      logger.With("component", "helm-manager"),
	}
}

// UpgradeOrInstall installs the release if it does not exist, upgrades it
// otherwise. Both paths are atomic and bounded by the configured timeout.
func (m *Manager) UpgradeOrInstall(ctx context.Context, values map[string]any) error {
	actionConfig, err := m.actionConfig()
	if err != nil {
		return err
	}

	loadedChart, err := m.loadChart(actionConfig)
	if err != nil {
		return err
	}

	if m.releaseExists(actionConfig) {
		return m.upgrade(ctx, actionConfig, loadedChart, values)
	}

	return m.install(ctx, actionConfig, loadedChart, values)
}

func (m *Manager) actionConfig() (*action.Configuration, error) {
	actionConfig := new(action.Configuration)

	err := actionConfig.Init(m.settings.RESTClientGetter(), m.namespace, "secret")
	if err != nil {
		return nil, errors.Wrap(err, "failed to init action config")
	}

	return actionConfig, nil
}

// loadChart locates the chart in the HTTP repository and loads it.
// Pinned versions are cached; an empty version always re-resolves so a
// newly published chart is picked up.
func (m *Manager) loadChart(actionConfig *action.Configuration) (chart.Charter, error) {
	m.cacheMu.RLock()

	if m.chartCache != nil && m.version != "" && m.chartVersion == m.version {
		m.cacheMu.RUnlock()

		return m.chartCache, nil
	}

	m.cacheMu.RUnlock()

	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if m.chartCache != nil && m.version != "" && m.chartVersion == m.version {
		return m.chartCache, nil
	}

	m.logger.Info("locating chart in repository",
		"chart", m.chartName,
		"repository", m.repoURL,
		"version", m.version,
	)

	locate := action.NewInstall(actionConfig)
	locate.ChartPathOptions.RepoURL = m.repoURL
	locate.ChartPathOptions.Version = m.version

	chartPath, err := locate.ChartPathOptions.LocateChart(m.chartName, m.settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate chart")
	}

	loadedChart, err := loader.Load(chartPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load chart")
	}

	m.chartCache = loadedChart
	m.chartVersion = m.version

	return loadedChart, nil
}

func (m *Manager) install(
	ctx context.Context,
	cfg *action.Configuration,
	loadedChart chart.Charter,
	values map[string]any,
) error {
	startTime := time.Now()

	install := action.NewInstall(cfg)
	install.ReleaseName = m.releaseName
	install.Namespace = m.namespace
	install.CreateNamespace = false
	install.RollbackOnFailure = true
	install.WaitStrategy = kube.StatusWatcherStrategy
	install.Timeout = m.timeout

	_, err := install.RunWithContext(ctx, loadedChart, values)
	if err != nil {
		m.metrics.RecordHelmOperation(ctx, "install", "error", time.Since(startTime))
		m.metrics.RecordHelmError(ctx, "install", metrics.ClassifyError(err))

		return errors.Wrap(err, "failed to install release")
	}

	m.metrics.RecordHelmOperation(ctx, "install", "success", time.Since(startTime))
	m.recordChartInfo(ctx, loadedChart)

	return nil
}

func (m *Manager) upgrade(
	ctx context.Context,
	cfg *action.Configuration,
	loadedChart chart.Charter,
	values map[string]any,
) error {
	startTime := time.Now()

	upgrade := action.NewUpgrade(cfg)
	upgrade.Namespace = m.namespace
	upgrade.RollbackOnFailure = true
	upgrade.WaitStrategy = kube.StatusWatcherStrategy
	upgrade.Timeout = m.timeout
	upgrade.ReuseValues = false

	_, err := upgrade.RunWithContext(ctx, m.releaseName, loadedChart, values)
	if err != nil {
		m.metrics.RecordHelmOperation(ctx, "upgrade", "error", time.Since(startTime))
		m.metrics.RecordHelmError(ctx, "upgrade", metrics.ClassifyError(err))

		return errors.Wrap(err, "failed to upgrade release")
	}

	m.metrics.RecordHelmOperation(ctx, "upgrade", "success", time.Since(startTime))
	m.recordChartInfo(ctx, loadedChart)

	return nil
}

func (m *Manager) releaseExists(cfg *action.Configuration) bool {
	get := action.NewGet(cfg)

	_, err := get.Run(m.releaseName)

	return err == nil
}

func (m *Manager) recordChartInfo(ctx context.Context, loadedChart chart.Charter) {
	accessor, err := chart.NewAccessor(loadedChart)
	if err != nil {
		return
	}

	metadata := accessor.MetadataAsMap()
	name, _ := metadata["name"].(string)
	version, _ := metadata["version"].(string)
	appVersion, _ := metadata["appVersion"].(string)
	m.metrics.RecordHelmChartInfo(ctx, name, version, appVersion)
}
