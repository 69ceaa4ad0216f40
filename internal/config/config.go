// Package config provides operator configuration resolution and validation.
package config

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"sigs.k8s.io/yaml"
)

// Defaults matching the Gatus chart published at avakarev.github.io.
const (
	DefaultChart           = "gatus"
	DefaultChartRepository = "https://avakarev.github.io/gatus-chart"
	DefaultChartVersion    = "2.5.5"
	DefaultHelmNamespace   = "gatus"
	DefaultHelmRelease     = "gatus"
	DefaultDBFile          = "/srv/gatus.db"

	DefaultDebounceInterval = 5 * time.Second
	DefaultDeployTimeout    = 5 * time.Minute
	DefaultDeployAttempts   = 5
)

// Config holds all configuration options for the operator.
// Values are typically populated from CLI flags or GATUS_* environment variables.
type Config struct {
	// Chart is the Helm chart name within the repository.
	Chart string

	// ChartRepository is the HTTP URL of the Helm chart repository.
	ChartRepository string

	// ChartVersion is the chart version to deploy. Empty means latest.
	ChartVersion string

	// HelmNamespace is the namespace the release is installed into.
	// Created on demand if it does not exist.
	HelmNamespace string

	// HelmRelease is the Helm release name.
	HelmRelease string

	// HelmValues is a JSON or YAML document with user chart value overrides,
	// merged under the operator-managed values. Operator-managed keys
	// (config.endpoints, config.storage) cannot be overridden.
	HelmValues string

	// DBFile is the sqlite storage path configured for Gatus.
	DBFile string

	// DebounceInterval is the minimum quiet period between a watch event
	// and the reconciliation pass it triggers.
	DebounceInterval time.Duration

	// DeployTimeout bounds a single Helm install/upgrade attempt.
	DeployTimeout time.Duration

	// DeployAttempts is the retry ceiling for retryable deploy failures.
	DeployAttempts int

	// MetricsAddr is the address for the Prometheus metrics endpoint.
	MetricsAddr string
}

// Validate checks the configuration for values that can never work.
// Called once at startup; failures here are fatal.
func (c *Config) Validate() error {
	if c.Chart == "" {
		return errors.New("chart name is required")
	}

	if c.ChartRepository == "" {
		return errors.New("chart repository is required")
	}

	if c.HelmNamespace == "" {
		return errors.New("helm namespace is required")
	}

	if c.HelmRelease == "" {
		return errors.New("helm release name is required")
	}

	if c.ChartVersion != "" {
		if _, err := semver.NewVersion(c.ChartVersion); err != nil {
			return errors.Wrapf(err, "chart version %q is not valid semver", c.ChartVersion)
		}
	}

	if c.DebounceInterval <= 0 {
		return errors.New("debounce interval must be positive")
	}

	if c.DeployTimeout <= 0 {
		return errors.New("deploy timeout must be positive")
	}

	if c.DeployAttempts < 1 {
		return errors.New("deploy attempts must be at least 1")
	}

	if _, err := c.ValuesOverride(); err != nil {
		return errors.Wrap(err, "invalid helm values document")
	}

	return nil
}

// ValuesOverride parses the user-supplied chart values document.
// Accepts JSON or YAML; an empty document yields nil.
func (c *Config) ValuesOverride() (map[string]any, error) {
	if c.HelmValues == "" {
		return nil, nil
	}

	var values map[string]any
	if err := yaml.Unmarshal([]byte(c.HelmValues), &values); err != nil {
		return nil, errors.Wrap(err, "failed to parse helm values")
	}

	return values, nil
}
