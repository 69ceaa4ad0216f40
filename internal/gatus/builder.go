package gatus

import (
	"context"
	"fmt"
	"sort"
	"time"

	netv1 "k8s.io/api/networking/v1"

	"github.com/lexfrei/gatus-ingress-operator/internal/metrics"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"

	// defaultEndpointKey holds the endpoint settings shared by every
	// generated endpoint. Users may override it through chart values.
	defaultEndpointKey = "x-default-endpoint"

	defaultInterval  = "1m"
	defaultCondition = "[STATUS] == 200"
)

// protectedConfigKeys are operator-managed sections of the chart values
// that user overrides can never replace.
//
//nolint:gochecknoglobals // package-level constant list
var protectedConfigKeys = []string{"endpoints", "storage"}

// Endpoint is one monitored URL derived from an Ingress rule/path pair.
type Endpoint struct {
	Name  string
	Group string
	URL   string
}

// Builder converts Ingress snapshots into Gatus chart value documents.
type Builder struct {
	// DBFile is the sqlite storage path configured for Gatus.
	DBFile string

	// Overrides are user-supplied chart values merged under the
	// operator-managed values. May be nil.
	Overrides map[string]any

	// Metrics records build duration and endpoint counts.
	Metrics metrics.Collector
}

// NewBuilder creates a new Builder.
func NewBuilder(dbFile string, overrides map[string]any, m metrics.Collector) *Builder {
	if m == nil {
		m = metrics.NewNoopCollector()
	}

	return &Builder{
		DBFile:    dbFile,
		Overrides: overrides,
		Metrics:   m,
	}
}

// endpointEntry is an intermediate representation carrying the sort keys.
type endpointEntry struct {
	namespace string
	host      string
	path      string
	protocol  string
}

func (e endpointEntry) url() string {
	return fmt.Sprintf("%s://%s%s", e.protocol, e.host, e.path)
}

func (e endpointEntry) name() string {
	return fmt.Sprintf("%s: %s", e.namespace, e.url())
}

// Build converts a full Ingress snapshot into a values Document.
//
// The output is canonical: endpoints are sorted by namespace, host, path
// and protocol, and exact duplicates (the same rule declared by several
// Ingress objects) collapse into one endpoint. Building the same snapshot
// twice yields byte-identical serializations regardless of the order the
// cluster API enumerates objects in.
//
// Build has no side effects and never fails on malformed or partially
// populated Ingress objects; incomplete rules are skipped.
func (b *Builder) Build(ctx context.Context, ingresses []netv1.Ingress) *Document {
	startTime := time.Now()

	entries := collectEntries(ingresses)
	sortEntries(entries)
	entries = dedupeEntries(entries)

	endpoints := make([]Endpoint, 0, len(entries))
	for _, entry := range entries {
		endpoints = append(endpoints, Endpoint{
			Name:  entry.name(),
			Group: entry.namespace,
			URL:   entry.url(),
		})
	}

	doc := &Document{
		Endpoints: endpoints,
		values:    b.buildValues(endpoints),
	}

	b.Metrics.RecordBuildDuration(ctx, time.Since(startTime))
	b.Metrics.RecordEndpoints(ctx, len(endpoints))

	return doc
}

func collectEntries(ingresses []netv1.Ingress) []endpointEntry {
	var entries []endpointEntry

	for i := range ingresses {
		ing := &ingresses[i]
		namespace := ing.Namespace
		tlsHosts := tlsHostSet(ing)

		for _, rule := range ing.Spec.Rules {
			if rule.Host == "" || rule.HTTP == nil {
				continue
			}

			protocol := schemeHTTP
			if tlsHosts[rule.Host] {
				protocol = schemeHTTPS
			}

			for _, path := range rule.HTTP.Paths {
				if path.Path == "" {
					continue
				}

				entries = append(entries, endpointEntry{
					namespace: namespace,
					host:      rule.Host,
					path:      path.Path,
					protocol:  protocol,
				})
			}
		}
	}

	return entries
}

// tlsHostSet returns the hosts covered by any TLS block of the Ingress.
func tlsHostSet(ing *netv1.Ingress) map[string]bool {
	hosts := make(map[string]bool)

	for _, tls := range ing.Spec.TLS {
		for _, host := range tls.Hosts {
			hosts[host] = true
		}
	}

	return hosts
}

func sortEntries(entries []endpointEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if a.namespace != b.namespace {
			return a.namespace < b.namespace
		}

		if a.host != b.host {
			return a.host < b.host
		}

		if a.path != b.path {
			return a.path < b.path
		}

		return a.protocol < b.protocol
	})
}

// dedupeEntries removes exact duplicates from a sorted slice. Two Ingress
// objects declaring the same rule collapse into a single endpoint.
func dedupeEntries(entries []endpointEntry) []endpointEntry {
	if len(entries) < 2 {
		return entries
	}

	result := entries[:1]

	for _, entry := range entries[1:] {
		if entry != result[len(result)-1] {
			result = append(result, entry)
		}
	}

	return result
}

// buildValues assembles the chart values document: user overrides merged
// first, then the operator-managed sections layered on top.
func (b *Builder) buildValues(endpoints []Endpoint) map[string]any {
	values := map[string]any{}

	for key, value := range b.Overrides {
		if key == "config" {
			continue
		}

		values[key] = value
	}

	configSection := map[string]any{}

	if overrideConfig, ok := b.Overrides["config"].(map[string]any); ok {
		for key, value := range overrideConfig {
			if isProtectedConfigKey(key) {
				continue
			}

			configSection[key] = value
		}
	}

	defaults := defaultEndpointSettings(configSection)
	configSection[defaultEndpointKey] = defaults

	endpointValues := make([]map[string]any, 0, len(endpoints))
	for _, endpoint := range endpoints {
		endpointValues = append(endpointValues, endpointValue(endpoint, defaults))
	}

	configSection["endpoints"] = endpointValues
	configSection["storage"] = map[string]any{
		"type": "sqlite",
		"path": b.DBFile,
	}

	values["config"] = configSection

	return values
}

func isProtectedConfigKey(key string) bool {
	for _, protected := range protectedConfigKeys {
		if key == protected {
			return true
		}
	}

	return false
}

// defaultEndpointSettings returns the shared endpoint settings, preferring
// a user-provided x-default-endpoint block over the built-in defaults.
func defaultEndpointSettings(configSection map[string]any) map[string]any {
	if custom, ok := configSection[defaultEndpointKey].(map[string]any); ok {
		return custom
	}

	return map[string]any{
		"interval":   defaultInterval,
		"conditions": []any{defaultCondition},
	}
}

// endpointValue renders one endpoint entry with the shared settings
// inlined. The Python predecessor expressed this with a YAML merge anchor;
// inlining is the resolved form of the same document.
func endpointValue(endpoint Endpoint, defaults map[string]any) map[string]any {
	entry := make(map[string]any, len(defaults)+3)

	for key, value := range defaults {
		entry[key] = value
	}

	entry["name"] = endpoint.Name
	entry["group"] = endpoint.Group
	entry["url"] = endpoint.URL

	return entry
}
