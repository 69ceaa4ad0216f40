// Package gatus converts cluster Ingress resources into Gatus chart values.
//
// # Overview
//
// The Builder type converts a full Ingress snapshot into a values Document
// for the Gatus Helm chart. It handles:
//
//   - Endpoint derivation, one per (rule, path) pair with host and path set
//   - Protocol selection (https when the host is covered by a TLS block)
//   - Merging of user value overrides under operator-managed values
//   - Canonical ordering so equivalent snapshots produce identical documents
//
// # Endpoints
//
// Each endpoint monitors one URL:
//
//	name:  "<namespace>: <protocol>://<host><path>"
//	group: <namespace>
//	url:   <protocol>://<host><path>
//
// Rules without a host, rules without HTTP paths, and paths with an empty
// value produce no endpoint. Malformed Ingress objects are skipped, never
// treated as errors.
//
// # Canonical Form
//
// Endpoints are sorted by namespace, host, path and protocol, and exact
// duplicates are removed. Change detection compares the canonical YAML
// serialization of the whole document, so incidental enumeration order in
// the cluster API can never register as a configuration change.
//
// # Protected Values
//
// User overrides merge into the document, but config.endpoints and
// config.storage are operator-managed and cannot be overridden.
package gatus
