package gatus

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"sigs.k8s.io/yaml"
)

// Document is the desired monitoring configuration: the derived endpoint
// list merged with static chart values. It is both the unit of change
// detection and the Helm values payload.
type Document struct {
	// Endpoints are the monitored URLs, in canonical order.
	Endpoints []Endpoint

	values    map[string]any
	canonical []byte
}

// Values returns the document as a Helm values map.
func (d *Document) Values() map[string]any {
	return d.values
}

// CanonicalYAML returns the canonical serialization of the document.
// Marshalling goes through JSON, so map keys are emitted in sorted order
// and the output is stable across builds. The result is cached.
func (d *Document) CanonicalYAML() ([]byte, error) {
	if d.canonical != nil {
		return d.canonical, nil
	}

	data, err := yaml.Marshal(d.values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize values document")
	}

	d.canonical = data

	return data, nil
}

// Changed reports whether the current document differs from the previously
// applied one. A nil previous document always reports changed.
//
// Comparison is on the canonical serialization, not structural equality,
// so two documents built from equivalently ordered snapshots never differ.
func Changed(current, previous *Document) (bool, error) {
	if previous == nil {
		return true, nil
	}

	currentYAML, err := current.CanonicalYAML()
	if err != nil {
		return false, err
	}

	previousYAML, err := previous.CanonicalYAML()
	if err != nil {
		return false, err
	}

	return !bytes.Equal(currentYAML, previousYAML), nil
}
