package source

import (
	"fmt"
	"strings"
)

// Selection is the token a consumer picks from the source options.
type Selection string

const (
	SelectionNone   Selection = "none"
	SelectionCSV    Selection = "csv"
	SelectionJSON   Selection = "json"
	SelectionUpload Selection = "upload"
)

// Presets maps each bundled sample to its well-known location.
type Presets struct {
	CSV  string
	JSON string
}

// DefaultPresets points at the sample files served under /data.
func DefaultPresets(baseURL string) Presets {
	return NewPresets(baseURL, "services.csv", "services.json")
}

// NewPresets points at the named files under baseURL/data.
func NewPresets(baseURL, csvName, jsonName string) Presets {
	base := strings.TrimRight(baseURL, "/") + "/data/"
	return Presets{
		CSV:  base + csvName,
		JSON: base + jsonName,
	}
}

// Resolver builds descriptors from selections.
type Resolver struct {
	presets Presets
}

// NewResolver creates a resolver for the given presets.
func NewResolver(presets Presets) *Resolver {
	return &Resolver{presets: presets}
}

// Presets returns the configured preset locations.
func (r *Resolver) Presets() Presets {
	return r.presets
}

// Resolve returns the descriptor for a selection, or nil when nothing is
// selected yet (no selection, or "upload" before a file is picked).
func (r *Resolver) Resolve(sel Selection, file FileHandle) (*Descriptor, error) {
	switch Selection(strings.ToLower(strings.TrimSpace(string(sel)))) {
	case "", SelectionNone:
		return nil, nil
	case SelectionCSV:
		return NewURL(FormatCSV, r.presets.CSV), nil
	case SelectionJSON:
		return NewURL(FormatJSON, r.presets.JSON), nil
	case SelectionUpload:
		if file == nil {
			return nil, nil
		}
		return NewFile(file)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSelection, sel)
}
