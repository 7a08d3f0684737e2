package models

import (
	"github.com/ai-field-tools/iris-api/pkg/cmp"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// metadata of the loaded model artifact.
//
// Raw parameters (tree nodes, coefficients) are never exposed here.
type Detail struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Algorithm string   `json:"algorithm"`
	Classes   []string `json:"classes"`
	Features  []string `json:"features"`

	TrainedAt *rfctime.RFC3339 `json:"trained_at,omitempty"`
	LoadedAt  rfctime.RFC3339  `json:"loaded_at"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Name == o.Name &&
		d.Version == o.Version &&
		d.Algorithm == o.Algorithm &&
		cmp.SliceEq(d.Classes, o.Classes) &&
		cmp.SliceEq(d.Features, o.Features) &&
		cmp.PEqualWith(d.TrainedAt, o.TrainedAt, rfctime.RFC3339.Equal) &&
		d.LoadedAt.Equal(o.LoadedAt)
}
