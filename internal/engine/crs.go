package engine

import (
	"reflect"
	"strings"

	"github.com/ctessum/geom/proj"
)

// CRS is a parsed coordinate reference system. Definitions are Proj4
// strings, e.g. "+proj=tmerc +lat_0=0 +lon_0=24 ..." for LKS-94.
type CRS struct {
	def string
	sr  *proj.SR
}

// ParseCRS parses a Proj4 definition string.
func ParseCRS(def string) (*CRS, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, &ErrInvalidCRS{Reason: "empty definition"}
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, &ErrInvalidCRS{Definition: def, Reason: err.Error()}
	}
	return &CRS{def: def, sr: sr}, nil
}

// String returns the original definition string.
func (c *CRS) String() string {
	return c.def
}

// Equal reports whether two CRS describe the same projection.
//
// Comparison is by canonical parsed definition, not raw string equality:
// two differently formatted definitions of the same projection compare
// equal, because both parse to the same spatial reference.
func (c *CRS) Equal(other *CRS) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.def == other.def {
		return true
	}
	return reflect.DeepEqual(c.sr, other.sr)
}

// Reconcile returns the features in the target CRS.
//
// When the source CRS already matches the target this is a no-op and the
// input slice is returned as-is. Otherwise every geometry is reprojected
// into a fresh slice; the input is not mutated.
func Reconcile(features []ResolvedFeature, source, target *CRS) ([]ResolvedFeature, error) {
	if source.Equal(target) {
		return features, nil
	}

	trans, err := source.sr.NewTransform(target.sr)
	if err != nil {
		return nil, &ErrInvalidCRS{Definition: source.def, Reason: err.Error()}
	}

	out := make([]ResolvedFeature, len(features))
	for i, f := range features {
		g, err := f.Geometry.Transform(trans)
		if err != nil {
			return nil, &ErrInvalidCRS{Definition: source.def, Reason: err.Error()}
		}
		out[i] = ResolvedFeature{Geometry: g, Code: f.Code, RasterID: f.RasterID}
	}
	return out, nil
}
