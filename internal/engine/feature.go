package engine

// Feature represents one record from a raw vector source: a geometry plus
// the source's attribute row.
type Feature struct {
	Geometry   Geometry
	Attributes map[string]interface{}
}

// NormalizedFeature is a feature reduced to a single semantic attribute,
// the land-use code. Produced by Normalize; codes are not unique across
// features.
type NormalizedFeature struct {
	Geometry Geometry
	Code     string
}

// ResolvedFeature is a normalized feature annotated with the raster id its
// code maps to in the lookup table. Every resolved feature's id is a valid
// lookup entry; features whose code has no entry are dropped, not defaulted.
type ResolvedFeature struct {
	Geometry Geometry
	Code     string
	RasterID int32
}

// FeatureCollection is a set of raw features with their declared coordinate
// reference system (a Proj4 definition string, possibly empty when the
// source declares none).
type FeatureCollection struct {
	Features []Feature
	CRS      string
}
