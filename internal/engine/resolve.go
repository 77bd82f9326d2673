package engine

// Resolve joins a normalized feature collection against the lookup table.
//
// This is a deterministic left semi-join on exact string equality: features
// whose code has a lookup entry are returned annotated with that entry's
// raster id, in input order; features with no matching entry are dropped.
//
// The second return value counts dropped features per unmatched code. An
// unmatched code is a QA signal (stale lookup table), not a failure.
func Resolve(features []NormalizedFeature, lookup *Lookup) ([]ResolvedFeature, map[string]int) {
	resolved := make([]ResolvedFeature, 0, len(features))
	unmatched := make(map[string]int)

	for _, f := range features {
		id, ok := lookup.ID(f.Code)
		if !ok {
			unmatched[f.Code]++
			continue
		}
		resolved = append(resolved, ResolvedFeature{
			Geometry: f.Geometry,
			Code:     f.Code,
			RasterID: id,
		})
	}
	return resolved, unmatched
}
