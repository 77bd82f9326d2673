package engine

import (
	"path/filepath"
	"testing"
)

const cropsGeoJSON = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "+proj=longlat +datum=WGS84 +no_defs"}},
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[24.0, 55.0], [24.1, 55.0], [24.1, 55.1], [24.0, 55.1], [24.0, 55.0]]]},
      "properties": {"code": "WHEAT", "area_ha": 12.5}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [24.05, 55.05]},
      "properties": {"code": "NEP"}
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"code": "RYE"}
    }
  ]
}`

// TestDecodeGeoJSON reads features, attributes and the legacy crs member;
// null geometries are skipped.
func TestDecodeGeoJSON(t *testing.T) {
	fc, err := DecodeGeoJSON([]byte(cropsGeoJSON))
	if err != nil {
		t.Fatalf("DecodeGeoJSON failed: %v", err)
	}

	if fc.CRS != "+proj=longlat +datum=WGS84 +no_defs" {
		t.Errorf("Unexpected CRS: %q", fc.CRS)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("Expected 2 features (null geometry skipped), got %d", len(fc.Features))
	}

	poly := fc.Features[0]
	if poly.Geometry.Type != GeometryPolygon {
		t.Errorf("Expected Polygon, got %v", poly.Geometry.Type)
	}
	if got := poly.Attributes["code"]; got != "WHEAT" {
		t.Errorf("Expected code WHEAT, got %v", got)
	}
	if len(poly.Geometry.Polygons) != 1 || len(poly.Geometry.Polygons[0]) != 1 {
		t.Fatalf("Expected one polygon with one ring, got %+v", poly.Geometry.Polygons)
	}
	if len(poly.Geometry.Polygons[0][0]) != 5 {
		t.Errorf("Expected closed 5-coordinate ring, got %d", len(poly.Geometry.Polygons[0][0]))
	}

	point := fc.Features[1]
	if point.Geometry.Type != GeometryPoint {
		t.Errorf("Expected Point, got %v", point.Geometry.Type)
	}
	if point.Geometry.Coords[0] != (Coord{X: 24.05, Y: 55.05}) {
		t.Errorf("Unexpected point coordinates: %+v", point.Geometry.Coords[0])
	}
}

// TestDecodeGeoJSONRejectsNonCollection rejects bare geometries and other
// document types.
func TestDecodeGeoJSONRejectsNonCollection(t *testing.T) {
	_, err := DecodeGeoJSON([]byte(`{"type": "Feature", "geometry": null, "properties": {}}`))
	if err == nil {
		t.Error("Expected error for non-FeatureCollection document")
	}
}

// TestWriteReadGeoJSON round-trips resolved features with their LU code
// and raster id through the merged-layer export.
func TestWriteReadGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.geojson")
	features := []ResolvedFeature{
		{
			Geometry: squarePoly(0, 0, 10, 10),
			Code:     "C_WHEAT",
			RasterID: 7,
		},
		{
			Geometry: Geometry{Type: GeometryPoint, Coords: Ring{{X: 5, Y: 5}}},
			Code:     "A_",
			RasterID: 12,
		},
	}

	if err := WriteGeoJSON(path, features, lks94); err != nil {
		t.Fatalf("WriteGeoJSON failed: %v", err)
	}

	fc, err := ReadGeoJSON(path)
	if err != nil {
		t.Fatalf("ReadGeoJSON failed: %v", err)
	}
	if fc.CRS != lks94 {
		t.Errorf("CRS not round-tripped: %q", fc.CRS)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(fc.Features))
	}
	if got := fc.Features[0].Attributes["LU"]; got != "C_WHEAT" {
		t.Errorf("Expected LU C_WHEAT, got %v", got)
	}
	// JSON numbers decode as float64.
	if got := fc.Features[0].Attributes["raster_id"]; got != float64(7) {
		t.Errorf("Expected raster_id 7, got %v", got)
	}
}
