package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// geojsonFile mirrors the subset of GeoJSON the pipeline consumes: a
// FeatureCollection of features with properties, plus the legacy named-CRS
// member some producers still emit.
type geojsonFile struct {
	Type     string           `json:"type"`
	CRS      *geojsonCRS      `json:"crs,omitempty"`
	Features []geojsonFeature `json:"features"`
}

type geojsonCRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

type geojsonFeature struct {
	Type       string                 `json:"type"`
	Geometry   *geojsonGeometry       `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geojsonGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ReadGeoJSON reads a feature collection from a GeoJSON file. The returned
// collection's CRS is the file's legacy crs member name when present,
// otherwise empty; callers supply the definitive CRS per dataset.
func ReadGeoJSON(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature collection: %w", err)
	}
	return DecodeGeoJSON(data)
}

// DecodeGeoJSON decodes a GeoJSON FeatureCollection document.
func DecodeGeoJSON(data []byte) (*FeatureCollection, error) {
	var doc geojsonFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if doc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode geojson: expected FeatureCollection, got %q", doc.Type)
	}

	fc := &FeatureCollection{Features: make([]Feature, 0, len(doc.Features))}
	if doc.CRS != nil {
		fc.CRS = doc.CRS.Properties["name"]
	}
	for i, f := range doc.Features {
		if f.Geometry == nil {
			continue // null geometry carries no spatial claim
		}
		g, err := decodeGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("decode geojson feature %d: %w", i, err)
		}
		attrs := f.Properties
		if attrs == nil {
			attrs = map[string]interface{}{}
		}
		fc.Features = append(fc.Features, Feature{Geometry: g, Attributes: attrs})
	}
	return fc, nil
}

func decodeGeometry(g *geojsonGeometry) (Geometry, error) {
	switch g.Type {
	case "Point":
		var pos []float64
		if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
			return Geometry{}, err
		}
		if len(pos) < 2 {
			return Geometry{}, fmt.Errorf("point needs 2 coordinates, got %d", len(pos))
		}
		return Geometry{Type: GeometryPoint, Coords: Ring{{X: pos[0], Y: pos[1]}}}, nil

	case "MultiPoint", "LineString":
		var positions [][]float64
		if err := json.Unmarshal(g.Coordinates, &positions); err != nil {
			return Geometry{}, err
		}
		ring, err := toRing(positions)
		if err != nil {
			return Geometry{}, err
		}
		t := GeometryLine
		if g.Type == "MultiPoint" {
			t = GeometryPoint
		}
		return Geometry{Type: t, Coords: ring}, nil

	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return Geometry{}, err
		}
		rs, err := toRings(rings)
		if err != nil {
			return Geometry{}, err
		}
		return Geometry{Type: GeometryPolygon, Polygons: [][]Ring{rs}}, nil

	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return Geometry{}, err
		}
		out := make([][]Ring, 0, len(polys))
		for _, rings := range polys {
			rs, err := toRings(rings)
			if err != nil {
				return Geometry{}, err
			}
			out = append(out, rs)
		}
		return Geometry{Type: GeometryMultiPolygon, Polygons: out}, nil

	default:
		return Geometry{}, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func toRing(positions [][]float64) (Ring, error) {
	ring := make(Ring, len(positions))
	for i, pos := range positions {
		if len(pos) < 2 {
			return nil, fmt.Errorf("position %d needs 2 coordinates, got %d", i, len(pos))
		}
		ring[i] = Coord{X: pos[0], Y: pos[1]}
	}
	return ring, nil
}

func toRings(raw [][][]float64) ([]Ring, error) {
	rings := make([]Ring, len(raw))
	for i, positions := range raw {
		r, err := toRing(positions)
		if err != nil {
			return nil, err
		}
		rings[i] = r
	}
	return rings, nil
}

// WriteGeoJSON writes resolved features as a GeoJSON FeatureCollection with
// LU and raster_id properties, the merged vector layer kept alongside the
// fused raster.
func WriteGeoJSON(path string, features []ResolvedFeature, crs string) error {
	doc := geojsonFile{Type: "FeatureCollection"}
	if crs != "" {
		doc.CRS = &geojsonCRS{Type: "name", Properties: map[string]string{"name": crs}}
	}
	doc.Features = make([]geojsonFeature, 0, len(features))
	for _, f := range features {
		g, err := encodeGeometry(f.Geometry)
		if err != nil {
			return err
		}
		doc.Features = append(doc.Features, geojsonFeature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]interface{}{
				"LU":        f.Code,
				"raster_id": f.RasterID,
			},
		})
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func encodeGeometry(g Geometry) (*geojsonGeometry, error) {
	marshal := func(v interface{}) (json.RawMessage, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil
	}

	switch g.Type {
	case GeometryPoint:
		if len(g.Coords) == 0 {
			return nil, fmt.Errorf("encode geojson: empty point")
		}
		raw, err := marshal([]float64{g.Coords[0].X, g.Coords[0].Y})
		if err != nil {
			return nil, err
		}
		return &geojsonGeometry{Type: "Point", Coordinates: raw}, nil
	case GeometryLine:
		raw, err := marshal(fromRing(g.Coords))
		if err != nil {
			return nil, err
		}
		return &geojsonGeometry{Type: "LineString", Coordinates: raw}, nil
	case GeometryPolygon:
		if len(g.Polygons) == 0 {
			return nil, fmt.Errorf("encode geojson: empty polygon")
		}
		raw, err := marshal(fromRings(g.Polygons[0]))
		if err != nil {
			return nil, err
		}
		return &geojsonGeometry{Type: "Polygon", Coordinates: raw}, nil
	case GeometryMultiPolygon:
		polys := make([][][][]float64, len(g.Polygons))
		for i, rings := range g.Polygons {
			polys[i] = fromRings(rings)
		}
		raw, err := marshal(polys)
		if err != nil {
			return nil, err
		}
		return &geojsonGeometry{Type: "MultiPolygon", Coordinates: raw}, nil
	default:
		return nil, fmt.Errorf("encode geojson: unsupported geometry type %v", g.Type)
	}
}

func fromRing(r Ring) [][]float64 {
	out := make([][]float64, len(r))
	for i, c := range r {
		out[i] = []float64{c.X, c.Y}
	}
	return out
}

func fromRings(rings []Ring) [][][]float64 {
	out := make([][][]float64, len(rings))
	for i, r := range rings {
		out[i] = fromRing(r)
	}
	return out
}
