package geo

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature (Point, Polygon, etc.).
// Coordinates nest one level per ring or part, as in RFC 7946.
type GeoJSONGeometry struct {
	Type        string `json:"type" yaml:"type"`
	Coordinates any    `json:"coordinates" yaml:"coordinates"`
}

var geoJSONTypes = map[Kind]string{
	KindPoint:           "Point",
	KindLineString:      "LineString",
	KindPolygon:         "Polygon",
	KindMultiPoint:      "MultiPoint",
	KindMultiLineString: "MultiLineString",
	KindMultiPolygon:    "MultiPolygon",
}

// ToGeoJSON converts g to its GeoJSON geometry. Empty geometries get an
// empty coordinate array.
func ToGeoJSON(g Geometry) GeoJSONGeometry {
	return GeoJSONGeometry{
		Type:        geoJSONTypes[g.kind],
		Coordinates: geoJSONCoordinates(g),
	}
}

// NewFeatureCollection wraps geometries as features. Each feature carries
// its SRID, when known, in the "srid" property.
func NewFeatureCollection(geoms ...Geometry) GeoJSONFeatureCollection {
	fc := GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(geoms)),
	}
	for _, g := range geoms {
		props := map[string]interface{}{}
		if srid, ok := g.SRID(); ok {
			props["srid"] = srid
		}
		fc.Features = append(fc.Features, GeoJSONFeature{
			Type:       "Feature",
			Geometry:   ToGeoJSON(g),
			Properties: props,
		})
	}
	return fc
}

func geoJSONCoordinates(g Geometry) any {
	switch g.kind {
	case KindPoint:
		if len(g.coords) == 0 {
			return []float64{}
		}
		return []float64(cloneCoord(g.coords[0]))
	case KindLineString:
		return positions(g.coords)
	case KindPolygon:
		out := make([][][]float64, 0, len(g.rings))
		for _, r := range g.rings {
			out = append(out, positions(r))
		}
		return out
	}
	out := make([]any, 0, len(g.parts))
	for _, p := range g.parts {
		out = append(out, geoJSONCoordinates(p))
	}
	return out
}

func positions(coords []Coord) [][]float64 {
	out := make([][]float64, 0, len(coords))
	for _, c := range coords {
		out = append(out, []float64(cloneCoord(c)))
	}
	return out
}
