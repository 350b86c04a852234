package geo

import (
	"fmt"
	"math"
	"sort"

	"ElephantWatchAPI/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/peterstace/simplefeatures/geom"
)

const (
	BufferRadiusMeters    = 1000.0
	CommunityRadiusMeters = 2000.0

	// vertices used to approximate the disc around each boundary vertex
	discSegments = 32
)

const (
	ZoneForest    = "forest"
	ZoneBuffer    = "buffer"
	ZoneCommunity = "community"
	ZoneOutside   = "outside"
)

// Zone is one styled overlay.
type Zone struct {
	Name        string
	Polygon     orb.Polygon
	Color       string
	FillOpacity float64
}

// Zones holds the three nested areas. Community contains buffer contains forest.
type Zones struct {
	Forest    orb.Ring
	Buffer    orb.Polygon
	Community orb.Polygon
}

// DeriveZones expands the forest boundary outward by 1 km and 2 km.
func DeriveZones(forest orb.Ring) (*Zones, error) {
	buffer, err := Buffer(forest, BufferRadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("buffer zone: %w", err)
	}
	community, err := Buffer(forest, CommunityRadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("community zone: %w", err)
	}
	return &Zones{Forest: forest, Buffer: buffer, Community: community}, nil
}

// Buffer returns the area within radius meters of the base polygon. Each
// boundary edge becomes a capsule, the hull of the discs at its two ends,
// and the capsules are unioned with the base itself. Concave bays keep their
// shape. The discs are circumscribed polygons, so the result never falls
// short of radius.
func Buffer(base orb.Ring, radius float64) (orb.Polygon, error) {
	if len(base) < 4 {
		return nil, fmt.Errorf("boundary needs at least 3 distinct points")
	}

	parts := make([]geom.Geometry, 0, len(base))
	forest, err := toGeom(orb.Polygon{base})
	if err != nil {
		return nil, err
	}
	parts = append(parts, forest)

	for i := 0; i+1 < len(base); i++ {
		a, b := base[i], base[i+1]
		if a.Equal(b) {
			continue
		}
		capsule := convexHull(append(disc(a, radius), disc(b, radius)...))
		g, err := toGeom(orb.Polygon{capsule})
		if err != nil {
			return nil, err
		}
		parts = append(parts, g)
	}

	merged, err := unionAll(parts)
	if err != nil {
		return nil, err
	}

	out, err := wkb.Unmarshal(merged.AsBinary())
	if err != nil {
		return nil, fmt.Errorf("decode buffer: %w", err)
	}
	switch g := out.(type) {
	case orb.Polygon:
		return g, nil
	case orb.MultiPolygon:
		return largest(g), nil
	default:
		return nil, fmt.Errorf("unexpected buffer geometry %s", out.GeoJSONType())
	}
}

// disc approximates a circle of radius meters around c. Vertices sit on the
// circumscribing polygon so every edge lies at or beyond radius.
func disc(c orb.Point, radius float64) []orb.Point {
	r := radius / math.Cos(math.Pi/discSegments)
	pts := make([]orb.Point, 0, discSegments)
	for i := 0; i < discSegments; i++ {
		bearing := float64(i) * 360.0 / discSegments
		pts = append(pts, orbgeo.PointAtBearingAndDistance(c, bearing, r))
	}
	return pts
}

func toGeom(p orb.Polygon) (geom.Geometry, error) {
	g, err := geom.UnmarshalWKT(wkt.MarshalString(p))
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("invalid polygon: %w", err)
	}
	return g, nil
}

// unionAll merges pairwise so each union works on similar sized inputs.
func unionAll(gs []geom.Geometry) (geom.Geometry, error) {
	for len(gs) > 1 {
		next := make([]geom.Geometry, 0, (len(gs)+1)/2)
		for i := 0; i < len(gs); i += 2 {
			if i+1 == len(gs) {
				next = append(next, gs[i])
				continue
			}
			u, err := geom.Union(gs[i], gs[i+1])
			if err != nil {
				return geom.Geometry{}, fmt.Errorf("union: %w", err)
			}
			next = append(next, u)
		}
		gs = next
	}
	return gs[0], nil
}

func largest(mp orb.MultiPolygon) orb.Polygon {
	var best orb.Polygon
	bestArea := -1.0
	for _, p := range mp {
		if a := orbgeo.Area(p); a > bestArea {
			best, bestArea = p, a
		}
	}
	return best
}

// convexHull runs Andrew's monotone chain and returns a closed
// counter-clockwise ring.
func convexHull(pts []orb.Point) orb.Ring {
	if len(pts) < 3 {
		return nil
	}
	sorted := make([]orb.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	hull := make([]orb.Point, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// the last point repeats the first, which closes the ring
	return orb.Ring(hull)
}

// Ordered returns the zones largest first so smaller overlays draw on top.
func (z *Zones) Ordered() []Zone {
	if z == nil {
		return nil
	}
	var forest orb.Polygon
	if len(z.Forest) > 0 {
		forest = orb.Polygon{z.Forest}
	}
	return []Zone{
		{Name: ZoneCommunity, Polygon: z.Community, Color: "red", FillOpacity: 0.1},
		{Name: ZoneBuffer, Polygon: z.Buffer, Color: "orange", FillOpacity: 0.2},
		{Name: ZoneForest, Polygon: forest, Color: "green", FillOpacity: 0.3},
	}
}

// Classify names the innermost zone containing p.
func (z *Zones) Classify(p models.Position) string {
	if z == nil {
		return ZoneOutside
	}
	pt := Point(p)
	switch {
	case len(z.Forest) > 0 && planar.RingContains(z.Forest, pt):
		return ZoneForest
	case len(z.Buffer) > 0 && planar.PolygonContains(z.Buffer, pt):
		return ZoneBuffer
	case len(z.Community) > 0 && planar.PolygonContains(z.Community, pt):
		return ZoneCommunity
	default:
		return ZoneOutside
	}
}

// FeatureCollection renders the zones in draw order, with the forest bound
// as the collection bbox for map fitBounds. A nil receiver yields an empty
// collection.
func (z *Zones) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, zone := range z.Ordered() {
		if len(zone.Polygon) == 0 {
			continue
		}
		f := geojson.NewFeature(zone.Polygon)
		f.Properties["name"] = zone.Name
		f.Properties["color"] = zone.Color
		f.Properties["fill_opacity"] = zone.FillOpacity
		f.Properties["area_km2"] = math.Round(orbgeo.Area(zone.Polygon)/1e4) / 100
		fc.Append(f)
	}
	if z != nil && len(z.Forest) > 0 {
		fc.BBox = geojson.NewBBox(z.Forest.Bound())
	}
	return fc
}
