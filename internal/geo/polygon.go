// Package geo holds the point-in-polygon test used to place users into
// delivery zones.
package geo

import "math"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Polygon is an ordered ring of vertices. The ring is closed implicitly, the
// first vertex does not have to be repeated at the end.
type Polygon []Point

// Valid reports whether the ring has at least 3 vertices with finite,
// in-range coordinates.
func (p Polygon) Valid() bool {
	if len(p) < 3 {
		return false
	}
	for _, v := range p {
		if math.IsNaN(v.Lat) || math.IsNaN(v.Lng) || math.IsInf(v.Lat, 0) || math.IsInf(v.Lng, 0) {
			return false
		}
		if v.Lat < -90 || v.Lat > 90 || v.Lng < -180 || v.Lng > 180 {
			return false
		}
	}
	return true
}

// BBox is the axis-aligned bounding box of a polygon.
type BBox struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}

func (p Polygon) BBox() BBox {
	if len(p) == 0 {
		return BBox{}
	}
	b := BBox{MinLat: p[0].Lat, MaxLat: p[0].Lat, MinLng: p[0].Lng, MaxLng: p[0].Lng}
	for _, v := range p[1:] {
		b.MinLat = math.Min(b.MinLat, v.Lat)
		b.MaxLat = math.Max(b.MaxLat, v.Lat)
		b.MinLng = math.Min(b.MinLng, v.Lng)
		b.MaxLng = math.Max(b.MaxLng, v.Lng)
	}
	return b
}

func (b BBox) Contains(pt Point) bool {
	return pt.Lat >= b.MinLat && pt.Lat <= b.MaxLat && pt.Lng >= b.MinLng && pt.Lng <= b.MaxLng
}

// IsPointInPolygon uses the even-odd rule: a ray from pt along the latitude
// axis toggles "inside" every time it crosses an edge. Points exactly on an
// edge or vertex may land on either side.
func IsPointInPolygon(pt Point, poly Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := poly[i], poly[j]
		// a zero-length or parallel edge never satisfies the straddle check,
		// so the division below cannot be by zero
		if (vi.Lng > pt.Lng) == (vj.Lng > pt.Lng) {
			continue
		}
		crossLat := vj.Lat + (pt.Lng-vj.Lng)/(vi.Lng-vj.Lng)*(vi.Lat-vj.Lat)
		if pt.Lat < crossLat {
			inside = !inside
		}
	}
	return inside
}

// Contains is IsPointInPolygon with a bounding box prefilter.
func (p Polygon) Contains(pt Point) bool {
	if len(p) < 3 || !p.BBox().Contains(pt) {
		return false
	}
	return IsPointInPolygon(pt, p)
}
