package editor

import (
	"github.com/mmcloughlin/geohash"
)

const geohashPrecision = 7

// Preview summarizes the tree for the side panel. Units sum flat counts;
// TotalArea sums area × count over flats where both are set.
type Preview struct {
	Buildings int     `json:"buildings"`
	Twins     int     `json:"twins"`
	Floors    int     `json:"floors"`
	FlatTypes int     `json:"flatTypes"`
	Units     int     `json:"units"`
	TotalArea float64 `json:"totalArea"`
	Geohash   string  `json:"geohash,omitempty"`
}

func (e *Editor) Preview() Preview {
	e.mu.Lock()
	defer e.mu.Unlock()
	return buildPreview(e.project)
}

func buildPreview(p Project) Preview {
	out := Preview{Buildings: len(p.Buildings)}
	for _, b := range p.Buildings {
		if b.IsTwin {
			out.Twins++
		}
		out.Floors += len(b.Floors)
		for _, f := range b.Floors {
			out.FlatTypes += len(f.Flats)
			for _, flat := range f.Flats {
				if !flat.Count.Valid {
					continue
				}
				out.Units += flat.Count.Int()
				if flat.Area.Valid {
					out.TotalArea += flat.Area.Value * flat.Count.Value
				}
			}
		}
	}
	if lat, lng := p.Latitude, p.Longitude; lat.Valid && lng.Valid &&
		lat.Value >= -90 && lat.Value <= 90 && lng.Value >= -180 && lng.Value <= 180 {
		out.Geohash = geohash.EncodeWithPrecision(lat.Value, lng.Value, geohashPrecision)
	}
	return out
}
