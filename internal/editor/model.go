package editor

import (
	"atelier/portal/internal/backend"
)

type (
	ID     = backend.ID
	Number = backend.Number
)

// Field names a top-level project field that is autosaved on change.
type Field string

const (
	FieldName      Field = "name"
	FieldLocation  Field = "location"
	FieldLatitude  Field = "latitude"
	FieldLongitude Field = "longitude"
)

// Building-type-specific fields, exposed depending on applicationType.
const (
	FieldResidentialType Field = "residentialType"
	FieldVillaType       Field = "villaType"
	FieldVillaCount      Field = "villaCount"
)

const (
	ApplicationResidential = "Residential"
	ApplicationVilla       = "Villa"
)

type Project struct {
	ID        ID         `json:"id,omitempty"`
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	Latitude  Number     `json:"latitude"`
	Longitude Number     `json:"longitude"`
	Buildings []Building `json:"buildings"`
}

type Building struct {
	ID               ID      `json:"id"`
	Name             string  `json:"name"`
	ApplicationType  string  `json:"applicationType"`
	ResidentialType  string  `json:"residentialType"`
	VillaType        string  `json:"villaType"`
	VillaCount       Number  `json:"villaCount"`
	IsTwin           bool    `json:"isTwin"`
	TwinOfBuildingID ID      `json:"twinOfBuildingId"`
	Floors           []Floor `json:"floors"`
}

type Floor struct {
	ID          ID     `json:"id"`
	FloorNumber Number `json:"floorNumber"`
	FloorName   string `json:"floorName"`
	Flats       []Flat `json:"flats"`
}

type Flat struct {
	ID    ID     `json:"id"`
	Type  string `json:"type"`
	Area  Number `json:"area"`
	Count Number `json:"count"`
}

// Patches carry only the fields being changed. A nil pointer leaves the
// field as is.

type BuildingPatch struct {
	Name             *string `json:"name,omitempty"`
	ApplicationType  *string `json:"applicationType,omitempty"`
	ResidentialType  *string `json:"residentialType,omitempty"`
	VillaType        *string `json:"villaType,omitempty"`
	VillaCount       *Number `json:"villaCount,omitempty"`
	IsTwin           *bool   `json:"isTwin,omitempty"`
	TwinOfBuildingID *ID     `json:"twinOfBuildingId,omitempty"`
}

type FloorPatch struct {
	FloorNumber *Number `json:"floorNumber,omitempty"`
	FloorName   *string `json:"floorName,omitempty"`
}

type FlatPatch struct {
	Type  *string `json:"type,omitempty"`
	Area  *Number `json:"area,omitempty"`
	Count *Number `json:"count,omitempty"`
}

// TypeSpecificFields lists the building fields that apply to an application
// type. Only Residential and Villa have any.
func TypeSpecificFields(applicationType string) []Field {
	switch applicationType {
	case ApplicationResidential:
		return []Field{FieldResidentialType}
	case ApplicationVilla:
		return []Field{FieldVillaType, FieldVillaCount}
	default:
		return []Field{}
	}
}

func (p Project) clone() Project {
	out := p
	out.Buildings = make([]Building, len(p.Buildings))
	for i, b := range p.Buildings {
		out.Buildings[i] = b.clone()
	}
	return out
}

func (b Building) clone() Building {
	out := b
	out.Floors = make([]Floor, len(b.Floors))
	for i, f := range b.Floors {
		out.Floors[i] = f.clone()
	}
	return out
}

func (f Floor) clone() Floor {
	out := f
	out.Flats = make([]Flat, len(f.Flats))
	copy(out.Flats, f.Flats)
	return out
}

func (p *Project) building(id ID) (int, *Building) {
	for i := range p.Buildings {
		if p.Buildings[i].ID == id {
			return i, &p.Buildings[i]
		}
	}
	return -1, nil
}

func (b *Building) floor(id ID) *Floor {
	for i := range b.Floors {
		if b.Floors[i].ID == id {
			return &b.Floors[i]
		}
	}
	return nil
}

func (f *Floor) flat(id ID) *Flat {
	for i := range f.Flats {
		if f.Flats[i].ID == id {
			return &f.Flats[i]
		}
	}
	return nil
}
