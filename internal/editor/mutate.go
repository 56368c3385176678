package editor

import (
	"fmt"

	"atelier/portal/internal/backend"
)

// Structural edits stay local until submit. Operations addressing an id that
// no longer exists return a zero ID and no error, leaving the tree as is.

func (e *Editor) AddBuilding() (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return "", err
	}
	b := Building{ID: e.ids.NewID(), Floors: []Floor{}}
	e.project.Buildings = append(e.project.Buildings, b)
	return b.ID, nil
}

// UpdateBuilding merges patch into the building. Clearing isTwin drops the
// twin reference; a twin reference must name a building positioned earlier
// in the list.
func (e *Editor) UpdateBuilding(buildingID ID, patch BuildingPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	idx, b := e.project.building(buildingID)
	if b == nil {
		return nil
	}

	next := *b
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.ApplicationType != nil {
		next.ApplicationType = *patch.ApplicationType
	}
	if patch.ResidentialType != nil {
		next.ResidentialType = *patch.ResidentialType
	}
	if patch.VillaType != nil {
		next.VillaType = *patch.VillaType
	}
	if patch.VillaCount != nil {
		next.VillaCount = *patch.VillaCount
	}
	if patch.IsTwin != nil {
		next.IsTwin = *patch.IsTwin
		if !next.IsTwin {
			next.TwinOfBuildingID = ""
		}
	}
	if patch.TwinOfBuildingID != nil {
		target := *patch.TwinOfBuildingID
		if !target.IsZero() {
			if patch.IsTwin != nil && !*patch.IsTwin {
				return ErrInvalidTwin
			}
			if t, _ := e.project.building(target); t < 0 || t >= idx {
				return ErrInvalidTwin
			}
			next.IsTwin = true
		}
		next.TwinOfBuildingID = target
	}
	*b = next
	return nil
}

// DeleteBuilding removes the building and its subtree. Buildings that were
// twins of it stop being twins.
func (e *Editor) DeleteBuilding(buildingID ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	idx, _ := e.project.building(buildingID)
	if idx < 0 {
		return nil
	}
	buildings := make([]Building, 0, len(e.project.Buildings)-1)
	buildings = append(buildings, e.project.Buildings[:idx]...)
	buildings = append(buildings, e.project.Buildings[idx+1:]...)
	for i := range buildings {
		if buildings[i].TwinOfBuildingID == buildingID {
			buildings[i].TwinOfBuildingID = ""
			buildings[i].IsTwin = false
		}
	}
	e.project.Buildings = buildings
	return nil
}

// AddFloor appends Floor n+1 to the building.
func (e *Editor) AddFloor(buildingID ID) (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return "", err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return "", nil
	}
	f := e.nextFloor(b)
	b.Floors = append(b.Floors, f)
	return f.ID, nil
}

func (e *Editor) nextFloor(b *Building) Floor {
	n := len(b.Floors) + 1
	return Floor{
		ID:          e.ids.NewID(),
		FloorNumber: backend.NewNumber(float64(n)),
		FloorName:   fmt.Sprintf("Floor %d", n),
		Flats:       []Flat{},
	}
}

func (e *Editor) UpdateFloor(buildingID, floorID ID, patch FloorPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return nil
	}
	f := b.floor(floorID)
	if f == nil {
		return nil
	}
	if patch.FloorNumber != nil {
		f.FloorNumber = *patch.FloorNumber
	}
	if patch.FloorName != nil {
		f.FloorName = *patch.FloorName
	}
	return nil
}

func (e *Editor) DeleteFloor(buildingID, floorID ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return nil
	}
	floors := b.Floors[:0:0]
	for _, f := range b.Floors {
		if f.ID != floorID {
			floors = append(floors, f)
		}
	}
	b.Floors = floors
	return nil
}

func (e *Editor) AddFlat(buildingID, floorID ID) (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return "", err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return "", nil
	}
	f := b.floor(floorID)
	if f == nil {
		return "", nil
	}
	flat := Flat{ID: e.ids.NewID()}
	f.Flats = append(f.Flats, flat)
	return flat.ID, nil
}

func (e *Editor) UpdateFlat(buildingID, floorID, flatID ID, patch FlatPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return nil
	}
	f := b.floor(floorID)
	if f == nil {
		return nil
	}
	flat := f.flat(flatID)
	if flat == nil {
		return nil
	}
	if patch.Type != nil {
		flat.Type = *patch.Type
	}
	if patch.Area != nil {
		flat.Area = *patch.Area
	}
	if patch.Count != nil {
		flat.Count = *patch.Count
	}
	return nil
}

func (e *Editor) DeleteFlat(buildingID, floorID, flatID ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return nil
	}
	f := b.floor(floorID)
	if f == nil {
		return nil
	}
	flats := f.Flats[:0:0]
	for _, flat := range f.Flats {
		if flat.ID != flatID {
			flats = append(flats, flat)
		}
	}
	f.Flats = flats
	return nil
}

// CopyFloorData appends a new floor to the same building carrying a copy of
// the source floor's flats under fresh ids.
func (e *Editor) CopyFloorData(buildingID, fromFloorID ID) (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return "", err
	}
	_, b := e.project.building(buildingID)
	if b == nil {
		return "", nil
	}
	src := b.floor(fromFloorID)
	if src == nil {
		return "", nil
	}
	f := e.nextFloor(b)
	f.Flats = e.cloneFlats(src.Flats)
	b.Floors = append(b.Floors, f)
	return f.ID, nil
}

// CopyBuildingData appends a twin of the source building: same attributes,
// "(Copy)" name suffix, and a structurally equal floor/flat subtree under
// fresh ids.
func (e *Editor) CopyBuildingData(fromBuildingID ID) (ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return "", err
	}
	_, src := e.project.building(fromBuildingID)
	if src == nil {
		return "", nil
	}
	twin := Building{
		ID:               e.ids.NewID(),
		Name:             src.Name + " (Copy)",
		ApplicationType:  src.ApplicationType,
		ResidentialType:  src.ResidentialType,
		VillaType:        src.VillaType,
		VillaCount:       src.VillaCount,
		IsTwin:           true,
		TwinOfBuildingID: src.ID,
		Floors:           make([]Floor, len(src.Floors)),
	}
	for i, f := range src.Floors {
		twin.Floors[i] = Floor{
			ID:          e.ids.NewID(),
			FloorNumber: f.FloorNumber,
			FloorName:   f.FloorName,
			Flats:       e.cloneFlats(f.Flats),
		}
	}
	e.project.Buildings = append(e.project.Buildings, twin)
	return twin.ID, nil
}

func (e *Editor) cloneFlats(flats []Flat) []Flat {
	out := make([]Flat, len(flats))
	for i, flat := range flats {
		flat.ID = e.ids.NewID()
		out[i] = flat
	}
	return out
}
