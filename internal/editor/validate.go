package editor

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate reports every problem in the tree. Only the missing name blocks
// submit; the rest are warnings.
func (e *Editor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return validate(e.project)
}

func validate(p Project) error {
	var result *multierror.Error
	if strings.TrimSpace(p.Name) == "" {
		result = multierror.Append(result, ErrNameRequired)
	}

	position := make(map[ID]int, len(p.Buildings))
	for i, b := range p.Buildings {
		position[b.ID] = i
	}

	for i, b := range p.Buildings {
		label := buildingLabel(i, b)
		if !b.TwinOfBuildingID.IsZero() {
			if at, ok := position[b.TwinOfBuildingID]; !ok || at >= i {
				result = multierror.Append(result, fmt.Errorf("%s: %w", label, ErrInvalidTwin))
			}
		}
		switch b.ApplicationType {
		case ApplicationResidential:
			if strings.TrimSpace(b.ResidentialType) == "" {
				result = multierror.Append(result, fmt.Errorf("%s: residential type is not set", label))
			}
		case ApplicationVilla:
			if strings.TrimSpace(b.VillaType) == "" {
				result = multierror.Append(result, fmt.Errorf("%s: villa type is not set", label))
			}
			if b.VillaCount.Valid && b.VillaCount.Value <= 0 {
				result = multierror.Append(result, fmt.Errorf("%s: number of villas must be positive", label))
			}
		}
		for _, f := range b.Floors {
			floor := fmt.Sprintf("%s, %s", label, floorLabel(f))
			if f.FloorNumber.Valid && f.FloorNumber.Value <= 0 {
				result = multierror.Append(result, fmt.Errorf("%s: floor number must be positive", floor))
			}
			for k, flat := range f.Flats {
				if flat.Area.Valid && flat.Area.Value <= 0 {
					result = multierror.Append(result, fmt.Errorf("%s, flat %d: area must be positive", floor, k+1))
				}
				if flat.Count.Valid && flat.Count.Value <= 0 {
					result = multierror.Append(result, fmt.Errorf("%s, flat %d: count must be positive", floor, k+1))
				}
			}
		}
	}
	return result.ErrorOrNil()
}

func buildingLabel(i int, b Building) string {
	if strings.TrimSpace(b.Name) != "" {
		return fmt.Sprintf("building %q", b.Name)
	}
	return fmt.Sprintf("building %d", i+1)
}

func floorLabel(f Floor) string {
	if strings.TrimSpace(f.FloorName) != "" {
		return f.FloorName
	}
	return "unnamed floor"
}

func issues(err error) []string {
	if err == nil {
		return nil
	}
	merr, ok := err.(*multierror.Error)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		out = append(out, e.Error())
	}
	return out
}
