package editor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/project.json
var projectSchemaJSON []byte

var ErrMalformedTree = errors.New("malformed project tree")

var projectSchema = jsonschema.MustCompileString("project.json", string(projectSchemaJSON))

// decodeProject checks a hydrated tree against the project schema before
// decoding it.
func decodeProject(raw []byte) (Project, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Project{}, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	if err := projectSchema.Validate(doc); err != nil {
		return Project{}, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}

	var project Project
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&project); err != nil {
		return Project{}, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	return project, nil
}
