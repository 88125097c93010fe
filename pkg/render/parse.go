package render

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var manifestSchema []byte

// ErrInvalidManifest is returned when JSON input does not match the
// manifest schema.
var ErrInvalidManifest = errors.New("invalid json manifest")

// Schema returns the JSON schema of the json output format.
func Schema() []byte {
	return append([]byte(nil), manifestSchema...)
}

// ParseJSON decodes json output back into requirements after validating it
// against the manifest schema.
func ParseJSON(data []byte) ([]Requirement, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			problems = append(problems, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(problems, "; "))
	}

	var raw []jsonRequirement

	err = json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	reqs := make([]Requirement, 0, len(raw))

	for _, jr := range raw {
		req := Requirement{Name: jr.Name}
		if jr.Version != nil {
			req.Version = *jr.Version
		}

		if jr.Constraint != nil {
			req.Constraint = *jr.Constraint
		}

		reqs = append(reqs, req)
	}

	return reqs, nil
}
