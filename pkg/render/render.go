// Package render formats the aggregated dependency list.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/pyscry/pkg/aggregate"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Version styles.
const (
	StyleMinimum    = "minimum"
	StyleExact      = "exact"
	StyleCompatible = "compatible"
	StyleNone       = "none"
)

const jsonIndent = "  "

// Sentinel errors for invalid options.
var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrUnknownStyle  = errors.New("unknown version style")
)

var styleOperators = map[string]string{
	StyleMinimum:    ">=",
	StyleExact:      "==",
	StyleCompatible: "~=",
	StyleNone:       "",
}

// Formats lists the supported output formats.
func Formats() []string { return []string{FormatText, FormatJSON} }

// Styles lists the supported version styles.
func Styles() []string { return []string{StyleMinimum, StyleExact, StyleCompatible, StyleNone} }

// Options selects how entries are rendered.
type Options struct {
	Format string
	Style  string

	// Pretty indents JSON output.
	Pretty bool
}

// Requirement is one rendered dependency. Version is empty when unknown.
// Constraint is empty when the version is unknown or the style is "none".
type Requirement struct {
	Name       string
	Version    string
	Constraint string
}

// String returns the text form, e.g. "Requests>=2.31.0".
func (r Requirement) String() string {
	if r.Constraint == "" || r.Version == "" {
		return r.Name
	}

	return r.Name + r.Constraint + r.Version
}

type jsonRequirement struct {
	Name       string  `json:"name"`
	Version    *string `json:"version"`
	Constraint *string `json:"constraint"`
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}

	return nil
}

// ValidateStyle checks that style is supported.
func ValidateStyle(style string) error {
	if _, ok := styleOperators[style]; !ok {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownStyle, style, strings.Join(Styles(), ", "))
	}

	return nil
}

// Requirements applies the version style to entries.
func Requirements(entries []aggregate.Entry, style string) ([]Requirement, error) {
	err := ValidateStyle(style)
	if err != nil {
		return nil, err
	}

	op := styleOperators[style]
	reqs := make([]Requirement, 0, len(entries))

	for _, e := range entries {
		req := Requirement{Name: e.Name, Version: e.Version}
		if op != "" && e.Version != "" {
			req.Constraint = op
		}

		reqs = append(reqs, req)
	}

	return reqs, nil
}

// Render formats entries. Entries are rendered in the given order.
func Render(entries []aggregate.Entry, opts Options) (string, error) {
	err := ValidateFormat(opts.Format)
	if err != nil {
		return "", err
	}

	reqs, err := Requirements(entries, opts.Style)
	if err != nil {
		return "", err
	}

	if opts.Format == FormatJSON {
		return renderJSON(reqs, opts.Pretty)
	}

	return renderText(reqs), nil
}

func renderText(reqs []Requirement) string {
	var sb strings.Builder

	for _, r := range reqs {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}

	return sb.String()
}

func renderJSON(reqs []Requirement, pretty bool) (string, error) {
	out := make([]jsonRequirement, 0, len(reqs))

	for _, r := range reqs {
		jr := jsonRequirement{Name: r.Name}
		if r.Version != "" {
			jr.Version = &r.Version
		}

		if r.Constraint != "" {
			jr.Constraint = &r.Constraint
		}

		out = append(out, jr)
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if pretty {
		enc.SetIndent("", jsonIndent)
	}

	err := enc.Encode(out)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}

	return buf.String(), nil
}
