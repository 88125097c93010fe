package render_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/pyscry/pkg/aggregate"
	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
	"github.com/Sumatoshi-tech/pyscry/pkg/render"
)

var sampleEntries = []aggregate.Entry{
	{Name: "attrs", Version: "23.1.0"},
	{Name: "mystery"},
	{Name: "Requests", Version: "2.31.0"},
}

func TestRender_TextStyles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		style string
		want  string
	}{
		{render.StyleMinimum, "attrs>=23.1.0\nmystery\nRequests>=2.31.0\n"},
		{render.StyleExact, "attrs==23.1.0\nmystery\nRequests==2.31.0\n"},
		{render.StyleCompatible, "attrs~=23.1.0\nmystery\nRequests~=2.31.0\n"},
		{render.StyleNone, "attrs\nmystery\nRequests\n"},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			t.Parallel()

			got, err := render.Render(sampleEntries, render.Options{Format: render.FormatText, Style: tt.style})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	got, err := render.Render(sampleEntries, render.Options{Format: render.FormatJSON, Style: render.StyleMinimum})
	require.NoError(t, err)

	assert.Equal(t,
		`[{"name":"attrs","version":"23.1.0","constraint":">="},`+
			`{"name":"mystery","version":null,"constraint":null},`+
			`{"name":"Requests","version":"2.31.0","constraint":">="}]`+"\n",
		got)
}

func TestRender_JSONStyleNoneHasNullConstraint(t *testing.T) {
	t.Parallel()

	got, err := render.Render(sampleEntries, render.Options{Format: render.FormatJSON, Style: render.StyleNone})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"name":"attrs","version":"23.1.0","constraint":null},`+
			`{"name":"mystery","version":null,"constraint":null},`+
			`{"name":"Requests","version":"2.31.0","constraint":null}]`+"\n",
		got)
}

func TestRender_JSONPrettyAndEmpty(t *testing.T) {
	t.Parallel()

	got, err := render.Render(sampleEntries[:1], render.Options{Format: render.FormatJSON, Style: render.StyleExact, Pretty: true})
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"name\": \"attrs\",\n    \"version\": \"23.1.0\",\n    \"constraint\": \"==\"\n  }\n]\n", got)

	empty, err := render.Render(nil, render.Options{Format: render.FormatJSON, Style: render.StyleMinimum})
	require.NoError(t, err)
	assert.Equal(t, "[]\n", empty)

	text, err := render.Render(nil, render.Options{Format: render.FormatText, Style: render.StyleMinimum})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestRender_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := render.Render(sampleEntries, render.Options{Format: "xml", Style: render.StyleMinimum})
	require.ErrorIs(t, err, render.ErrUnknownFormat)

	_, err = render.Render(sampleEntries, render.Options{Format: render.FormatText, Style: "loose"})
	require.ErrorIs(t, err, render.ErrUnknownStyle)
}

func TestRender_JSONMatchesSchema(t *testing.T) {
	t.Parallel()

	for _, style := range render.Styles() {
		for _, pretty := range []bool{false, true} {
			got, err := render.Render(sampleEntries, render.Options{Format: render.FormatJSON, Style: style, Pretty: pretty})
			require.NoError(t, err)

			result, err := gojsonschema.Validate(
				gojsonschema.NewBytesLoader(render.Schema()),
				gojsonschema.NewStringLoader(got),
			)
			require.NoError(t, err)
			assert.True(t, result.Valid(), "%s pretty=%v: %v", style, pretty, result.Errors())
		}
	}
}

func TestParseJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	operators := map[string]string{
		render.StyleMinimum:    ">=",
		render.StyleExact:      "==",
		render.StyleCompatible: "~=",
		render.StyleNone:       "",
	}

	for _, style := range render.Styles() {
		out, err := render.Render(sampleEntries, render.Options{Format: render.FormatJSON, Style: style, Pretty: true})
		require.NoError(t, err)

		got, err := render.ParseJSON([]byte(out))
		require.NoError(t, err)
		require.Len(t, got, len(sampleEntries), style)

		for i, entry := range sampleEntries {
			assert.Equal(t, entry.Name, got[i].Name, style)
			assert.Equal(t, entry.Version, got[i].Version, style)

			wantConstraint := operators[style]
			if entry.Version == "" {
				wantConstraint = ""
			}

			assert.Equal(t, wantConstraint, got[i].Constraint, style)
		}
	}
}

func TestParseJSON_RejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		`{"name":"x"}`,
		`[{"name":"x","version":"1"}]`,
		`[{"name":"x","version":"1","constraint":"<"}]`,
		`[{"name":"","version":null,"constraint":null}]`,
		`not json`,
	} {
		_, err := render.ParseJSON([]byte(input))
		require.ErrorIs(t, err, render.ErrInvalidManifest, input)
	}
}

func TestRequirementString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Requests>=2.31.0", render.Requirement{Name: "Requests", Version: "2.31.0", Constraint: ">="}.String())
	assert.Equal(t, "Requests", render.Requirement{Name: "Requests", Version: "2.31.0"}.String())
}

func TestDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, render.Diff("a\nb\n", "a\nb\n"))

	got := render.Diff("attrs>=22.0.0\nrequests>=2.31.0\n", "attrs>=23.1.0\nrequests>=2.31.0\nrich>=13.0.0\n")

	assert.Equal(t, "- attrs>=22.0.0\n+ attrs>=23.1.0\n  requests>=2.31.0\n+ rich>=13.0.0\n", got)
}

func TestDiagnostics_SummaryAndTable(t *testing.T) {
	t.Parallel()

	diag := aggregate.Diagnostics{
		Ambiguous: []aggregate.AmbiguousModule{{
			Module:     "foo",
			Chosen:     distindex.Distribution{Name: "afoo"},
			Candidates: []distindex.Distribution{{Name: "afoo"}, {Name: "bfoo"}},
			Files:      []string{"a.py"},
		}},
		Unresolved: []aggregate.UnresolvedModule{{Module: "mystery", Files: []string{"b.py"}}},
		Failures:   []aggregate.Failure{{Path: "broken.py", Err: errors.New("syntax error")}},
	}
	summary := render.Summary{Files: 3, Bytes: 2048, Entries: 1}

	var quiet bytes.Buffer
	require.NoError(t, render.Diagnostics(&quiet, summary, diag, render.DiagnosticsOptions{NoColor: true}))
	assert.Equal(t, "scanned 3 files (2.0 kB): 1 dependency, 1 ambiguous, 1 unresolved, 1 failed\n", quiet.String())

	var verbose bytes.Buffer
	require.NoError(t, render.Diagnostics(&verbose, summary, diag, render.DiagnosticsOptions{NoColor: true, Verbose: true}))

	out := verbose.String()
	assert.True(t, strings.HasPrefix(out, quiet.String()))
	assert.Contains(t, out, "chose afoo from afoo, bfoo")
	assert.Contains(t, out, "no installed distribution")
	assert.Contains(t, out, "broken.py")
	assert.Contains(t, out, "syntax error")
}

func TestDiagnostics_CleanRunHasNoTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render.Diagnostics(&buf, render.Summary{Files: 1, Entries: 2}, aggregate.Diagnostics{},
		render.DiagnosticsOptions{NoColor: true, Verbose: true}))

	assert.Equal(t, "scanned 1 file (0 B): 2 dependencies, 0 ambiguous, 0 unresolved, 0 failed\n", buf.String())
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")

	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))
	require.NoError(t, render.WriteFileAtomic(path, []byte("new\n"), 0o644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not remain")
}

func TestWriteFileAtomic_RejectsDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := render.WriteFileAtomic(dir, []byte("x"), 0o644)
	require.ErrorIs(t, err, render.ErrOutputIsDir)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestWriteFileAtomic_MissingDirectoryLeavesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "out.txt")

	require.Error(t, render.WriteFileAtomic(path, []byte("x"), 0o644))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
