// Package importmodel defines the data model for source file import analysis.
package importmodel

// Module is a root module name referenced by an import statement,
// together with the source file it was found in.
type Module struct {
	Name string
	File string
}

// File represents a scanned source file with its detected third-party
// modules and any parse error. When Error is non-nil, Modules is empty.
type File struct {
	Path    string
	Modules []Module
	Size    int64
	Error   error
}

// Failed reports whether the file could not be processed.
func (f File) Failed() bool {
	return f.Error != nil
}

// Names returns the module names of the file in their stored order.
func (f File) Names() []string {
	names := make([]string, 0, len(f.Modules))

	for _, m := range f.Modules {
		names = append(names, m.Name)
	}

	return names
}
