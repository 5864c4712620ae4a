package corpus

// Entry names one selectable corpus: the display name shown to users and the
// source identifier passed to Open.
type Entry struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Catalog is the ordered list of corpora a user can switch between. The first
// entry is the default.
type Catalog []Entry

// DefaultCatalog returns the catalog used when none is configured.
func DefaultCatalog() Catalog {
	return Catalog{{Name: "iwataGPT1.0", Source: "iwataGPT1.0.json"}}
}

// Default returns the first entry, or false for an empty catalog.
func (c Catalog) Default() (Entry, bool) {
	if len(c) == 0 {
		return Entry{}, false
	}
	return c[0], true
}

// Resolve finds an entry by display name, falling back to a match on the source
// identifier.
func (c Catalog) Resolve(nameOrSource string) (Entry, bool) {
	for _, e := range c {
		if e.Name == nameOrSource {
			return e, true
		}
	}
	for _, e := range c {
		if e.Source == nameOrSource {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the display names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name
	}
	return names
}

// LocalPath returns the file path of the entry's source when it is a local
// file. Only such entries can be watched for changes.
func (e Entry) LocalPath() (string, bool) {
	src, err := Open(e.Source)
	if err != nil {
		return "", false
	}
	fs, ok := src.(*FileSource)
	if !ok {
		return "", false
	}
	return fs.Path, true
}
