package catalog

// Catalog derives every file of a pool from its base path.
type Catalog struct {
	base string
}

// File names one pool file. FileID is stable across restarts.
type File struct {
	Name   string
	Path   string
	FileID uint32
}
