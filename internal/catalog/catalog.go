package catalog

import "context"

// Entry types stored in the catalog.
const (
	TypeImage = "image"
	TypeText  = "text"
	Type3D    = "3d"
)

// Tag is a single descriptive label with its confidence rendered as a
// percentage string, e.g. "87.32%". Synthetic tags carry "100.00%".
type Tag struct {
	Tag        string `json:"tag"`
	Confidence string `json:"confidence"`
}

// Entry is the catalog record for one media file.
type Entry struct {
	Type         string  `json:"type"`
	Tags         []Tag   `json:"tags"`
	Color        string  `json:"color,omitempty"`
	Dimensions   string  `json:"dimensions,omitempty"`
	LastAnalyzed string  `json:"last_analyzed"`
	FileSize     int64   `json:"file_size"`
	Thumbnail    *string `json:"thumbnail,omitempty"`
}

// Catalog is the persistent tag database, keyed by root-relative path.
type Catalog struct {
	Files map[string]Entry `json:"files"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{Files: map[string]Entry{}}
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := New()
	for path, e := range c.Files {
		tags := make([]Tag, len(e.Tags))
		copy(tags, e.Tags)
		e.Tags = tags
		if e.Thumbnail != nil {
			t := *e.Thumbnail
			e.Thumbnail = &t
		}
		out.Files[path] = e
	}
	return out
}

// Store persists catalogs. The scan lifecycle is load-all, mutate in
// memory, write-all, so implementations only need the two bulk
// operations.
type Store interface {
	Load(ctx context.Context) (*Catalog, error)
	Save(ctx context.Context, c *Catalog) error
}
