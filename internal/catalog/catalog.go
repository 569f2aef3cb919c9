// Package catalog holds the ordered image list and its selection state.
package catalog

import "time"

// ImageDescriptor describes one image of the collection.
type ImageDescriptor struct {
	Path      string    // Unique identifier
	Name      string    // Display name (base name)
	Selected  bool      // Toggled from the UI
	Timestamp time.Time // File modification time, zero when unknown
}

// ViewMode selects which descriptors the grid shows.
type ViewMode int

const (
	ViewAll ViewMode = iota
	ViewSelected
)

func (m ViewMode) String() string {
	switch m {
	case ViewAll:
		return "All"
	case ViewSelected:
		return "Selected"
	default:
		return "Unknown"
	}
}

// Catalog is an ordered list of descriptors indexed by path.
//
// Catalog is not safe for concurrent use; app.State owns it and mutates it
// only from the UI side. Workers receive path strings, never descriptors.
type Catalog struct {
	items []ImageDescriptor
	index map[string]int
}

// New creates a catalog keeping the given order. Duplicate paths after the
// first occurrence are dropped.
func New(items []ImageDescriptor) *Catalog {
	c := &Catalog{
		items: make([]ImageDescriptor, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, item := range items {
		if _, dup := c.index[item.Path]; dup {
			continue
		}
		c.index[item.Path] = len(c.items)
		c.items = append(c.items, item)
	}
	return c
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.items)
}

// At returns a copy of the i-th descriptor.
func (c *Catalog) At(i int) ImageDescriptor {
	return c.items[i]
}

// Index returns the position of path.
func (c *Catalog) Index(path string) (int, bool) {
	i, ok := c.index[path]
	return i, ok
}

// IsSelected reports whether path is selected.
func (c *Catalog) IsSelected(path string) bool {
	i, ok := c.index[path]
	return ok && c.items[i].Selected
}

// SetSelected sets the selection flag of path. It reports whether path exists.
func (c *Catalog) SetSelected(path string, selected bool) bool {
	i, ok := c.index[path]
	if !ok {
		return false
	}
	c.items[i].Selected = selected
	return true
}

// Toggle flips the selection flag of path and returns the new value.
func (c *Catalog) Toggle(path string) bool {
	i, ok := c.index[path]
	if !ok {
		return false
	}
	c.items[i].Selected = !c.items[i].Selected
	return c.items[i].Selected
}

// ClearSelection deselects everything.
func (c *Catalog) ClearSelection() {
	for i := range c.items {
		c.items[i].Selected = false
	}
}

// Selected returns copies of the selected descriptors in catalog order.
func (c *Catalog) Selected() []ImageDescriptor {
	var out []ImageDescriptor
	for _, item := range c.items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}

// Visible returns copies of the descriptors shown in mode, in catalog order.
func (c *Catalog) Visible(mode ViewMode) []ImageDescriptor {
	if mode == ViewSelected {
		return c.Selected()
	}
	out := make([]ImageDescriptor, len(c.items))
	copy(out, c.items)
	return out
}

// Paths returns the paths shown in mode, in catalog order.
func (c *Catalog) Paths(mode ViewMode) []string {
	visible := c.Visible(mode)
	paths := make([]string, len(visible))
	for i, item := range visible {
		paths[i] = item.Path
	}
	return paths
}
