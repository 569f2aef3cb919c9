// Package thumbs generates thumbnails in the background.
//
// Renderers submit Tasks to a Pool. Workers pop them from a bounded
// priority Queue, decode and resample the image, and publish a Result.
// A single Drain consumer moves results into the Store, discarding those
// issued under an older epoch.
package thumbs

import (
	"image"

	gimage "masonry-gallery/internal/image"
)

// Key identifies a thumbnail: the source path at a requested pixel width.
type Key struct {
	Path  string
	Width int
}

// Task is a request to generate one thumbnail. It carries only copied
// values, never a reference to a catalog descriptor.
type Task struct {
	Key
	Priority float64 // distance in px from the strictly visible band; 0 is visible
	Epoch    uint64  // epoch active when the task was issued

	seq uint64 // queue arrival order, breaks priority ties
}

// Quality returns the resampling quality the task deserves.
func (t Task) Quality() gimage.Quality {
	if t.Priority <= 0 {
		return gimage.QualityHigh
	}
	return gimage.QualityFast
}

// Result is produced once per completed task. Err is set when the source
// could not be decoded; Image is nil in that case.
type Result struct {
	Key
	Image  image.Image
	Err    error
	Epoch  uint64
	Source string
}
