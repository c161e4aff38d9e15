// Package images declares the image-processing capability the catalog
// depends on. Resizing and encoding happen outside this service; the
// catalog only hands over a source file and receives the stored filename.
package images

import "context"

type Options struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// DefaultOptions mirrors what the upload pipeline produces today.
func DefaultOptions() Options {
	return Options{
		Width:   800,
		Height:  600,
		Quality: 80,
		Format:  "webp",
	}
}

// Processor transforms uploaded source files into stored images.
// Process removes the source file on success and returns the filename of
// the processed image. Remove deletes a previously stored image and is
// best-effort.
type Processor interface {
	Process(ctx context.Context, sourcePath string, opts Options) (string, error)
	Remove(ctx context.Context, filename string) error
}
