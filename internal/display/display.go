// Package display renders composite charts to the user.
package display

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/browser"
)

// Sink renders one raster to the user.
type Sink interface {
	Show(ctx context.Context, img image.Image) error
}

// Viewer writes the raster to a temporary PNG and hands it to the platform's
// default image viewer. It returns once the viewer has been launched; whether
// the viewer blocks is up to the OS.
type Viewer struct {
	Logger *slog.Logger

	// open launches the platform viewer; nil means browser.OpenFile.
	// Overridable in tests.
	open func(path string) error
}

// Show implements Sink.
func (v *Viewer) Show(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp("", "riceplot-*.png")
	if err != nil {
		return fmt.Errorf("display: temp file: %w", err)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("display: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("display: close temp file: %w", err)
	}

	if v.Logger != nil {
		v.Logger.Debug("opening image viewer", "path", f.Name(),
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	open := v.open
	if open == nil {
		open = browser.OpenFile
	}
	if err := open(f.Name()); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("display: open viewer: %w", err)
	}
	return nil
}

// File writes the raster to a fixed path as PNG, overwriting any existing
// file. Used by --output and in tests.
type File struct {
	Path string
}

// Show implements Sink.
func (f *File) Show(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := imaging.Save(img, f.Path); err != nil {
		return fmt.Errorf("display: save %s: %w", f.Path, err)
	}
	return nil
}
