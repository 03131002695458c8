package display

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestFile_Show(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	img := imaging.New(10, 4, color.NRGBA{R: 0xff, A: 0xff})

	sink := &File{Path: path}
	if err := sink.Show(context.Background(), img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("saved file is not a decodable image: %v", err)
	}
	if saved.Bounds().Dx() != 10 || saved.Bounds().Dy() != 4 {
		t.Errorf("saved bounds = %v, want 10x4", saved.Bounds())
	}
}

func TestFile_Show_BadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.notaformat")
	img := imaging.New(2, 2, color.NRGBA{A: 0xff})

	if err := (&File{Path: path}).Show(context.Background(), img); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestViewer_Show_HandsOffTempPNG(t *testing.T) {
	var opened string
	v := &Viewer{open: func(path string) error {
		opened = path
		return nil
	}}

	img := imaging.New(6, 3, color.NRGBA{R: 0xff, A: 0xff})
	if err := v.Show(context.Background(), img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(opened)

	if opened == "" {
		t.Fatal("expected the viewer to be launched with a path")
	}
	saved, err := imaging.Open(opened)
	if err != nil {
		t.Fatalf("handed-off file is not a decodable image: %v", err)
	}
	if saved.Bounds().Dx() != 6 || saved.Bounds().Dy() != 3 {
		t.Errorf("handed-off bounds = %v, want 6x3", saved.Bounds())
	}
}

func TestViewer_Show_RemovesTempFileWhenViewerFails(t *testing.T) {
	var opened string
	v := &Viewer{open: func(path string) error {
		opened = path
		return errors.New("no viewer available")
	}}

	img := imaging.New(2, 2, color.NRGBA{A: 0xff})
	if err := v.Show(context.Background(), img); err == nil {
		t.Fatal("expected the viewer failure to propagate")
	}

	if opened == "" {
		t.Fatal("expected the viewer to be invoked")
	}
	if _, err := os.Stat(opened); !os.IsNotExist(err) {
		t.Errorf("temp file %s should be removed when the viewer fails", opened)
	}
}

func TestFile_Show_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := imaging.New(2, 2, color.NRGBA{A: 0xff})
	if err := (&File{Path: filepath.Join(t.TempDir(), "x.png")}).Show(ctx, img); err == nil {
		t.Fatal("expected context error")
	}
}
