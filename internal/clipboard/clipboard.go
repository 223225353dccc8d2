// Package clipboard exchanges drawings with the desktop clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/magicdraw/internal/codec"
)

var (
	// ErrNoImage is returned by Paste when the clipboard holds nothing
	// that decodes as an image.
	ErrNoImage   = errors.New("clipboard does not contain image data")
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// Copy publishes img to the clipboard as PNG.
func Copy(img image.Image) error {
	data, err := codec.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return writeImage(data)
}

// Paste returns the clipboard image as an encoded blob ready for
// engine.AddImage. Text holding an image data URL is accepted as well.
func Paste() ([]byte, error) {
	data, imgErr := readImage()
	if imgErr == nil && len(data) > 0 {
		if _, err := codec.Sniff(data); err == nil {
			return data, nil
		}
	}
	if errors.Is(imgErr, errNoDisplay) {
		return nil, imgErr
	}
	text, err := ReadText()
	if err == nil {
		text = strings.TrimSpace(text)
		if strings.HasPrefix(text, "data:image/") {
			return []byte(text), nil
		}
	}
	if imgErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, imgErr)
	}
	return nil, ErrNoImage
}
