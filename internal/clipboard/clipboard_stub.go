//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "errors"

var errUnsupported = errors.New("clipboard operations are not supported on this platform")

func writeImage([]byte) error { return errUnsupported }

func readImage() ([]byte, error) { return nil, errUnsupported }

// WriteText writes text data to the clipboard.
func WriteText(string) error { return errUnsupported }

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) { return "", errUnsupported }
