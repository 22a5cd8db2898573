package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rsc.io/qr"

	"github.com/AlhasanIQ/oriki/config"
)

// DefaultShareQRPath is used when no output path is given.
func DefaultShareQRPath() string {
	return filepath.Join(os.TempDir(), "oriki-share-qr.png")
}

// WriteShareQRPNG encodes text as a QR code PNG at path, replacing any
// existing file atomically.
func WriteShareQRPNG(text, path string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to encode")
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultShareQRPath()
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", err
	}

	code, err := qr.Encode(text, qr.M)
	if err != nil {
		return "", err
	}
	tmpPath := expanded + ".tmp"
	if err := os.WriteFile(tmpPath, code.PNG(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, expanded); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return expanded, nil
}

// RenderQR draws text as a QR code with half-block characters, two modules
// per character row, with a quiet zone.
func RenderQR(text string) (string, error) {
	code, err := qr.Encode(text, qr.L)
	if err != nil {
		return "", err
	}
	const quiet = 2
	black := func(x, y int) bool {
		if x < 0 || y < 0 || x >= code.Size || y >= code.Size {
			return false
		}
		return code.Black(x, y)
	}

	var b strings.Builder
	for y := -quiet; y < code.Size+quiet; y += 2 {
		for x := -quiet; x < code.Size+quiet; x++ {
			top, bottom := black(x, y), black(x, y+1)
			switch {
			case top && bottom:
				b.WriteRune(' ')
			case top:
				b.WriteRune('▄')
			case bottom:
				b.WriteRune('▀')
			default:
				b.WriteRune('█')
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
