// Package docscan extracts text and license numbers from uploaded license
// documents. OCR needs Tesseract installed; the parsing half is pure Go.
package docscan

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// SupportedImage reports whether the file is an image type the scanner can
// handle. PDFs are recorded but skipped; they need manual review.
func SupportedImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// ExtractText runs two OCR passes over the document (normalized and
// binarized) and returns the longer result. Two passes because glossy license
// card photos often defeat one of the two.
func ExtractText(path string) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	prepared := prepare(img)
	var best string
	for _, variant := range []image.Image{prepared, binarize(prepared, 150)} {
		text, err := ocrImage(variant)
		if err != nil {
			continue
		}
		if len(text) > len(best) {
			best = text
		}
	}
	if best == "" {
		return "", fmt.Errorf("ocr produced no text for %s", filepath.Base(path))
	}
	return best, nil
}

// ocrImage writes the variant to a temp PNG and runs Tesseract over it.
// gosseract reads from disk, so the round-trip is unavoidable.
func ocrImage(img image.Image) (string, error) {
	tmp, err := os.CreateTemp("", "docscan-*.png")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := imaging.Save(img, tmpPath); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetImage(tmpPath); err != nil {
		return "", err
	}
	return client.Text()
}
