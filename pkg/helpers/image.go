package helpers

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage is returned by SniffImage when the bytes are not an accepted image.
var ErrNotImage = errors.New("content is not an accepted image")

// sniffLen matches the mimetype default read limit.
const sniffLen = 3072

var imageTypeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageContentType resolves the content type of an uploaded image from the
// declared header, falling back to the file extension. ok is false for
// anything that is not an accepted image type.
func ImageContentType(filename, declared string) (string, bool) {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	for _, ct := range imageTypeByExt {
		if declared == ct {
			return ct, true
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, false
	}
	ct, ok := imageTypeByExt[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// ImageExt returns the canonical extension for an accepted image type.
func ImageExt(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

// SniffImage identifies an upload from its leading bytes. The returned reader
// yields the full stream, including the bytes consumed for detection.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	body := io.MultiReader(bytes.NewReader(head), r)
	// variants such as APNG resolve through their parent type
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if ct := m.String(); ImageExt(ct) != "" {
			return ct, body, nil
		}
	}
	return "", body, ErrNotImage
}
