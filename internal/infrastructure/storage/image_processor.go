package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

// Upload rejections. Callers map these to distinct HTTP error codes, so a
// too-large file is never reported as a generic bad request.
var (
	ErrUnsupportedMedia = errors.New("unsupported image type")
	ErrPayloadTooLarge  = errors.New("image exceeds maximum upload size")
)

// mimeExtensions is the upload allow-list: declared MIME type -> extension
// used for the staged file.
var mimeExtensions = map[string]string{
	"image/jpg":  "jpg",
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

const (
	stagingPrefix = "original_"
	targetWidth   = 300
	jpegQuality   = 50
)

// ImageProcessor validates uploads and transcodes them to the canonical
// cover format (JPEG, width 300, quality 50).
type ImageProcessor struct {
	MaxSize int64 // bytes
}

func NewImageProcessor(maxSize int64) *ImageProcessor {
	return &ImageProcessor{MaxSize: maxSize}
}

// Validate runs the reject checks of the upload pipeline in order: declared
// MIME type, filename extension (checked independently to catch spoofed
// uploads), then size.
func (p *ImageProcessor) Validate(filename, mimeType string, size int64) error {
	if _, ok := mimeExtensions[mimeType]; !ok {
		return fmt.Errorf("%w: mime type %q", ErrUnsupportedMedia, mimeType)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: extension %q", ErrUnsupportedMedia, ext)
	}

	if size > p.MaxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, size, p.MaxSize)
	}

	return nil
}

// Transcode resizes the image to the target width preserving aspect ratio
// and re-encodes it as JPEG.
func (p *ImageProcessor) Transcode(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	resized := imaging.Resize(img, targetWidth, 0, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("cannot encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// StagedName builds the collision-resistant name the original bytes are
// stored under: sanitized base name + timestamp + extension resolved from
// the declared MIME type.
func StagedName(originalName, mimeType string, now time.Time) string {
	base := strings.ReplaceAll(originalName, " ", "_")
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%s%s%d.%s", stagingPrefix, base, now.UnixMilli(), mimeExtensions[mimeType])
}

// FinalName derives the transcoded file name from the staged one.
func FinalName(stagedName string) string {
	name := strings.TrimPrefix(stagedName, stagingPrefix)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return name + ".jpg"
}

// IsStaged reports whether a stored file still carries the staging prefix.
// The sweep job uses it to find leftovers of interrupted uploads.
func IsStaged(name string) bool {
	return strings.HasPrefix(name, stagingPrefix)
}
