// Package media stores image attachments of posts on the local filesystem.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/models"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// Dir is the directory under the media root that holds post images.
	Dir = "posts"
	// MaxDimension bounds the width and height of stored images.
	MaxDimension = 1600
	JPEGQuality  = 85

	invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// Upload is a file received from a form.
type Upload struct {
	Filename string
	Content  []byte
}

// Store validates, normalizes and writes images under a media root.
type Store struct {
	root     string
	maxBytes int64
}

func NewStore(root string, maxUploadMB int) *Store {
	return &Store{root: root, maxBytes: int64(maxUploadMB) * 1024 * 1024}
}

// Root returns the directory served as /media/.
func (s *Store) Root() string {
	return s.root
}

// Save checks that the upload is a png, jpeg, gif or webp image, downsizes it to
// MaxDimension and writes it under a content-addressed name. It returns the path
// relative to the media root. Rejected input is a field error on "image".
func (s *Store) Save(_ context.Context, up Upload) (string, error) {
	if len(up.Content) == 0 {
		return "", imageError("The submitted file is empty.")
	}
	if int64(len(up.Content)) > s.maxBytes {
		return "", imageError(fmt.Sprintf("File too large (max %dMB).", s.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(up.Content)) {
		return "", imageError(invalidImageMessage)
	}

	decoded, format, err := image.Decode(bytes.NewReader(up.Content))
	if err != nil {
		return "", imageError(invalidImageMessage)
	}

	data, ext, err := normalize(decoded, format, up.Content)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	sum := sha256.Sum256(data)
	rel := filepath.ToSlash(filepath.Join(Dir, hex.EncodeToString(sum[:16])+ext))
	if err := writeBytesToFile(filepath.Join(s.root, filepath.FromSlash(rel)), data); err != nil {
		return "", models.NewInternalError(err)
	}
	return rel, nil
}

// Remove deletes a stored image. Missing files are ignored.
func (s *Store) Remove(rel string) error {
	if rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func imageError(message string) error {
	return models.NewFieldErrors(map[string]string{"image": message})
}

// normalize keeps small images byte for byte and re-encodes oversized ones.
func normalize(img image.Image, format string, original []byte) ([]byte, string, error) {
	b := img.Bounds()
	if b.Dx() <= MaxDimension && b.Dy() <= MaxDimension {
		return original, extensionFor(format), nil
	}

	resized := resizeToFit(img, MaxDimension, MaxDimension)
	var buf bytes.Buffer
	switch format {
	case "png", "gif":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".png", nil
	default:
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".jpg", nil
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".img"
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
