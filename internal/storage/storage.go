// Package storage persists uploaded post images on local disk.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mutualaid/internal/config"
	"mutualaid/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "./uploads"
	DefaultMaxUploadSizeMB = 10
	// PublicPrefix is the URL path the upload directory is served under.
	PublicPrefix  = "/uploads"
	MasterMaxSize = 2048
	JPEGQuality   = 82
	WebPQuality   = 70
)

// Upload is a file received from a client.
type Upload struct {
	// OwnerID scopes the stored key, so two members uploading the same
	// picture never share a file.
	OwnerID     uint
	Filename    string
	ContentType string
	Content     []byte
}

// StoredFile describes a persisted upload.
type StoredFile struct {
	Key     string `json:"key"`
	URL     string `json:"url"`
	WebPURL string `json:"webpUrl"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bytes   int64  `json:"bytes"`
	// Reused is set when the owner had already stored identical content.
	Reused bool `json:"-"`
}

// Storage saves and removes uploaded images.
type Storage interface {
	Save(ctx context.Context, in Upload) (*StoredFile, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorage writes images under a directory, named by content hash.
type LocalStorage struct {
	dir                string
	baseURL            string
	maxUploadSizeBytes int64
}

// NewLocalStorage builds a LocalStorage from cfg; nil cfg uses defaults.
func NewLocalStorage(cfg *config.Config) *LocalStorage {
	dir := DefaultUploadDir
	maxMB := DefaultMaxUploadSizeMB
	baseURL := ""
	if cfg != nil {
		if cfg.UploadDir != "" {
			dir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxMB = cfg.ImageMaxUploadSizeMB
		}
		baseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return &LocalStorage{
		dir:                dir,
		baseURL:            baseURL,
		maxUploadSizeBytes: int64(maxMB) * 1024 * 1024,
	}
}

// Dir returns the directory files are written to.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(ctx context.Context, in Upload) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, formatToMIME(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)

	jpgBytes, err := encodeJPEG(master)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	webpBytes, err := encodeWebP(master)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := ownedContentHash(in.OwnerID, jpgBytes)
	jpgPath := filepath.Join(s.dir, key+".jpg")
	webpPath := filepath.Join(s.dir, key+".webp")
	_, statErr := os.Stat(jpgPath)
	reused := statErr == nil

	if err := writeBytesToFile(jpgPath, jpgBytes); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpPath, webpBytes); err != nil {
		_ = os.Remove(jpgPath)
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &StoredFile{
		Key:     key,
		URL:     s.publicURL(key + ".jpg"),
		WebPURL: s.publicURL(key + ".webp"),
		Width:   b.Dx(),
		Height:  b.Dy(),
		Bytes:   int64(len(jpgBytes)),
		Reused:  reused,
	}, nil
}

// Delete removes both renditions of key. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	if !isValidKey(key) {
		return models.NewValidationError("Invalid file key")
	}
	var errs []error
	for _, ext := range []string{".jpg", ".webp"} {
		if err := os.Remove(filepath.Join(s.dir, key+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KeyFromURL extracts the storage key from a URL produced by Save.
// It returns false for URLs that point elsewhere.
func KeyFromURL(rawURL string) (string, bool) {
	i := strings.Index(rawURL, PublicPrefix+"/")
	if i < 0 {
		return "", false
	}
	name := path.Base(rawURL[i+len(PublicPrefix)+1:])
	key := strings.TrimSuffix(strings.TrimSuffix(name, ".jpg"), ".webp")
	if !isValidKey(key) {
		return "", false
	}
	return key, true
}

// IsStoredURL reports whether rawURL names a file in upload storage.
func IsStoredURL(rawURL string) bool {
	_, ok := KeyFromURL(rawURL)
	return ok
}

// KeyPattern is a SQL LIKE pattern matching every URL that names key.
func KeyPattern(key string) string {
	return "%" + PublicPrefix + "/" + key + ".%"
}

func (s *LocalStorage) publicURL(name string) string {
	return s.baseURL + PublicPrefix + "/" + name
}

// isValidKey accepts lowercase hex only, which keeps keys out of path traversal.
func isValidKey(key string) bool {
	if len(key) == 0 || len(key) > 128 {
		return false
	}
	for _, c := range key {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func isMatchingContentType(provided, detected string) bool {
	if provided == detected {
		return true
	}
	return (provided == "image/jpg" && detected == "image/jpeg") || (provided == "image/jpeg" && detected == "image/jpg")
}

func formatToMIME(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png", "gif", "webp":
		return "image/" + format
	default:
		return ""
	}
}

func ownedContentHash(ownerID uint, content []byte) string {
	h := sha256.New()
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(ownerID))
	h.Write(prefix[:])
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}
