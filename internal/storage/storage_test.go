package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mutualaid/internal/config"
	"mutualaid/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	return NewLocalStorage(&config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})
}

func TestLocalStorage_SaveWritesBothRenditions(t *testing.T) {
	s := newTestStorage(t)

	stored, err := s.Save(context.Background(), Upload{OwnerID: 1, Filename: "sofa.png", ContentType: "image/png", Content: pngBytes(t, 64, 32)})
	require.NoError(t, err)

	assert.Len(t, stored.Key, 64)
	assert.Equal(t, "/uploads/"+stored.Key+".jpg", stored.URL)
	assert.Equal(t, "/uploads/"+stored.Key+".webp", stored.WebPURL)
	assert.Equal(t, 64, stored.Width)
	assert.Equal(t, 32, stored.Height)
	assert.False(t, stored.Reused)

	for _, ext := range []string{".jpg", ".webp"} {
		_, err := os.Stat(filepath.Join(s.Dir(), stored.Key+ext))
		assert.NoError(t, err, ext)
	}

	again, err := s.Save(context.Background(), Upload{OwnerID: 1, Content: pngBytes(t, 64, 32)})
	require.NoError(t, err)
	assert.Equal(t, stored.Key, again.Key, "same owner and content share a key")
	assert.True(t, again.Reused)

	other, err := s.Save(context.Background(), Upload{OwnerID: 2, Content: pngBytes(t, 64, 32)})
	require.NoError(t, err)
	assert.NotEqual(t, stored.Key, other.Key, "keys are scoped to the uploader")
	assert.False(t, other.Reused)
}

func TestLocalStorage_SaveDownsizesLargeImages(t *testing.T) {
	s := NewLocalStorage(&config.Config{UploadDir: t.TempDir(), ImageMaxUploadSizeMB: 50})

	stored, err := s.Save(context.Background(), Upload{Content: pngBytes(t, 4096, 1024)})
	require.NoError(t, err)
	assert.Equal(t, MasterMaxSize, stored.Width)
	assert.Equal(t, 512, stored.Height)
}

func TestLocalStorage_SaveRejects(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   Upload
		msg  string
	}{
		{"empty", Upload{}, "No file uploaded"},
		{"too large", Upload{Content: make([]byte, 2*1024*1024)}, "File too large (max 1MB)"},
		{"not an image", Upload{Content: []byte("plain text, definitely not a picture")}, "Invalid image type"},
		{"mismatched type", Upload{ContentType: "image/jpeg", Content: pngBytes(t, 8, 8)}, "Image content type mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(ctx, tt.in)
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	stored, err := s.Save(ctx, Upload{Content: pngBytes(t, 16, 16)})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, stored.Key))
	_, err = os.Stat(filepath.Join(s.Dir(), stored.Key+".jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, stored.Key), "deleting twice is fine")
	assert.Error(t, s.Delete(ctx, "../etc/passwd"))
}

func TestKeyFromURL(t *testing.T) {
	key := "ab12cd"
	got, ok := KeyFromURL("https://cdn.example.com/uploads/" + key + ".jpg")
	assert.True(t, ok)
	assert.Equal(t, key, got)

	got, ok = KeyFromURL("/uploads/" + key + ".webp")
	assert.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = KeyFromURL("https://images.example.com/photo.jpg")
	assert.False(t, ok)

	assert.True(t, IsStoredURL("/uploads/"+key+".jpg"))
	assert.False(t, IsStoredURL("https://images.example.com/photo.jpg"))
	assert.Equal(t, "%/uploads/"+key+".%", KeyPattern(key))
}
