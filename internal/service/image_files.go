package service

import (
	"context"

	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/repository"
	"mutualaid/internal/storage"
)

// imageFiles removes stored upload files once no image or media row points at them.
// Keys are content hashes, so two rows may share one file.
type imageFiles struct {
	media   repository.MediaRepository
	storage storage.Storage
}

// release deletes the files behind urls that are no longer referenced.
// Call it after the owning rows are gone.
func (f imageFiles) release(ctx context.Context, urls []string) {
	if f.storage == nil || f.media == nil {
		return
	}
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		key, ok := storage.KeyFromURL(u)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true

		refs, err := f.media.CountURLRefs(ctx, storage.KeyPattern(key))
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to count stored image references", "key", key, "error", err)
			continue
		}
		if refs > 0 {
			continue
		}
		if err := f.storage.Delete(ctx, key); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove stored image", "key", key, "error", err)
		}
	}
}

// discard rolls back a Save whose row was never written. A reused file
// already belongs to an earlier row and is left alone.
func (f imageFiles) discard(ctx context.Context, stored *storage.StoredFile) {
	if stored == nil || stored.Reused || f.storage == nil {
		return
	}
	if err := f.storage.Delete(ctx, stored.Key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove stored image", "key", stored.Key, "error", err)
	}
}

// rejectStoredURLs keeps callers from attaching upload paths by URL. Uploads
// are scoped to their owner and only enter a post through Save.
func rejectStoredURLs(urls ...string) error {
	for _, u := range urls {
		if storage.IsStoredURL(u) {
			return models.NewValidationError("Uploaded images must be attached as files")
		}
	}
	return nil
}

func imageURLs(images []models.Image) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.URL)
	}
	return urls
}
