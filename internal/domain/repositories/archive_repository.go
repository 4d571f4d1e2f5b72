package repositories

import "context"

// ArchiveRepository publishes a packed copy of the backup repository.
type ArchiveRepository interface {
	// Publish packs dir and stores it under key, returning the object location.
	Publish(ctx context.Context, dir, key string) (string, error)
}
