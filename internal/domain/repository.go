package domain

import "context"

// VideoRepository defines the interface for archive data access
type VideoRepository interface {
	// GetLibrary retrieves the archive's video list, most recent first
	GetLibrary(ctx context.Context) ([]*Video, error)

	// PersistVideoState upserts the given partial playback state for a video.
	// The call is expected to be an upsert: issuing the same update twice is
	// safe.  Retry policy belongs to the archive layer, not to callers.
	PersistVideoState(ctx context.Context, id string, update *VideoStateUpdate) error
}
