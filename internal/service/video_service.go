package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/Karasuhime/yozora/internal/log"
)

type VideoService struct {
	repo domain.VideoRepository
	// Keeps a local copy of the library, only updating it on user request
	library    []*domain.Video
	updateLock sync.Mutex
}

func NewVideoService(repo domain.VideoRepository) *VideoService {
	return &VideoService{
		repo: repo,
	}
}

func (s *VideoService) GetLibrary() []*domain.Video {
	return s.library
}

// LoadLibrary fetches the complete video library from the repository
func (s *VideoService) LoadLibrary(ctx context.Context) error {
	library, err := s.repo.GetLibrary(ctx)
	if err != nil {
		return err
	}

	s.library = library
	return nil
}

// GetUnwatched filters the cached library down to videos not yet watched
func (s *VideoService) GetUnwatched() []*domain.Video {
	var result []*domain.Video

	for _, video := range s.library {
		if !video.Watched {
			result = append(result, video)
		}
	}

	return result
}

// GetVideoByID finds a video in the cached library by its ID
func (s *VideoService) GetVideoByID(id string) *domain.Video {
	for _, video := range s.library {
		if video.ID == id {
			return video
		}
	}
	return nil
}

// PersistState forwards a partial playback state update to the archive and
// mirrors it into the cached library entry on success.  This is the persist
// sink handed to the playback session.
func (s *VideoService) PersistState(ctx context.Context, id string, update *domain.VideoStateUpdate) error {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()

	if err := s.repo.PersistVideoState(ctx, id, update); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}

	video := s.GetVideoByID(id)
	if video == nil {
		// Persisting for a video outside the cached library is fine; there
		// is just nothing local to refresh
		return nil
	}

	if update.PlaybackSeconds != nil {
		video.PlaybackSeconds = *update.PlaybackSeconds
	}
	if update.Watched != nil {
		video.Watched = *update.Watched
		if *update.Watched {
			log.Info("Video marked watched", "id", id, "title", video.Title)
		}
	}

	return nil
}

// ToggleWatched flips a video's watched flag and persists it
func (s *VideoService) ToggleWatched(ctx context.Context, id string) error {
	s.updateLock.Lock()
	video := s.GetVideoByID(id)
	s.updateLock.Unlock()
	if video == nil {
		return fmt.Errorf("video not found with ID: %s", id)
	}

	watched := !video.Watched
	return s.PersistState(ctx, id, &domain.VideoStateUpdate{Watched: &watched})
}
