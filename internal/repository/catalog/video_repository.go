package catalog

import (
	"context"
	"fmt"

	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/Karasuhime/yozora/internal/log"
)

type VideoRepository struct {
	client *Client
}

func NewVideoRepository(client *Client) domain.VideoRepository {
	return &VideoRepository{
		client: client,
	}
}

func (r *VideoRepository) GetLibrary(ctx context.Context) ([]*domain.Video, error) {
	query := `
        query {
            videos(sort: PUBLISHED_DESC) {
                id
                title
                channel {
                    name
                }
                sourceUrl
                durationSeconds
                playbackSeconds
                watched
                publishedAt
                segments {
                    start
                    end
                    category
                }
            }
        }
    `

	var response struct {
		Videos []struct {
			ID      string
			Title   string
			Channel struct {
				Name string
			}
			SourceURL       string  `json:"sourceUrl"`
			DurationSeconds float64 `json:"durationSeconds"`
			PlaybackSeconds int     `json:"playbackSeconds"`
			Watched         bool
			PublishedAt     string `json:"publishedAt"`
			Segments        []struct {
				Start    float64
				End      float64
				Category string
			}
		}
	}

	if err := r.client.Query(ctx, query, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch video library: %w", err)
	}

	var videos []*domain.Video

	for _, v := range response.Videos {
		video := &domain.Video{
			ID:              v.ID,
			Title:           v.Title,
			Channel:         v.Channel.Name,
			SourceURL:       v.SourceURL,
			DurationSeconds: v.DurationSeconds,
			PlaybackSeconds: v.PlaybackSeconds,
			Watched:         v.Watched,
			PublishedAt:     v.PublishedAt,
		}
		for _, s := range v.Segments {
			video.Segments = append(video.Segments, domain.Segment{
				Start:    s.Start,
				End:      s.End,
				Category: s.Category,
			})
		}
		videos = append(videos, video)
	}

	log.Info("Fetched video library", "count", len(videos))
	return videos, nil
}

// PersistVideoState upserts the user's playback state for one video.  Nil
// fields in the update are omitted from the mutation variables so the
// archive leaves them untouched.
func (r *VideoRepository) PersistVideoState(ctx context.Context, id string, update *domain.VideoStateUpdate) error {
	mutation := `
        mutation ($id: ID!, $playbackSeconds: Int, $watched: Boolean) {
            persistVideoState(
                id: $id,
                playbackSeconds: $playbackSeconds,
                watched: $watched
            ) {
                id
                playbackSeconds
                watched
            }
        }
    `

	variables := map[string]interface{}{
		"id": id,
	}
	if update.PlaybackSeconds != nil {
		variables["playbackSeconds"] = *update.PlaybackSeconds
	}
	if update.Watched != nil {
		variables["watched"] = *update.Watched
	}

	log.Debug("Persisting video state", "id", id, "variables", variables)

	var response struct {
		PersistVideoState struct {
			ID              string `json:"id"`
			PlaybackSeconds int    `json:"playbackSeconds"`
			Watched         bool   `json:"watched"`
		}
	}

	if err := r.client.Query(ctx, mutation, variables, &response); err != nil {
		log.Error("Failed to persist video state", "error", err, "id", id)
		return fmt.Errorf("failed to persist video state: %w", err)
	}

	log.Info("Persisted video state",
		"id", response.PersistVideoState.ID,
		"playbackSeconds", response.PersistVideoState.PlaybackSeconds,
		"watched", response.PersistVideoState.Watched)

	return nil
}
