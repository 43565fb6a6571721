package models

import "github.com/Karasuhime/yozora/internal/domain"

// LibraryMsg reports the outcome of a library load
type LibraryMsg struct {
	Success bool
	Error   error
}

// VideoStateMsg reports the outcome of a watched-toggle or other direct
// state mutation
type VideoStateMsg struct {
	Success bool
	VideoID string
	Error   error
}

// PlayRequestMsg asks the app model to start playback of a video
type PlayRequestMsg struct {
	Video *domain.Video
}

// PlaybackBoundMsg is sent once a playback session is live
type PlaybackBoundMsg struct {
	Video *domain.Video
}

// PlaybackBindErrorMsg is sent when a session could not be established
type PlaybackBindErrorMsg struct {
	Video *domain.Video
	Error error
}

// PlaybackWatchedMsg is sent when the bound video crosses the watched
// threshold
type PlaybackWatchedMsg struct {
	VideoID string
}

// PlaybackEndedMsg is sent when the bound video plays to the end
type PlaybackEndedMsg struct {
	VideoID string
}

// PlaybackErrorMsg carries a playback failure with its user-facing message
type PlaybackErrorMsg struct {
	VideoID string
	Code    int
	Message string
}

// PlaybackStoppedMsg is sent after the session has been torn down
type PlaybackStoppedMsg struct{}

// statusTickMsg drives the periodic playback status refresh
type statusTickMsg struct{}
