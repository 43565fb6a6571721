package domain

// Segment is a time range [Start, End) within a video tagged with a category
// (e.g. "sponsor", "intro") that is eligible for auto-skip during playback.
// Segments are ordered by start time by convention, but consumers must
// tolerate unsorted or overlapping lists.
type Segment struct {
	Start    float64
	End      float64
	Category string
}

// Video represents a single video in the archive, including the user's
// persisted playback state for it.
type Video struct {
	// ID is the archive's opaque identifier for the video
	ID string
	// Title of the video as stored in the archive
	Title string
	// Channel is the name of the channel/uploader the video belongs to
	Channel string
	// SourceURL is the locator for the playable media stream
	SourceURL string
	// DurationSeconds is the total runtime.  May be 0 until the media
	// engine has loaded the file's metadata.
	DurationSeconds float64
	// PlaybackSeconds is the last persisted watch position
	PlaybackSeconds int
	// Watched indicates the video has crossed the watched threshold before
	Watched bool
	// Segments lists skippable time ranges, ordered by start time
	Segments []Segment
	// PublishedAt is the upload date as reported by the archive (may be empty)
	PublishedAt string
}

// VideoStateUpdate is a partial update of a video's persisted playback state.
// Nil fields are left untouched by the archive.
type VideoStateUpdate struct {
	PlaybackSeconds *int
	Watched         *bool
}
