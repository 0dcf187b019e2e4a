package youtube

// Playlist is one of the authorised user's playlists.
type Playlist struct {
	ID          string
	Title       string
	Description string
	// ETag changes whenever the playlist or its items change.
	ETag      string
	ItemCount int64
}

// Video is a playlist entry as listed by the API. ID is the video ID, not the
// playlist item ID.
type Video struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// PlaylistItems is the complete, de-paginated content of a playlist.
type PlaylistItems struct {
	Videos []Video `yaml:"videos"`
}

// VideoMetadata is the snippet and status sent when a video is inserted.
type VideoMetadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	// Privacy is one of private, unlisted or public.
	Privacy string
}
