package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Segment is one timestamped span of a transcript.
type Segment struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	Text         string  `json:"text"`
}

// TranscriptionResponse is returned by both transcription endpoints. When
// timestamps were requested, Transcription carries the annotated text and
// Segments the parsed spans.
type TranscriptionResponse struct {
	Transcription string    `json:"transcription"`
	Segments      []Segment `json:"segments,omitempty"`
}

// RemoteTranscriptionRequest is the body of POST /api/transcribe/remote.
type RemoteTranscriptionRequest struct {
	URL        string `json:"url"`
	Timestamps bool   `json:"timestamps"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// ServerStatus aggregates server runtime information for API consumers.
type ServerStatus struct {
	Version              string             `json:"version"`
	Running              bool               `json:"running"`
	PID                  int                `json:"pid"`
	LockFilePath         string             `json:"lockFilePath"`
	CacheEnabled         bool               `json:"cacheEnabled"`
	CachePath            string             `json:"cachePath,omitempty"`
	CacheEntries         int                `json:"cacheEntries"`
	ActiveTranscriptions int64              `json:"activeTranscriptions"`
	MaxConcurrent        int                `json:"maxConcurrent"`
	Dependencies         []DependencyStatus `json:"dependencies"`
}

// CacheEntry describes a cached transcript without its text.
type CacheEntry struct {
	Key          string `json:"key"`
	Source       string `json:"source"`
	SegmentCount int    `json:"segmentCount"`
	Characters   int    `json:"characters"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// CacheListResponse wraps the cache listing.
type CacheListResponse struct {
	Entries []CacheEntry `json:"entries"`
}

// CacheRemoveResponse reports how many entries a delete removed.
type CacheRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
