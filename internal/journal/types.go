package journal

// Entry roles. An entry is either written by the user or absorbed from an
// external AI reply.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// ValidRoles defines allowed entry roles.
var ValidRoles = map[string]bool{
	RoleUser: true,
	RoleAI:   true,
}

// Stream is a named container grouping an ordered sequence of entries.
// A stream owns its entries and pending blocks; deleting it cascades.
type Stream struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Color       *string  `json:"color,omitempty"`
	Pinned      bool     `json:"pinned"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// StreamSummary is the list projection of a stream: identity plus the
// counters the stream picker needs, without loading entries.
type StreamSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	EntryCount  int64    `json:"entry_count"`
	LastUpdated int64    `json:"last_updated"`
	Pinned      bool     `json:"pinned"`
	Color       *string  `json:"color,omitempty"`
	Tags        []string `json:"tags"`
}

// Entry is a unit of content with independent version history and staging
// status. sequence_id fixes display order within the stream; it is assigned
// once at creation and never reused. version_head is the number of the last
// committed snapshot, 0 if none.
type Entry struct {
	ID               string      `json:"id"`
	StreamID         string      `json:"stream_id"`
	Role             string      `json:"role"`
	Content          Document    `json:"content"`
	SequenceID       int64       `json:"sequence_id"`
	VersionHead      int64       `json:"version_head"`
	IsStaged         bool        `json:"is_staged"`
	ProfileID        *string     `json:"profile_id,omitempty"`
	ParentContextIDs []string    `json:"parent_context_ids,omitempty"`
	AIMetadata       *AIMetadata `json:"ai_metadata,omitempty"`
	CreatedAt        int64       `json:"created_at"`
	UpdatedAt        int64       `json:"updated_at"`
}

// EntryVersion is an immutable numbered snapshot of an entry's content.
// For a given entry, version numbers form a contiguous sequence 1..N;
// the highest number always equals the entry's version_head at the moment
// a new version is committed.
type EntryVersion struct {
	ID              string   `json:"id"`
	EntryID         string   `json:"entry_id"`
	VersionNumber   int64    `json:"version_number"`
	ContentSnapshot Document `json:"content_snapshot"`
	Checksum        string   `json:"checksum"`
	CommitMessage   *string  `json:"commit_message,omitempty"`
	CommittedAt     int64    `json:"committed_at"`
}

// AIMetadata records how an absorbed entry was produced: which directive
// was exported, the bridge key that correlated the reply, and the external
// provider/model it was relayed through.
type AIMetadata struct {
	Model     string  `json:"model"`
	Provider  string  `json:"provider"`
	Directive string  `json:"directive"`
	BridgeKey string  `json:"bridge_key"`
	Summary   *string `json:"summary,omitempty"`
}

// PendingBlock is a frozen record of an export awaiting a pasted response:
// the staged entry ids at export time (independent of later staging
// changes), the directive, and the generated bridge key. A stream may
// accumulate several; only the most recently created one is active for
// matching. Destroyed explicitly, never expired.
type PendingBlock struct {
	ID               string   `json:"id"`
	StreamID         string   `json:"stream_id"`
	BridgeKey        string   `json:"bridge_key"`
	StagedContextIDs []string `json:"staged_context_ids"`
	Directive        string   `json:"directive"`
	CreatedAt        int64    `json:"created_at"`
}

// Spotlight is a saved text selection within an entry.
type Spotlight struct {
	ID              string `json:"id"`
	EntryID         string `json:"entry_id"`
	ContextText     string `json:"context_text"`
	HighlightedText string `json:"highlighted_text"`
	StartOffset     int64  `json:"start_offset"`
	EndOffset       int64  `json:"end_offset"`
}

// Profile identifies an external AI service/model an entry was relayed
// through. At most one profile is the default at any time.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	IsDefault bool   `json:"is_default"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
