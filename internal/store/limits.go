package store

// Limits bundles the per-entity-type length bounds and page sizes of §6.4.
// One immutable Limits value is shared by every repository; it is part of
// the published config snapshot (§5: "configuration ... published via an
// atomic shared pointer").
type Limits struct {
	MinNameLength, MaxNameLength           int
	MinInfoLength, MaxInfoLength           int
	MinTitleLength, MaxTitleLength         int
	MinSignatureLength, MaxSignatureLength int
	MaxUsersPerPage                        int
	MaxLogoBinarySize                      int
	MaxLogoWidth, MaxLogoHeight            int
	LastSeenUpdatePrecision                int64 // seconds
	ResetVoteExpiresInSeconds              int64
	VisitorOnlineForSeconds                int64
	OnlineUsersIntervalSeconds             int64

	ThreadMinNameLength, ThreadMaxNameLength int
	ThreadsPerPage                           int

	MessageMinContentLength, MessageMaxContentLength int
	MessagesPerPage                                  int

	CommentMinContentLength, CommentMaxContentLength int
	CommentsPerPage                                  int

	TagMinNameLength, TagMaxNameLength int
	TagMaxUIBinarySize                 int
	TagsPerPage                        int

	CategoryMinNameLength, CategoryMaxNameLength int
	CategoryMaxDescriptionLength                 int
	CategoriesPerPage                            int
}

// DefaultLimits mirrors the teacher's pattern of compiled-in sane defaults
// that a loaded config overrides field-by-field (internal/config's
// yaml_config.go defaults pattern).
func DefaultLimits() Limits {
	return Limits{
		MinNameLength: 3, MaxNameLength: 25,
		MinInfoLength: 0, MaxInfoLength: 1024,
		MinTitleLength: 0, MaxTitleLength: 100,
		MinSignatureLength: 0, MaxSignatureLength: 200,
		MaxUsersPerPage:             20,
		MaxLogoBinarySize:           1 << 16,
		MaxLogoWidth:                800,
		MaxLogoHeight:               800,
		LastSeenUpdatePrecision:     300,
		ResetVoteExpiresInSeconds:   600,
		VisitorOnlineForSeconds:     300,
		OnlineUsersIntervalSeconds:  60,
		ThreadMinNameLength:         3,
		ThreadMaxNameLength:         100,
		ThreadsPerPage:              20,
		MessageMinContentLength:     1,
		MessageMaxContentLength:     1 << 16,
		MessagesPerPage:             20,
		CommentMinContentLength:     1,
		CommentMaxContentLength:     2048,
		CommentsPerPage:             20,
		TagMinNameLength:            1,
		TagMaxNameLength:            30,
		TagMaxUIBinarySize:          1 << 14,
		TagsPerPage:                 20,
		CategoryMinNameLength:       1,
		CategoryMaxNameLength:       50,
		CategoryMaxDescriptionLength: 2048,
		CategoriesPerPage:           20,
	}
}
