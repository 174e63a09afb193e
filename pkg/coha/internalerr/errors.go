package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrRootMissing       = errors.New("data root missing")
	ErrNoTokens          = errors.New("no token shards found")
	ErrNoLexicon         = errors.New("no lexicon shards found")
	ErrUnreadableSchema  = errors.New("unreadable schema")
	ErrUnsupportedFormat = errors.New("unsupported table format")
)
