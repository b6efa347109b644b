package profanity

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// WordSource supplies the current banned-word set.
type WordSource interface {
	ListBannedWords(ctx context.Context) ([]string, error)
}

// Filter checks submissions against the banned-word set loaded from the
// policy store.
type Filter struct {
	words  WordSource
	logger *zap.Logger
}

func NewFilter(words WordSource, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{words: words, logger: logger}
}

// Check reports whether text contains a banned word. A failure to load
// the word set is logged and treated as no match: filtering fails open,
// submissions are not blocked by a broken store.
func (f *Filter) Check(ctx context.Context, text string) bool {
	if f == nil || f.words == nil {
		return false
	}
	if strings.TrimSpace(text) == "" {
		return false
	}

	banned, err := f.words.ListBannedWords(ctx)
	if err != nil {
		f.logger.Warn("load banned words, skipping profanity check", zap.Error(err))
		return false
	}

	return ContainsBanned(text, banned)
}
