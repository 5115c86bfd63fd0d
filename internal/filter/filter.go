package filter

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/HapppyEnd/aibot/internal/model"
)

// Store is the slice of persistence the filter needs.
type Store interface {
	HasDuplicate(item *model.NewsItem) (bool, error)
	Words() ([]string, error)
}

// Options controls which eligibility checks run. Zero value runs none.
type Options struct {
	RequiredLanguage string
	AllowSourceIDs   []int64
	DenySourceIDs    []int64
	CheckKeywords    bool
	CheckDuplicates  bool
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// ShouldGenerate decides whether a news item merits a generated post.
// Checks run in a fixed order and the first failure short-circuits,
// returned as the reason: language, source allow-list, source deny-list,
// keywords, duplicates.
func (e *Engine) ShouldGenerate(item *model.NewsItem, opts Options) (bool, string, error) {
	if opts.RequiredLanguage != "" {
		detected := DetectLanguage(item.Title + " " + item.Summary)
		if detected != opts.RequiredLanguage {
			return false, fmt.Sprintf("language %s does not match required %s", detected, opts.RequiredLanguage), nil
		}
	}

	if len(opts.AllowSourceIDs) > 0 && !containsID(opts.AllowSourceIDs, item.SourceID) {
		return false, fmt.Sprintf("source %d is not in the allow list", item.SourceID), nil
	}

	if len(opts.DenySourceIDs) > 0 && containsID(opts.DenySourceIDs, item.SourceID) {
		return false, fmt.Sprintf("source %d is in the deny list", item.SourceID), nil
	}

	if opts.CheckKeywords {
		words, err := e.store.Words()
		if err != nil {
			return false, "", fmt.Errorf("load keywords: %w", err)
		}
		if len(words) > 0 && !matchesKeywords(item, words) {
			return false, "no keyword match", nil
		}
	}

	if opts.CheckDuplicates {
		dup, err := e.store.HasDuplicate(item)
		if err != nil {
			return false, "", fmt.Errorf("duplicate check: %w", err)
		}
		if dup {
			return false, "duplicate of an existing item", nil
		}
	}

	return true, "passed", nil
}

// DetectLanguage returns the ISO 639-1 code of the text's dominant
// language, or "unknown" when the text is too short to classify.
// Unknown never satisfies a required language.
func DetectLanguage(text string) string {
	if len(strings.TrimSpace(text)) < 3 {
		return "unknown"
	}

	code := whatlanggo.DetectLang(text).Iso6391()
	if code == "" {
		return "unknown"
	}
	return code
}

func matchesKeywords(item *model.NewsItem, words []string) bool {
	haystack := strings.ToLower(item.Title + " " + item.Summary)
	if item.RawText != "" {
		haystack += " " + strings.ToLower(item.RawText)
	}

	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
