// Package dedupe implements the Duplicate Detector stage: exact
// dedupe-key matching and near-duplicate text similarity over a user's
// recent history (spec.md §4.3).
package dedupe

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nixlim/notify-pipeline/internal/history"
	"github.com/nixlim/notify-pipeline/internal/notifyevent"
)

// DuplicateType enumerates the two ways an event can be flagged as a
// duplicate.
type DuplicateType string

const (
	TypeDedupeKey   DuplicateType = "DUPLICATE_DEDUPE_KEY"
	TypeTextSimilar DuplicateType = "DUPLICATE_TEXT_SIMILAR"
)

// Result is the Duplicate Detector's verdict for one event.
type Result struct {
	Duplicate      bool
	Type           DuplicateType
	MatchedEventID string
}

// Detector runs dedupe-key and near-duplicate text checks against a
// history.Store.
type Detector struct {
	store              history.Store
	windowMinutes      int
	similarityThreshold float64
}

// New builds a Detector over the given store, using the configured
// dedupe window (minutes) and text similarity threshold.
func New(store history.Store, windowMinutes int, similarityThreshold float64) *Detector {
	return &Detector{
		store:               store,
		windowMinutes:       windowMinutes,
		similarityThreshold: similarityThreshold,
	}
}

// Check implements spec.md §4.3: exact dedupe-key match first, then
// near-duplicate text similarity, first match wins.
func (d *Detector) Check(userID string, evt notifyevent.Event) Result {
	if evt.DedupeKey != "" {
		matches := d.store.DedupeKeyEntries(userID, evt.DedupeKey, d.windowMinutes)
		if len(matches) > 0 {
			return Result{
				Duplicate:      true,
				Type:           TypeDedupeKey,
				MatchedEventID: matches[len(matches)-1].EventID,
			}
		}
	}

	candidate := NormalizeText(evt.Title, evt.Message)
	if candidate == "" {
		return Result{}
	}

	for _, rec := range d.store.TextEntries(userID, d.windowMinutes) {
		ratio := SimilarityRatio(candidate, rec.NormalizedText, d.similarityThreshold)
		if ratio >= d.similarityThreshold {
			return Result{
				Duplicate:      true,
				Type:           TypeTextSimilar,
				MatchedEventID: rec.EventID,
			}
		}
	}

	return Result{}
}

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeText concatenates title and message, lowercases, applies
// Unicode NFKD normalization to decompose accented letters into a base
// letter plus combining marks (then drops the marks, so "café"
// normalizes to "cafe"), strips remaining non-word/non-whitespace
// runes, and collapses whitespace (spec.md §3). Stripping keeps any
// Unicode letter or digit rather than using Go's ASCII-only `\w`, so
// non-Latin letters (Cyrillic, CJK) are preserved as they are instead
// of being deleted.
func NormalizeText(title, message string) string {
	joined := strings.TrimSpace(title + " " + message)
	if joined == "" {
		return ""
	}

	lowered := strings.ToLower(joined)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKD)
	decomposed, _, err := transform.String(t, lowered)
	if err != nil {
		decomposed = lowered
	}

	stripped := stripNonWord(decomposed)
	return strings.TrimSpace(whitespace.ReplaceAllString(stripped, " "))
}

// stripNonWord drops runes that are neither letters, digits, nor
// whitespace, the Unicode-aware equivalent of regexp's ASCII-only
// `[^\w\s]` class.
func stripNonWord(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SimilarityRatio computes the normalized Levenshtein similarity ratio
// between s1 and s2: 1 - distance/max(len1,len2); 1.0 when identical,
// 0.0 when either is empty. A cheap length-difference gate short
// circuits the distance computation when the two strings could not
// possibly clear threshold (spec.md §4.3).
func SimilarityRatio(s1, s2 string, threshold float64) float64 {
	if s1 == s2 {
		if s1 == "" {
			return 0.0
		}
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	len1, len2 := len([]rune(s1)), len([]rune(s2))
	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}

	diff := len1 - len2
	if diff < 0 {
		diff = -diff
	}
	// Same arithmetic as the ratio below with distance == diff (its
	// lower bound), so a pair exactly at threshold is never gated out.
	if 1.0-float64(diff)/float64(maxLen) < threshold {
		return 0.0
	}

	dist := levenshtein.ComputeDistance(s1, s2)
	return 1.0 - float64(dist)/float64(maxLen)
}
