// Package score grades model responses against expected keywords.
package score

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Status notes attached to a Result.
const (
	NoteNoResponse = "no response"
	NoteNoKeywords = "no keywords to evaluate"
)

// Result is the outcome of scoring one response.
type Result struct {
	Score   int
	Matched []string
	Missing []string
	Note    string
}

// Score grades response against expected keywords using whole-word,
// case-insensitive matching. An empty keyword list is a vacuous pass.
//
// Matched and Missing partition Keywords(expected), not the raw list: a blank
// keyword or a case-insensitive repeat of an earlier one is not scored, and
// every raw keyword that is not blank has its first spelling in exactly one
// of the two lists.
func Score(response string, expected []string) Result {
	keywords := Keywords(expected)
	if strings.TrimSpace(response) == "" {
		return Result{
			Score:   0,
			Matched: []string{},
			Missing: keywords,
			Note:    NoteNoResponse,
		}
	}
	if len(keywords) == 0 {
		return Result{
			Score:   100,
			Matched: []string{},
			Missing: []string{},
			Note:    NoteNoKeywords,
		}
	}

	haystack := strings.ToLower(response)
	matched := make([]string, 0, len(keywords))
	missing := make([]string, 0)
	for _, keyword := range keywords {
		if containsWord(haystack, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		} else {
			missing = append(missing, keyword)
		}
	}
	return Result{
		Score:   percent(len(matched), len(keywords)),
		Matched: matched,
		Missing: missing,
		Note:    fmt.Sprintf("matched %d of %d keywords", len(matched), len(keywords)),
	}
}

// ScoreOptional scores a possibly absent response.
func ScoreOptional(response *string, expected []string) Result {
	if response == nil {
		return Score("", expected)
	}
	return Score(*response, expected)
}

// Keywords is the set Score grades against: expected trimmed, with blanks
// and case-insensitive duplicates dropped, in first-seen order.
func Keywords(expected []string) []string {
	out := make([]string, 0, len(expected))
	seen := make(map[string]struct{}, len(expected))
	for _, keyword := range expected {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		key := strings.ToLower(keyword)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, keyword)
	}
	return out
}

// containsWord reports whether word occurs in text with no word rune
// directly before or after it. Both arguments must already be lowercased.
func containsWord(text, word string) bool {
	offset := 0
	for {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if !wordRuneBefore(text, start) && !wordRuneAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func wordRuneBefore(text string, pos int) bool {
	if pos == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return isWordRune(r)
}

func wordRuneAfter(text string, pos int) bool {
	if pos >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// percent returns round(100*part/total), halves rounded away from zero.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	value := decimal.NewFromInt(int64(100*part)).
		DivRound(decimal.NewFromInt(int64(total)), 4).
		Round(0)
	return int(value.IntPart())
}
