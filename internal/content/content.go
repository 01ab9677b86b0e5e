// Package content derives text facts from post bodies: slugs, plain text,
// excerpts, reading time and normalized tags.
package content

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	// WordsPerMinute is the reading speed used for ReadingTime.
	WordsPerMinute = 200
	// MaxExcerptLength bounds derived excerpts.
	MaxExcerptLength = 200
	// MaxTagLength bounds a single tag.
	MaxTagLength = 64

	fallbackSlug = "post"
)

// Slugify lowercases s and replaces every run of characters outside [a-z0-9]
// with a single hyphen, trimming hyphens at both ends.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// SlugOrFallback is Slugify with a stable non-empty result for titles that
// contain no ASCII letters or digits.
func SlugOrFallback(title string) string {
	if slug := Slugify(title); slug != "" {
		return slug
	}
	return fallbackSlug
}

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed to single spaces. Script and style bodies are dropped.
func PlainText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// WordCount counts whitespace-separated words in the visible text of fragment.
func WordCount(fragment string) int {
	return len(strings.Fields(PlainText(fragment)))
}

// ReadingTime returns the estimated minutes to read fragment, at least one.
func ReadingTime(fragment string) int {
	words := WordCount(fragment)
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt derives a summary of at most maxLen characters from the visible
// text of fragment, cutting on a word boundary and marking the cut with "...".
func Excerpt(fragment string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = MaxExcerptLength
	}
	text := PlainText(fragment)
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	const ellipsis = "..."
	runes := []rune(text)
	cut := runes[:maxLen-len(ellipsis)]
	if i := lastSpace(cut); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " ,.;:") + ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// NormalizeTags trims and lowercases tags, dropping blanks and duplicates
// while keeping first-seen order. Over-long tags are truncated.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			tag = string([]rune(tag)[:MaxTagLength])
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
