// File path: internal/textutil/textutil.go
package textutil

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	localePattern     = regexp.MustCompile(`(?:^|[/_.-])([a-z]{2})-([A-Z]{2})(?:[/_.-]|$)`)
)

// StripHTML removes markup tags and decodes character entities, leaving plain
// display text.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// CollapseWhitespace folds runs of whitespace (including newlines) into single
// spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// Truncate shortens s to at most max runes, appending a single ellipsis rune
// when anything was cut. Strip markup before calling; truncation never runs
// on raw HTML.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// InferLocale extracts an xx-YY locale code from a filename or path segment.
// The heuristic is intentionally isolated here: both the summarizer's
// language hints and the deployment-target mapping share it.
func InferLocale(filename string) (string, bool) {
	m := localePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2], true
}

var languageNames = map[string]string{
	"ar": "Arabic",
	"bn": "Bengali",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sw": "Swahili",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// LanguageName maps a locale code or bare language code to a display name.
// Unknown codes are returned unchanged so the summary still reads sensibly.
func LanguageName(code string) string {
	trimmed := strings.TrimSpace(code)
	base := trimmed
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	if name, ok := languageNames[strings.ToLower(base)]; ok {
		return name
	}
	return trimmed
}
