package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	htmlTagsRegex   = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	scriptRegex     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// SanitizeString trims input and removes null bytes and control characters
// other than newlines and tabs.
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return removeControlCharacters(input)
}

// StripHTMLTags removes all HTML tags from input. Script and style elements
// are dropped together with their content.
func StripHTMLTags(input string) string {
	input = scriptRegex.ReplaceAllString(input, "")
	return htmlTagsRegex.ReplaceAllString(input, "")
}

// NormalizeWhitespace collapses runs of whitespace into one space.
func NormalizeWhitespace(input string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(input, " "))
}

// TruncateString cuts input to at most maxLength runes.
func TruncateString(input string, maxLength int) string {
	if maxLength <= 0 || utf8.RuneCountInString(input) <= maxLength {
		return input
	}
	runes := []rune(input)
	return string(runes[:maxLength])
}

// CleanText is the sanitizer for free-text user input such as place queries
// and route names. maxLength <= 0 disables truncation.
func CleanText(input string, maxLength int) string {
	input = SanitizeString(input)
	input = StripHTMLTags(input)
	input = NormalizeWhitespace(input)
	return TruncateString(input, maxLength)
}

func removeControlCharacters(input string) string {
	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
