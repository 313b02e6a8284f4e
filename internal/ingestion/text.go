package ingestion

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRun = regexp.MustCompile(`[ \t\f\v\r\x{00A0}]+`)
	digitRun = regexp.MustCompile(`\d+`)
)

// cleanText collapses all whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanLines collapses whitespace inside each line and drops empty lines.
func cleanLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// breakLines turns <br> elements into newlines so Text() keeps line structure.
func breakLines(doc *goquery.Document) {
	doc.Find("br").ReplaceWithHtml("\n")
}

// titleTokens splits a title on whitespace and trims punctuation off each token.
func titleTokens(title string) []string {
	var tokens []string
	for _, field := range strings.Fields(title) {
		token := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if len([]rune(token)) >= 2 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// firstNumber returns the first run of digits in s.
func firstNumber(s string) (int64, bool) {
	m := digitRun.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// TitleHash derives a stable quiz id from a title: the 32-bit h = h*31 + c
// polynomial over UTF-16 code units, made non-negative.
func TitleHash(title string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(title)) {
		h = h*31 + int32(c)
	}
	if h < 0 {
		return -int64(h)
	}
	return int64(h)
}

func joinBlocks(blocks ...string) string {
	var parts []string
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}
