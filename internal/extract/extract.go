// Package extract recovers structured product fields from raw channel
// post captions. All functions are total: they never fail and always
// return a usable default.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

const maxTitleLen = 60

// Ordered price heuristics, first match wins.
var (
	// digits (optionally space-grouped) followed by a currency marker
	currencyRe = regexp.MustCompile(`(?i)(\d(?:[\d ]*\d)?)\s*(?:₽|руб\.?|р\.|rub|\$|usd|€|eur)`)
	// a "price:" marker followed by a digit run
	markerRe = regexp.MustCompile(`(?i)(?:price|цена)\s*[:\-—]?\s*(\d(?:[\d ]*\d)?)`)
	// any standalone run of three or more digits
	bareRe = regexp.MustCompile(`\b\d{3,}\b`)
)

// Price finds the most plausible price token in text. When nothing
// matches it returns models.PriceOnRequest.
func Price(text string) string {
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		return stripSpaces(m[1])
	}
	if m := markerRe.FindStringSubmatch(text); m != nil {
		return stripSpaces(m[1])
	}
	if m := bareRe.FindString(text); m != "" {
		return m
	}
	return models.PriceOnRequest
}

// Title derives a short product title from the caption. Falls back to a
// placeholder built from the source post ID when the caption is unusable.
func Title(text string, postID int64) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Sprintf("Item #%d", postID)
	}

	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if len([]rune(firstLine)) > 5 {
		return truncate(firstLine, maxTitleLen)
	}
	return truncate(text, maxTitleLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
