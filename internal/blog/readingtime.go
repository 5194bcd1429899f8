package blog

import (
	"fmt"
	"strings"
)

// wordsPerMinute is the assumed reading speed for the estimate.
const wordsPerMinute = 200

// EstimateReadingTime returns a human-readable reading-time estimate
// for a Markdown body, rounding up and never below one minute.
func EstimateReadingTime(content string) string {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
