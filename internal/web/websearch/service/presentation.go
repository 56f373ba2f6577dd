package service

import (
	"fmt"
	"unicode/utf8"
)

const (
	linkTextThreshold = 20
	linkTextKeep      = 25
)

// LinkText shortens links of 20 or more characters to their first 25 plus "...".
func LinkText(link string) string {
	if utf8.RuneCountInString(link) < linkTextThreshold {
		return link
	}

	runes := []rune(link)
	if len(runes) > linkTextKeep {
		runes = runes[:linkTextKeep]
	}

	return string(runes) + "..."
}

// ViewOrHideAnchorText labels the toggle under the expanded articles.
// The count is omitted when either total or expanded is zero.
func ViewOrHideAnchorText(viewRemaining bool, total, expanded int) string {
	remaining := ""
	if total != 0 && expanded != 0 {
		remaining = fmt.Sprintf("%d", total-expanded)
		if viewRemaining {
			remaining = "last " + remaining + " "
		}
	}

	if !viewRemaining {
		return fmt.Sprintf("View %s more documents", remaining)
	}

	return fmt.Sprintf("Hide %s documents", remaining)
}
