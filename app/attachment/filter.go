package attachment

import "strings"

const minLineLen = 6

// filterParagraphs drops layout artifacts from extracted text: lines too
// short to carry prose, and lines that look tabular (repeated delimiters).
// At most maxParagraphs surviving lines are kept.
func filterParagraphs(text string, maxParagraphs int) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) < minLineLen {
			continue
		}
		if looksTabular(line) {
			continue
		}
		kept = append(kept, line)
		if len(kept) >= maxParagraphs {
			break
		}
	}
	return strings.Join(kept, "\n")
}

func looksTabular(line string) bool {
	if strings.Count(line, "|") >= 3 || strings.Count(line, "\t") >= 3 {
		return true
	}
	// Columns separated by runs of spaces.
	return strings.Count(line, "   ") >= 3
}
