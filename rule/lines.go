package rule

// SplitLines splits raw file content into lines, accepting LF, CR, and
// CRLF terminators, and truncates any line longer than MaxLineLength.
// The trailing terminator is never included in the returned lines. A
// final partial line with no trailing terminator is kept.
func SplitLines(data []byte) []string {
	var lines []string
	start := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			lines = append(lines, truncateLine(data[start:i]))
			start = i + 1
		case '\r':
			lines = append(lines, truncateLine(data[start:i]))
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, truncateLine(data[start:]))
	}
	return lines
}

func truncateLine(b []byte) string {
	if len(b) > MaxLineLength {
		b = b[:MaxLineLength]
	}
	return string(b)
}
