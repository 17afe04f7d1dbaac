package xboard

import "strings"

// LineReader assembles complete protocol lines from raw transport chunks.
// The trailing partial line is carried over to the next Feed call. Not safe
// for concurrent use; the session's read loop is its only caller.
type LineReader struct {
	carry string
}

// Feed appends chunk to the carry-over and returns every line completed by
// it, trimmed, with blank lines dropped. A chunk ending exactly on a
// terminator leaves an empty carry-over.
func (r *LineReader) Feed(chunk string) []string {
	parts := strings.Split(r.carry+chunk, "\n")
	r.carry = parts[len(parts)-1]

	lines := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		p = strings.TrimSpace(p)
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// Reset drops any buffered partial line.
func (r *LineReader) Reset() { r.carry = "" }
