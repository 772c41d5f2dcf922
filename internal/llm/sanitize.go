package llm

import "strings"

// TrimToJSON strips markdown code fences and surrounding chatter so that a
// response like "```json\n[...]\n```" validates. It never repairs the JSON
// itself; a malformed document still fails validation downstream.
func TrimToJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	// tolerate a leading sentence before the document
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
	}
	if start > 0 {
		s = s[start:]
	}
	return s
}
