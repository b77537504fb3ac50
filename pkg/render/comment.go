package render

import (
	"strings"
)

// FormatComment wraps text in a Javadoc block, prefixing every line with
// indent. Blank lines become a bare " *".
//
//	/**
//	 * Gets the name.
//	 */
func FormatComment(text, indent string) string {
	var sb strings.Builder

	sb.WriteString(indent)
	sb.WriteString("/**\n")

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, " \t\r")

		sb.WriteString(indent)

		if line == "" {
			sb.WriteString(" *\n")

			continue
		}

		sb.WriteString(" * ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	sb.WriteString(indent)
	sb.WriteString(" */")

	return sb.String()
}

// CommentText strips the delimiters and leading asterisks from a Javadoc
// block, returning its text. It is the inverse of FormatComment.
func CommentText(comment string) string {
	body := strings.TrimSpace(comment)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimSuffix(body, "*/")

	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")

		out = append(out, strings.TrimRight(line, " \t\r"))
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
