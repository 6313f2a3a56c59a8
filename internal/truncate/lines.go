package truncate

import "bytes"

// Prefix returns the leading bytes of content that hold its first n lines,
// each with its original terminator, and how many lines that is. The result
// aliases content. n <= 0 yields an empty prefix.
func Prefix(content []byte, n int) ([]byte, int) {
	if n <= 0 || len(content) == 0 {
		return content[:0], 0
	}

	end, lines := 0, 0
	for lines < n {
		i := bytes.IndexByte(content[end:], '\n')
		if i < 0 {
			// Unterminated final line.
			if end < len(content) {
				return content, lines + 1
			}
			return content, lines
		}
		end += i + 1
		lines++
	}
	return content[:end], lines
}

// CountLines returns the number of lines in content, counting an
// unterminated final segment as a line.
func CountLines(content []byte) int {
	n := bytes.Count(content, []byte{'\n'})
	if len(content) > 0 && content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// SplitLines splits content into lines, keeping each terminator.
func SplitLines(content []byte) []string {
	lines := make([]string, 0, CountLines(content))
	for len(content) > 0 {
		i := bytes.IndexByte(content, '\n')
		if i < 0 {
			lines = append(lines, string(content))
			break
		}
		lines = append(lines, string(content[:i+1]))
		content = content[i+1:]
	}
	return lines
}
