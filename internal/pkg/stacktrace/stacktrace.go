// Package stacktrace condenses raw panic stacks to the frames that belong to
// this repository, which keeps panic log entries readable.
package stacktrace

import "strings"

// InternalPaths extracts internal package frames ("internal/...:<line>")
// from a raw debug.Stack() trace. It returns nil when no frame matches.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")

	var paths []string
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		idx := strings.Index(line, ".go:")
		if idx == -1 || !strings.Contains(line, "/internal/") {
			continue
		}

		end := strings.Index(line[idx:], " ")
		if end == -1 {
			end = len(line)
		} else {
			end += idx
		}

		frame := line[:end]
		if internalIdx := strings.Index(frame, "/internal/"); internalIdx != -1 {
			paths = append(paths, frame[internalIdx+1:])
		}
	}

	return paths
}
