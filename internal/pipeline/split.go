// Package pipeline splits a token stream into segments and runs them in
// order, handing each segment's output to the next as its input.
package pipeline

// DefaultDelimiter separates pipeline segments.
const DefaultDelimiter = "/"

// Split partitions tokens on delimiter. Delimiter tokens are dropped and so
// are empty segments, so leading, trailing or repeated delimiters never
// produce a phantom command.
func Split(tokens []string, delimiter string) [][]string {
	var segments [][]string
	var current []string
	for _, tok := range tokens {
		if tok == delimiter {
			if len(current) > 0 {
				segments = append(segments, current)
			}
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}
