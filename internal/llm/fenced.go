package llm

import "strings"

// ExtractFencedBlock returns the content of the last complete fenced
// code block in text. The opening fence may carry an info string such
// as "diff"; fences of three or more backticks or tildes are
// recognized, and an unterminated fence is ignored. The returned
// content keeps its trailing newline so it can be written straight to
// a patch file.
func ExtractFencedBlock(text string) (string, bool) {
	var (
		blocks  []string
		current []string
		fenceCh byte
		fenceN  int
		inBlock bool
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if n := fenceLen(trimmed, '`'); n >= 3 {
				fenceCh, fenceN = '`', n
				inBlock = true
				current = current[:0]
			} else if n := fenceLen(trimmed, '~'); n >= 3 {
				fenceCh, fenceN = '~', n
				inBlock = true
				current = current[:0]
			}
			continue
		}
		// A closing fence is fence characters alone, at least as many
		// as the opening fence.
		if n := fenceLen(trimmed, fenceCh); n >= fenceN && n == len(trimmed) {
			blocks = append(blocks, strings.Join(current, "\n")+"\n")
			inBlock = false
			continue
		}
		current = append(current, line)
	}

	if len(blocks) == 0 {
		return "", false
	}
	return blocks[len(blocks)-1], true
}

func fenceLen(s string, ch byte) int {
	i := 0
	for i < len(s) && s[i] == ch {
		i++
	}
	return i
}
