package patcher

import (
	"fmt"
	"strings"
)

const (
	searchMarker  = "<<<<<<< SEARCH"
	dividerMarker = "======="
	replaceMarker = ">>>>>>> REPLACE"
)

// srBlock is one SEARCH/REPLACE pair.
type srBlock struct {
	search  []string
	replace []string
}

// ApplySearchReplace applies one or more SEARCH/REPLACE blocks to
// original. Each search block is located with an exact line match first,
// then with trailing whitespace trimmed; the first occurrence is
// replaced. A block that cannot be located fails the whole call.
func ApplySearchReplace(original, diff string) (string, error) {
	blocks, err := parseSearchReplace(diff)
	if err != nil {
		return "", err
	}

	lines := strings.Split(original, "\n")
	for i, b := range blocks {
		at := findRegion(lines, b.search)
		if at < 0 {
			return "", fmt.Errorf("search block %d not found in file", i+1)
		}
		spliced := make([]string, 0, len(lines)-len(b.search)+len(b.replace))
		spliced = append(spliced, lines[:at]...)
		spliced = append(spliced, b.replace...)
		spliced = append(spliced, lines[at+len(b.search):]...)
		lines = spliced
	}
	return strings.Join(lines, "\n"), nil
}

func parseSearchReplace(diff string) ([]srBlock, error) {
	var blocks []srBlock
	var current *srBlock
	inReplace := false

	for _, line := range strings.Split(diff, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, searchMarker):
			if current != nil {
				return nil, fmt.Errorf("nested SEARCH marker")
			}
			current = &srBlock{replace: []string{}}
			inReplace = false
		case trimmed == dividerMarker && current != nil && !inReplace:
			inReplace = true
		case strings.HasPrefix(trimmed, replaceMarker):
			if current == nil || !inReplace {
				return nil, fmt.Errorf("REPLACE marker without a SEARCH section")
			}
			if len(current.search) == 0 {
				return nil, fmt.Errorf("empty SEARCH section")
			}
			blocks = append(blocks, *current)
			current = nil
			inReplace = false
		case current != nil && inReplace:
			current.replace = append(current.replace, line)
		case current != nil:
			current.search = append(current.search, line)
		}
	}

	if current != nil {
		return nil, fmt.Errorf("unterminated SEARCH/REPLACE block")
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no SEARCH/REPLACE blocks found")
	}
	return blocks, nil
}

// findRegion locates the first occurrence of the region lines in the
// file. Two passes: exact equality, then trailing whitespace trimmed.
func findRegion(lines, region []string) int {
	if at := findConsecutive(lines, region, func(a, b string) bool {
		return a == b
	}); at >= 0 {
		return at
	}
	return findConsecutive(lines, region, func(a, b string) bool {
		return strings.TrimRight(a, " \t\r") == strings.TrimRight(b, " \t\r")
	})
}

func findConsecutive(lines, region []string, eq func(string, string) bool) int {
	for i := 0; i+len(region) <= len(lines); i++ {
		found := true
		for j, r := range region {
			if !eq(lines[i+j], r) {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}
