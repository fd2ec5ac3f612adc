package search

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

var (
	headingRE  = regexp.MustCompile(`^#{1,6}\s+`)
	listItemRE = regexp.MustCompile(`^(?:\d+[.)]|[-*+])\s+`)
)

// PrepareMarkdownInMemory reads the markdown at path and rewrites it as one
// passage per tip, separated by blank lines:
//
//   - "1. text", "- text" and "* text" each start a new passage; indented or
//     plain lines that follow are appended to it.
//   - Table rows become one passage each (cells joined by spaces); separator
//     rows are dropped.
//   - Headings end the current passage and are not emitted.
//
// Plain paragraphs with no list items pass through unchanged.
func PrepareMarkdownInMemory(path string) ([]byte, error) {
	orig, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(orig))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case headingRE.MatchString(line):
			flush()
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			flush()
			if row := tableRow(line); row != "" {
				out = append(out, row)
			}
		case listItemRE.MatchString(line):
			flush()
			current = append(current, listItemRE.ReplaceAllString(line, ""))
		default:
			current = append(current, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()

	if len(out) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(out, "\n\n") + "\n"), nil
}

// tableRow joins the non-empty cells of a "| a | b |" row, or returns "" for
// separator rows like "|---|:--:|".
func tableRow(line string) string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	kept := make([]string, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if strings.Trim(c, ":- ") == "" {
			continue
		}
		kept = append(kept, c)
	}
	return strings.Join(kept, " ")
}
