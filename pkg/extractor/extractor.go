package extractor

import (
	"regexp"
	"strings"

	"ai-slidegen-be/pkg/report"
)

// Regex-driven structural extraction from OCR markdown. Kept behind pure
// functions so the implementation can move to a real parser without touching
// callers.
var (
	headingRe   = regexp.MustCompile(`^\s*#+\s*(.*)$`)
	separatorRe = regexp.MustCompile(`^[\s|:\-]+$`)
	imageRe     = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe    = regexp.MustCompile(`\*([^*]+)\*`)
	underlineRe = regexp.MustCompile(`_{1,2}([^_]+)_{1,2}`)
	inlineMath  = regexp.MustCompile(`\$[^$]*\$`)
)

// Extract parses one page of raw OCR text into a title, a cleaned body and
// zero or more structured tables. It is a pure function: same input, same
// output, no side effects, and it never fails. Malformed tables are skipped
// and a page without a heading yields an empty title.
func Extract(text string) (title string, body string, tables []report.ExtractedTable) {
	lines := strings.Split(text, "\n")

	inTable := make([]bool, len(lines))
	markTableRuns(lines, inTable)

	tables = parseTables(lines, inTable)

	titleLine := -1
	var bodyLines []string
	for i, line := range lines {
		if inTable[i] {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			if titleLine == -1 {
				titleLine = i
				title = strings.TrimSpace(m[1])
				continue // title line does not appear in the body
			}
			line = m[1]
		}
		bodyLines = append(bodyLines, cleanInline(line))
	}

	body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	return title, body, tables
}

// markTableRuns flags every line belonging to a maximal contiguous run of
// pipe-delimited lines.
func markTableRuns(lines []string, inTable []bool) {
	for i, line := range lines {
		if strings.Contains(line, "|") {
			inTable[i] = true
		}
	}
}

func parseTables(lines []string, inTable []bool) []report.ExtractedTable {
	var tables []report.ExtractedTable

	i := 0
	for i < len(lines) {
		if !inTable[i] {
			i++
			continue
		}
		start := i
		for i < len(lines) && inTable[i] {
			i++
		}
		if tbl, ok := parseTableRun(lines[start:i]); ok {
			tables = append(tables, tbl)
		}
	}
	return tables
}

// parseTableRun turns one run of pipe lines into a table. Separator rows are
// discarded; the first surviving row becomes the header. A run that does not
// yield a header plus at least one data row is dropped, documents frequently
// contain near-table prose.
func parseTableRun(run []string) (report.ExtractedTable, bool) {
	var rows [][]string
	for _, line := range run {
		if separatorRe.MatchString(line) && strings.Contains(line, "-") {
			continue
		}
		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		rows = append(rows, cells)
	}

	if len(rows) < 2 {
		return report.ExtractedTable{}, false
	}
	return report.ExtractedTable{Header: rows[0], Rows: rows[1:]}, true
}

func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(cleanInline(p))
	}
	return cells
}

// cleanInline strips emphasis markers, inline math and leftover image
// references from a single line.
func cleanInline(s string) string {
	s = imageRe.ReplaceAllString(s, "")
	s = inlineMath.ReplaceAllString(s, "")
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = underlineRe.ReplaceAllString(s, "$1")
	return s
}
