package icalbuddy

import "strings"

const (
	// BulletDelimiter separates event fragments inside one record.
	BulletDelimiter = "|||"
	// PropertyDelimiter separates fields inside one fragment.
	PropertyDelimiter = " :: "

	// continuationIndent is the leading whitespace icalBuddy uses when it
	// wraps a long notes or location value onto the next line.
	continuationIndent = "       "
	separatorPrefix    = "---"
)

// RawRecord is one assembled block of export text and the calendar header
// that was current when the block started.
type RawRecord struct {
	Calendar *string
	Text     string
}

// AssembleRecords walks sanitized export text line by line. Header lines
// ("Work:") set the calendar for every following record until the next
// header; indented or blank lines are folded into the record above them.
func AssembleRecords(text string) []RawRecord {
	var (
		records  []RawRecord
		calendar *string
	)

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		i++

		if line == "" || strings.HasPrefix(line, separatorPrefix) {
			continue
		}

		if isHeader(line) {
			name := strings.TrimSpace(strings.TrimSuffix(line, ":"))
			calendar = &name
			continue
		}

		var b strings.Builder
		b.WriteString(line)
		for i < len(lines) {
			next := lines[i]
			if !strings.HasPrefix(next, continuationIndent) && strings.TrimSpace(next) != "" {
				break
			}
			b.WriteByte(' ')
			b.WriteString(strings.TrimSpace(next))
			i++
		}

		records = append(records, RawRecord{Calendar: calendar, Text: b.String()})
	}

	return records
}

// isHeader reports whether a trimmed, non-empty line names a calendar. A
// title that ends in ':' and carries no delimiter is indistinguishable from
// a header and is treated as one.
func isHeader(line string) bool {
	return strings.HasSuffix(line, ":") &&
		!strings.Contains(line, BulletDelimiter) &&
		!strings.Contains(line, PropertyDelimiter)
}

// SplitRecord splits a record into fragments on the bullet delimiter and
// each fragment into fields on the property delimiter. Blank fragments and
// fragments with fewer than two fields are left out.
func SplitRecord(text string) [][]string {
	fragments, _ := splitRecord(text)
	return fragments
}

// splitRecord also returns how many non-blank fragments were discarded for
// having fewer than two fields.
func splitRecord(text string) (fragments [][]string, short int) {
	for _, chunk := range strings.Split(text, BulletDelimiter) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		fields := strings.Split(chunk, PropertyDelimiter)
		if len(fields) < 2 {
			short++
			continue
		}
		fragments = append(fragments, fields)
	}
	return fragments, short
}
