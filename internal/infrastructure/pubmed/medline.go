package pubmed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MEDLINE tags read by the adapter
const (
	TagPMID  = "PMID"
	TagTitle = "TI"
)

// medlineMaxLine bounds a single line of MEDLINE text (abstracts are long)
const medlineMaxLine = 1024 * 1024

// Record is one citation in MEDLINE format. A tag may repeat (for example
// AU), so every tag maps to all of its values in order.
type Record map[string][]string

// Get returns the first value of a tag
func (r Record) Get(tag string) string {
	if v := r[tag]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// ParseMedline reads records from MEDLINE text. Each line starts with a tag
// padded to four columns and a "- " separator; lines indented by six spaces
// continue the previous value; blank lines separate records.
func ParseMedline(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), medlineMaxLine)

	var (
		records []Record
		current Record
		lastTag string
		lineNum int
	)

	flush := func() {
		if len(current) > 0 {
			records = append(records, current)
		}
		current = nil
		lastTag = ""
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, "      ") {
			if lastTag == "" {
				return nil, fmt.Errorf("pubmed: line %d: continuation without a tag", lineNum)
			}
			values := current[lastTag]
			values[len(values)-1] += " " + strings.TrimSpace(line)
			continue
		}

		if len(line) < 6 || line[4:6] != "- " {
			return nil, fmt.Errorf("pubmed: line %d: malformed medline line", lineNum)
		}
		tag := strings.TrimSpace(line[:4])
		value := strings.TrimSpace(line[6:])

		if current == nil {
			current = make(Record)
		}
		current[tag] = append(current[tag], value)
		lastTag = tag
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pubmed: failed to read medline: %w", err)
	}
	flush()

	return records, nil
}
