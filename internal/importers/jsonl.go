package importers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// JSONLSource reads a catalog from a JSON-lines file: one entry object per
// line, blank lines ignored. This is CLI carrier glue, not a catalog format
// commitment.
type JSONLSource struct {
	Path string
}

func NewJSONLSource(path string) JSONLSource {
	return JSONLSource{Path: path}
}

func (s JSONLSource) ReadEntries() ([]RawEntry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	var entries []RawEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var entry RawEntry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse catalog line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return entries, nil
}
