package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ReadCounts parses tab-separated "key<TAB>count" lines into a
// frequency table. Malformed lines are skipped with a logged warning.
func ReadCounts(r io.Reader) (map[string]int, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			log.Warnf("counts line %d: no tab separator", lineNo)
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			log.Warnf("counts line %d: bad count %q", lineNo, value)
			continue
		}
		counts[key] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: read counts: %w", err)
	}
	return counts, nil
}

// LoadCounts reads a frequency table from disk.
func LoadCounts(path string) (map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open counts: %w", err)
	}
	defer file.Close()

	counts, err := ReadCounts(file)
	if err != nil {
		return nil, err
	}
	log.Debug("counts loaded", "path", path, "keys", len(counts))
	return counts, nil
}

// WriteCounts writes a frequency table as tab-separated lines, keys in
// no particular order.
func WriteCounts(w io.Writer, counts map[string]int) error {
	buffered := bufio.NewWriter(w)
	for key, count := range counts {
		if _, err := fmt.Fprintf(buffered, "%s\t%d\n", key, count); err != nil {
			return fmt.Errorf("corpus: write counts: %w", err)
		}
	}
	return buffered.Flush()
}
