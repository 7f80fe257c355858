// Package timezones provides the IANA zone list behind timezone fields,
// ranked search over it, and an HTTP handler returning matches as JSON
// options for type-ahead inputs.
package timezones

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	_ "time/tzdata"
)

//go:embed data/zones.txt
var dataFS embed.FS

const defaultListPath = "data/zones.txt"

var (
	defaultOnce  sync.Once
	defaultZones []string
	defaultErr   error
)

// Default returns a copy of the embedded zone list, sorted.
func Default() ([]string, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultListPath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()
		defaultZones, defaultErr = Load(f)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return append([]string(nil), defaultZones...), nil
}

// Load reads one zone name per line. Blank lines, # comments and
// duplicates are skipped.
func Load(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, errors.New("timezones: missing reader")
	}
	scanner := bufio.NewScanner(r)
	zones := make([]string, 0, 128)
	seen := map[string]bool{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		zones = append(zones, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("timezones: read list: %w", err)
	}
	sort.Strings(zones)
	return zones, nil
}
