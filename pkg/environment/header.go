package environment

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// headerReadLimit matches how much of a plugin file the host scans for its
// header block.
const headerReadLimit = 8 * 1024

// ReadFileHeader returns the value of a "Name: value" header line found in
// the leading comment block of the file at path.
func ReadFileHeader(path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, headerReadLimit))
	if err != nil {
		return "", fmt.Errorf("read header of %s: %w", path, err)
	}

	re := regexp.MustCompile(`(?mi)^[ \t/*#@]*` + regexp.QuoteMeta(name) + `:(.*)$`)
	m := re.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("%s header not found in %s: %w", name, path, ErrNotAvailable)
	}

	value := strings.TrimSpace(string(m[1]))
	value = strings.TrimSpace(strings.TrimSuffix(value, "*/"))
	if value == "" {
		return "", fmt.Errorf("%s header is empty in %s: %w", name, path, ErrNotAvailable)
	}
	return value, nil
}
