package password

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/nao1215/riskscope/internal/heuristic"
)

// sha1HexLen is the length of a hex encoded SHA-1 digest.
const sha1HexLen = 40

// Set is a read-only string set. It is safe for concurrent reads.
type Set map[string]struct{}

// Has reports whether s is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// LoadCommonPasswords reads a newline separated password list.
// Entries are case folded so membership tests are case-insensitive.
// A missing file yields an empty set and no error.
func LoadCommonPasswords(path string) (Set, error) {
	return loadSet(path, func(line string) (string, bool) {
		return heuristic.Fold(line), true
	})
}

// LoadBreachedHashes reads a list of breached SHA-1 digests.
// Each line is a 40 character hex digest, optionally followed by ":count"
// as in the range protocol dumps. Lines that are not digests are skipped.
// A missing file yields an empty set and no error.
func LoadBreachedHashes(path string) (Set, error) {
	return loadSet(path, func(line string) (string, bool) {
		digest, _, _ := strings.Cut(line, ":")
		digest = strings.ToUpper(strings.TrimSpace(digest))
		if !isSHA1Hex(digest) {
			return "", false
		}
		return digest, true
	})
}

func loadSet(path string, normalize func(string) (string, bool)) (Set, error) {
	set := make(Set)
	if path == "" {
		return set, nil
	}

	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := readSet(f, set, normalize); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return set, nil
}

func readSet(r io.Reader, set Set, normalize func(string) (string, bool)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if v, ok := normalize(line); ok {
			set[v] = struct{}{}
		}
	}
	return scanner.Err()
}

func isSHA1Hex(s string) bool {
	if len(s) != sha1HexLen {
		return false
	}
	for _, c := range s {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'F') || ('a' <= c && c <= 'f')
}
