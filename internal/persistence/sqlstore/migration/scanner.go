package migration

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scanner reads migration files from a directory of an fs.FS.
type Scanner struct {
	fsys fs.FS
	dir  string
}

// NewScanner creates a Scanner rooted at dir inside fsys.
func NewScanner(fsys fs.FS, dir string) *Scanner {
	if dir == "" {
		dir = "."
	}
	return &Scanner{fsys: fsys, dir: dir}
}

// Scan returns every migration ordered by numeric version.
func (s *Scanner) Scan() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, &Error{FilePath: s.dir, Operation: "read directory", Err: err}
	}

	var migrations []Migration
	seen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, description, err := ParseFileName(entry.Name())
		if err != nil {
			return nil, &Error{FilePath: entry.Name(), Operation: "validate filename", Err: err}
		}

		if existing, ok := seen[version]; ok {
			return nil, &Error{
				Version:   version,
				FilePath:  entry.Name(),
				Operation: "check duplicates",
				Err:       fmt.Errorf("%w: %s and %s", ErrDuplicateVersion, existing, entry.Name()),
			}
		}
		seen[version] = entry.Name()

		filePath := path.Join(s.dir, entry.Name())
		content, err := fs.ReadFile(s.fsys, filePath)
		if err != nil {
			return nil, &Error{Version: version, FilePath: filePath, Operation: "read file", Err: err}
		}

		migrations = append(migrations, Migration{
			Version:     version,
			Description: description,
			SQL:         string(content),
			FilePath:    filePath,
			Checksum:    Checksum(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})

	return migrations, nil
}

// ParseFileName splits a {version}_{description}.sql name into its parts.
func ParseFileName(name string) (version, description string, err error) {
	match := fileNamePattern.FindStringSubmatch(name)
	if match == nil {
		return "", "", fmt.Errorf("%w: %q (expected {version}_{description}.sql)", ErrInvalidFileName, name)
	}
	return match[1], strings.ReplaceAll(match[2], "_", " "), nil
}

// Checksum returns the hex BLAKE2b-256 digest of a migration file.
func Checksum(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func versionNumber(version string) int {
	n, err := strconv.Atoi(version)
	if err != nil {
		return -1
	}
	return n
}
