// Package assets holds the files compiled into the binary: the fallback
// dictionary, the banned list, the puzzle catalog and SQL migrations.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed allowed.txt banned.txt puzzles.toml sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// AllowedList returns the built-in dictionary, uppercased.
func AllowedList() ([]string, error) {
	return readLines("allowed.txt")
}

// BannedList returns the built-in banned words, uppercased.
func BannedList() ([]string, error) {
	return readLines("banned.txt")
}

// Puzzles returns the raw TOML puzzle catalog.
func Puzzles() ([]byte, error) {
	return FS.ReadFile("puzzles.toml")
}

// Migrations exposes the sql directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}
