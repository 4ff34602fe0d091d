package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// ValidateDir checks a migrations root. Each dialect subdirectory must hold
// well formed goose files and every dialect must define the same versions
// under the same names, so the Postgres and SQLite schemas cannot drift.
// A directory without subdirectories is validated on its own.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var dialects []string
	for _, e := range entries {
		if e.IsDir() {
			dialects = append(dialects, e.Name())
		}
	}
	if len(dialects) == 0 {
		_, err := validateDialectDir(dir)
		return err
	}

	var (
		baseDialect  string
		baseVersions map[string]string
	)
	for _, dialect := range dialects {
		versions, err := validateDialectDir(filepath.Join(dir, dialect))
		if err != nil {
			return err
		}
		if baseVersions == nil {
			baseDialect, baseVersions = dialect, versions
			continue
		}
		if err := compareDialects(baseDialect, baseVersions, dialect, versions); err != nil {
			return err
		}
	}
	return nil
}

// validateDialectDir returns version -> migration name for one directory.
func validateDialectDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := versions[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		versions[m[1]] = m[2]

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", full, err)
		}
		if err := checkAnnotations(name, string(b)); err != nil {
			return nil, err
		}
	}
	return versions, nil
}

func checkAnnotations(name, txt string) error {
	if !strings.Contains(txt, "-- +goose Up") {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	if !strings.Contains(txt, "-- +goose Down") {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	begins := strings.Count(txt, "-- +goose StatementBegin")
	if ends := strings.Count(txt, "-- +goose StatementEnd"); begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin but %d StatementEnd", name, begins, ends)
	}
	return nil
}

func compareDialects(a string, av map[string]string, b string, bv map[string]string) error {
	for version, name := range av {
		other, ok := bv[version]
		if !ok {
			return fmt.Errorf("migration %s_%s exists for %s but not %s", version, name, a, b)
		}
		if other != name {
			return fmt.Errorf("migration %s is %q for %s but %q for %s", version, name, a, other, b)
		}
	}
	for version, name := range bv {
		if _, ok := av[version]; !ok {
			return fmt.Errorf("migration %s_%s exists for %s but not %s", version, name, b, a)
		}
	}
	return nil
}
