package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Validate checks the embedded migrations.
func Validate() error {
	return ValidateFS(migrationsFS, Dir)
}

// ValidateFS checks every .sql file under dir for a timestamped name, a
// unique version and both goose sections. All problems are reported
// together.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var problems error
	versions := make(map[string]string)
	found := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		found++

		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: name must be YYYYMMDDHHMMSS_snake_case.sql", name))
			continue
		}
		if prev, dup := versions[m[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				problems = multierr.Append(problems, fmt.Errorf("%s: missing %q", name, marker))
			}
		}
	}
	if found == 0 {
		return fmt.Errorf("no migrations in %q", dir)
	}
	return problems
}
