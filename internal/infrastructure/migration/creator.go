package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// scaffoldTemplate matches the header format of the files already under
// migrations/, so hand-written and generated migrations read the same.
const scaffoldTemplate = `-- Migration: {{.Name}}{{if .Rollback}} (Rollback){{end}}
-- Created: {{.Created}}
-- Description: {{if .Rollback}}Rollback for {{end}}{{.Description}}

`

// MigrationFile is a freshly scaffolded up/down pair
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

type scaffoldData struct {
	Name        string
	Description string
	Created     string
	Rollback    bool
}

// CreateMigration scaffolds an empty up/down migration pair named
// <version>_<name>.{up,down}.sql, where version is the current time in
// YYYYMMDDHHMMSS form so files sort in creation order.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	mf := &MigrationFile{
		Version:  version,
		Name:     slug,
		UpPath:   filepath.Join(migrationsDir, version+"_"+slug+".up.sql"),
		DownPath: filepath.Join(migrationsDir, version+"_"+slug+".down.sql"),
	}

	data := scaffoldData{
		Name:        slug,
		Description: description,
		Created:     now.UTC().Format(time.RFC3339),
	}
	if err := writeScaffold(mf.UpPath, data); err != nil {
		return nil, err
	}
	data.Rollback = true
	if err := writeScaffold(mf.DownPath, data); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}

	return mf, nil
}

func writeScaffold(path string, data scaffoldData) error {
	tmpl := template.Must(template.New("scaffold").Parse(scaffoldTemplate))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create migration file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("render migration %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowers a human name into a snake_case file slug
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ListMigrations returns the base names of the up/down pairs in a
// directory, in lexical (= version) order
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	return names, nil
}
