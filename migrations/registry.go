// Package migrations exposes the attempt ledger schema per SQL dialect and
// hands each dialect's filesystem to a caller supplied registrar, typically
// go-persistence-bun's RegisterSQLMigrations.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	twittertoken "github.com/goliatone/go-twitter-token"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	defaultSourceLabel = "go-twitter-token"
	rootPath           = "data/sql/migrations"
	sqliteDir          = "sqlite"
)

type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithDialectSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets limits registration to the named dialects.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		if next := normalizeDialects(targets); len(next) > 0 {
			r.ValidationTargets = next
		}
	}
}

// WithFilesystems replaces the embedded schema, e.g. to add host tables.
func WithFilesystems(filesystems ...FilesystemSpec) Option {
	return func(r *Registration) {
		copied := make([]FilesystemSpec, 0, len(filesystems))
		for _, entry := range filesystems {
			dialect := normalizeDialect(entry.Dialect)
			if dialect == "" || entry.FS == nil {
				continue
			}
			copied = append(copied, FilesystemSpec{Dialect: dialect, Path: entry.Path, FS: entry.FS})
		}
		if len(copied) > 0 {
			r.Filesystems = copied
		}
	}
}

// Filesystems resolves the postgres tree and its sqlite subdirectory from
// root, or from the embedded schema when root is nil. Both must hold at
// least one *.up.sql file.
func Filesystems(root fs.FS) ([]FilesystemSpec, error) {
	if root == nil {
		root = twittertoken.GetMigrationsFS()
	}
	base, basePath, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, sqliteDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	specs := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: joinPath(basePath, sqliteDir), FS: sqliteFS},
	}
	for _, entry := range specs {
		ups, err := fs.Glob(entry.FS, "*.up.sql")
		if err != nil {
			return nil, fmt.Errorf("migrations: glob %s %s: %w", entry.Dialect, entry.Path, err)
		}
		if len(ups) == 0 {
			return nil, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", entry.Dialect, entry.Path)
		}
	}
	return specs, nil
}

// Register calls registerFn once per filesystem whose dialect is a
// validation target, in filesystem order.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       defaultSourceLabel,
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	specs, err := Filesystems(nil)
	if err != nil {
		return reg, err
	}
	reg.Filesystems = specs
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if len(reg.ValidationTargets) == 0 {
		return reg, fmt.Errorf("migrations: validation targets are required")
	}

	for _, entry := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, entry.Dialect) {
			continue
		}
		if err := registerFn(ctx, entry.Dialect, reg.SourceLabel, entry.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", entry.Dialect, entry.Path, err)
		}
	}
	return reg, nil
}

func resolveRoot(root fs.FS) (fs.FS, string, error) {
	if _, err := fs.Stat(root, rootPath); err == nil {
		sub, subErr := fs.Sub(root, rootPath)
		if subErr != nil {
			return nil, "", fmt.Errorf("migrations: resolve %s: %w", rootPath, subErr)
		}
		return sub, rootPath, nil
	}
	if ups, err := fs.Glob(root, "*.up.sql"); err == nil && len(ups) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", rootPath)
}

func normalizeDialect(dialect string) string {
	return strings.ToLower(strings.TrimSpace(dialect))
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if dialect := normalizeDialect(value); dialect != "" && !slices.Contains(out, dialect) {
			out = append(out, dialect)
		}
	}
	return out
}

func joinPath(base string, suffix string) string {
	if base == "." {
		return suffix
	}
	return strings.TrimSuffix(base, "/") + "/" + suffix
}
