// Package ingest loads CSV hit tables written by transport runs into a
// store, skipping files whose content has not changed since the last run.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"teststand/internal/config"
	"teststand/internal/store"
)

type Result struct {
	TablesReplaced int
	HitsLoaded     int
	TablesRemoved  int
	FilesSkipped   int
	Errors         []error
}

type Options struct {
	Full bool
}

type tableFile struct {
	path  string
	table string
}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetTableHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get table hashes: %w", err)
		}
	}

	files, err := walkCSVFiles(cfg.Ingest.Paths, cfg.Ingest.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking hit files: %w", err)
	}

	result := &Result{}
	seen := make(map[string]string)
	sources := make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sources = append(sources, file.path)

		if other, dup := seen[file.table]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("%s: table %s already loaded from %s", file.path, file.table, other))
			continue
		}
		seen[file.table] = file.path

		hash, err := computeHash(file.path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", file.path, err))
			continue
		}
		if !options.Full {
			if existing, ok := existingHashes[file.path]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}

		hits, err := ReadHitsFile(file.path, cfg.Ingest.Columns)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", file.path, err))
			continue
		}

		input := store.TableInput{Path: file.table, SourceFile: file.path, SourceHash: hash}
		if err := db.ReplaceTable(ctx, input, hits); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("replacing %s: %w", file.table, err))
			continue
		}
		result.TablesReplaced++
		result.HitsLoaded += len(hits)
	}

	deleted, err := db.RemoveStaleTables(ctx, sources)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale tables: %w", err))
	}
	result.TablesRemoved = int(deleted)

	return result, nil
}

// walkCSVFiles lists every .csv file under roots. The table path of a file
// is its slash-separated path relative to its root, without extension.
func walkCSVFiles(roots []string, excludes []string) ([]tableFile, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []tableFile
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			table := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
			files = append(files, tableFile{path: path, table: table})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
