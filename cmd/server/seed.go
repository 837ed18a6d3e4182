package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/tabwork/internal/config"
	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/csvio"
	"github.com/JonMunkholm/tabwork/internal/table"
)

// loadSeedDir imports every .csv, .tsv, .tab and .txt file in dir. Files are
// parsed concurrently, up to MaxConcurrentImports at a time, and registered
// in file name order. Other files are skipped.
func loadSeedDir(ctx context.Context, ws *core.Workspace, dir string, cfg config.WorkspaceConfig) (int, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var files []string
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		if _, err := csvio.DelimiterFor(e.Name()); err != nil {
			slog.Debug("seed file skipped", "file", e.Name())
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	snaps := make([]*table.Table, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.MaxConcurrentImports > 0 {
		g.SetLimit(cfg.MaxConcurrentImports)
	}
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap, err := readSeedFile(filepath.Join(dir, name), cfg.MaxUploadBytes)
			if err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for i, name := range files {
		ext := filepath.Ext(name)
		src := core.Source{
			FileName:  name,
			Extension: strings.TrimPrefix(strings.ToLower(ext), "."),
		}
		if _, err := ws.ImportTable(ctx, strings.TrimSuffix(name, ext), snaps[i], src); err != nil {
			return i, fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return len(files), nil
}

func readSeedFile(path string, maxBytes int64) (*table.Table, error) {
	delim, err := csvio.DelimiterFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvio.Read(f, csvio.Options{Delimiter: delim, MaxBytes: maxBytes})
}
