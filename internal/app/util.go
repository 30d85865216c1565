package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/retrosync/internal/config"
	"github.com/xxxsen/retrosync/internal/detect"
	"github.com/xxxsen/retrosync/internal/model"
	"github.com/xxxsen/retrosync/internal/normalize"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

var defaultConfigPaths = []string{
	"./config.json",
	"/etc/retrosync.json",
}

// loadAppConfig loads the optional application config. An explicit path must
// exist; with no explicit path a missing config falls back to defaults.
func loadAppConfig(explicit string) (*config.Config, error) {
	if strings.TrimSpace(explicit) != "" {
		return config.Load(explicit)
	}
	cfg, err := config.LoadFirst(defaultConfigPaths...)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newProgressPrinter returns a progress callback that writes one line per
// event to stdout, coalesced to at most one line per interval. Interval 0
// prints everything.
func newProgressPrinter(intervalMS int) model.ProgressFunc {
	interval := time.Duration(intervalMS) * time.Millisecond
	var last time.Time
	return func(p model.Progress) {
		now := time.Now()
		if interval > 0 && now.Sub(last) < interval {
			return
		}
		last = now
		fmt.Printf("[%s] %s\n", p.Stage, p.Message)
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable renders rows with go-pretty, dropping to the plain ASCII
// style when stdout is not a terminal.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if stdoutIsTerminal() {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func printWarnings(warnings []string) {
	for _, warning := range warnings {
		fmt.Printf("warning: %s\n", warning)
	}
}

// buildLibrary runs detection and normalization over dir, shared by every
// command that needs a loaded library.
func buildLibrary(ctx context.Context, cfg *config.Config, dir, hint, scanMode string, hashFallback bool, progress model.ProgressFunc) (*detect.Result, *normalize.Result, error) {
	detector := detect.New()
	detection, err := detector.Detect(ctx, dir, detect.Options{
		Hint:     hint,
		ScanMode: scanMode,
		Progress: progress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("detect library %s: %w", dir, err)
	}

	normalizer := normalize.New()
	loaded, err := normalizer.BuildLibrary(ctx, detection, normalize.Options{
		ScanMode:           scanMode,
		CatalogRoot:        cfg.CatalogRoot,
		CatalogOverrides:   cfg.CatalogOverrides,
		EnableHashFallback: hashFallback,
		AssetIndexBudget:   cfg.AssetIndexBudget,
		Progress:           progress,
	})
	if err != nil {
		return nil, nil, err
	}
	return detection, loaded, nil
}

func sortedSystemIDs(library *model.Library) []string {
	ids := make([]string, 0, len(library.Systems))
	for id := range library.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
