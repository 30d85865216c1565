package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/dat"
	"github.com/xxxsen/retrosync/internal/detect"
	"github.com/xxxsen/retrosync/internal/model"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// FindDatCommand locates the checksum catalog (DAT) file best matching each
// system of a library.
type FindDatCommand struct {
	dir        string
	systems    []string
	roots      []string
	strict     bool
	hint       string
	configPath string
}

func NewFindDatCommand() *FindDatCommand { return &FindDatCommand{} }

func (c *FindDatCommand) Name() string { return "finddat" }

func (c *FindDatCommand) Desc() string {
	return "为库中的每个平台查找最匹配的校验目录 DAT 文件"
}

func (c *FindDatCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "ROM 根目录")
	f.StringSliceVar(&c.systems, "systems", nil, "直接指定平台 id，跳过目录检测")
	f.StringSliceVar(&c.roots, "roots", nil, "额外的 DAT 搜索目录，可重复")
	f.BoolVar(&c.strict, "strict", false, "解析候选 DAT 并要求命中至少一个 ROM 名")
	f.StringVar(&c.hint, "hint", "", "生态提示")
	f.StringVar(&c.configPath, "config", "", "配置文件路径，默认 ./config.json")
}

func (c *FindDatCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.dir) == "" && len(c.systems) == 0 {
		return errors.New("finddat requires --dir or --systems")
	}
	logutil.GetLogger(ctx).Info("starting finddat",
		zap.String("dir", c.dir),
		zap.Strings("systems", c.systems),
		zap.Bool("strict", c.strict),
	)
	return nil
}

func (c *FindDatCommand) Run(ctx context.Context) error {
	cfg, err := loadAppConfig(c.configPath)
	if err != nil {
		return err
	}

	systems := c.systems
	var gamesBySystem map[string][]*model.Game
	if len(systems) == 0 {
		if c.strict {
			// strict verification needs loaded ROM names
			_, loaded, err := buildLibrary(ctx, cfg, c.dir, c.hint, detect.ModeMeta, false, newProgressPrinter(cfg.ProgressIntervalMS))
			if err != nil {
				return err
			}
			gamesBySystem = loaded.Library.GamesBySystem
			systems = sortedSystemIDs(loaded.Library)
		} else {
			detection, err := detect.New().Detect(ctx, c.dir, detect.Options{Hint: c.hint, ScanMode: detect.ModeMeta})
			if err != nil {
				return fmt.Errorf("detect library %s: %w", c.dir, err)
			}
			for _, system := range detection.Systems {
				systems = append(systems, system.SystemID)
			}
			sort.Strings(systems)
		}
	}
	if len(systems) == 0 {
		return errors.New("no systems to search catalogs for")
	}

	detector := dat.NewAutoDetector(c.searchRoots(cfg.CatalogRoot), c.strict)
	result := detector.Detect(ctx, systems, gamesBySystem)

	rows := make([][]string, 0, len(systems))
	for _, system := range systems {
		match, ok := result.Matches[system]
		if !ok {
			rows = append(rows, []string{system, "(unresolved)", ""})
			continue
		}
		rows = append(rows, []string{system, match.Path, fmt.Sprintf("%d", match.Confidence)})
	}
	fmt.Println(renderTable(
		[]string{"system", "catalog", "score"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))

	printWarnings(result.Warnings)
	return nil
}

func (c *FindDatCommand) PostRun(ctx context.Context) error { return nil }

// searchRoots mirrors the enricher's resolution order, then appends the
// explicitly requested roots.
func (c *FindDatCommand) searchRoots(configRoot string) []string {
	candidates := []string{configRoot, os.Getenv(dat.CatalogRootEnv)}
	if c.dir != "" {
		candidates = append(candidates,
			filepath.Join(c.dir, ".retrometasync", "dats"),
			filepath.Join(c.dir, "metadata", "dats"),
			filepath.Join(c.dir, "dats"),
		)
	}
	candidates = append(candidates, c.roots...)

	seen := make(map[string]struct{})
	var roots []string
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		roots = append(roots, candidate)
	}
	return roots
}

func init() {
	RegisterRunner("finddat", func() IRunner { return NewFindDatCommand() })
}
