package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ScanCommand detects a library and loads its metadata into the normalized
// model, reporting what a conversion would work with.
type ScanCommand struct {
	dir          string
	hint         string
	scanMode     string
	configPath   string
	hashFallback bool
}

func NewScanCommand() *ScanCommand { return &ScanCommand{} }

func (c *ScanCommand) Name() string { return "scan" }

func (c *ScanCommand) Desc() string {
	return "扫描 ROM 目录，加载元数据并输出各平台的游戏统计"
}

func (c *ScanCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "ROM 根目录")
	f.StringVar(&c.hint, "hint", "", "生态提示，命中时跳过完整扫描")
	f.StringVar(&c.scanMode, "scan-mode", "", "扫描模式: meta/deep/force/single_rom_folder")
	f.StringVar(&c.configPath, "config", "", "配置文件路径，默认 ./config.json")
	f.BoolVar(&c.hashFallback, "hash-fallback", false, "名称未命中时对 ROM 计算哈希后再查目录")
}

func (c *ScanCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.dir) == "" {
		return errors.New("scan requires --dir")
	}
	logutil.GetLogger(ctx).Info("starting scan",
		zap.String("dir", c.dir),
		zap.String("scan_mode", c.scanMode),
		zap.Bool("hash_fallback", c.hashFallback),
	)
	return nil
}

func (c *ScanCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	cfg, err := loadAppConfig(c.configPath)
	if err != nil {
		return err
	}
	progress := newProgressPrinter(cfg.ProgressIntervalMS)

	detection, loaded, err := buildLibrary(ctx, cfg, c.dir, c.hint, c.scanMode, c.hashFallback, progress)
	if err != nil {
		return err
	}
	library := loaded.Library

	rows := make([][]string, 0, len(library.Systems))
	total := 0
	for _, systemID := range sortedSystemIDs(library) {
		system := library.Systems[systemID]
		games := library.GamesBySystem[systemID]
		total += len(games)
		withAssets := 0
		for _, game := range games {
			if len(game.Assets) > 0 {
				withAssets++
			}
		}
		rows = append(rows, []string{
			systemID,
			system.DisplayName,
			string(system.MetadataSource),
			fmt.Sprintf("%d", len(games)),
			fmt.Sprintf("%d", withAssets),
		})
	}
	fmt.Println(renderTable(
		[]string{"system", "display name", "metadata source", "games", "with assets"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	fmt.Printf("Ecosystem %s (confidence %.2f), %d game(s), %d enriched from catalogs.\n",
		detection.Ecosystem, detection.Confidence, total, loaded.Enriched)

	printWarnings(loaded.Warnings)

	logger.Info("scan completed",
		zap.String("ecosystem", detection.Ecosystem),
		zap.Int("systems", len(library.Systems)),
		zap.Int("games", total),
		zap.Int("enriched", loaded.Enriched),
		zap.Int("warnings", len(loaded.Warnings)),
	)
	return nil
}

func (c *ScanCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("scan", func() IRunner { return NewScanCommand() })
}
