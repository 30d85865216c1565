package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/retrosync/internal/verify"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// VerifyCommand checks every asset reference of a loaded library against the
// filesystem and recovers missing media via the fallback folder conventions.
type VerifyCommand struct {
	dir        string
	hint       string
	scanMode   string
	configPath string
}

func NewVerifyCommand() *VerifyCommand { return &VerifyCommand{} }

func (c *VerifyCommand) Name() string { return "verify" }

func (c *VerifyCommand) Desc() string {
	return "校验库中媒体文件是否存在，并尝试从回退目录找回缺失项"
}

func (c *VerifyCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "ROM 根目录")
	f.StringVar(&c.hint, "hint", "", "生态提示")
	f.StringVar(&c.scanMode, "scan-mode", "", "扫描模式: meta/deep/force/single_rom_folder")
	f.StringVar(&c.configPath, "config", "", "配置文件路径，默认 ./config.json")
}

func (c *VerifyCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.dir) == "" {
		return errors.New("verify requires --dir")
	}
	logutil.GetLogger(ctx).Info("starting verify",
		zap.String("dir", c.dir),
		zap.String("scan_mode", c.scanMode),
	)
	return nil
}

func (c *VerifyCommand) Run(ctx context.Context) error {
	cfg, err := loadAppConfig(c.configPath)
	if err != nil {
		return err
	}
	progress := newProgressPrinter(cfg.ProgressIntervalMS)

	_, loaded, err := buildLibrary(ctx, cfg, c.dir, c.hint, c.scanMode, false, progress)
	if err != nil {
		return err
	}
	printWarnings(loaded.Warnings)

	result, err := verify.Library(ctx, loaded.Library, verify.Options{Progress: progress})
	if err != nil {
		return err
	}

	fmt.Println(renderTable(
		[]string{"counter", "value"},
		[][]string{
			{"assets checked", fmt.Sprintf("%d", result.AssetsChecked)},
			{"assets present", fmt.Sprintf("%d", result.Exists)},
			{"assets missing", fmt.Sprintf("%d", result.Missing)},
			{"assets recovered", fmt.Sprintf("%d", result.Recovered)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	printWarnings(result.Warnings)
	return nil
}

func (c *VerifyCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("verify", func() IRunner { return NewVerifyCommand() })
}
