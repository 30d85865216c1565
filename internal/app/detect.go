package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/detect"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// DetectCommand classifies a library folder without loading any metadata.
type DetectCommand struct {
	dir      string
	hint     string
	scanMode string
	scores   bool
}

func NewDetectCommand() *DetectCommand { return &DetectCommand{} }

func (c *DetectCommand) Name() string { return "detect" }

func (c *DetectCommand) Desc() string {
	return "检测 ROM 目录所属的前端生态并列出其平台"
}

func (c *DetectCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "待检测的 ROM 根目录")
	f.StringVar(&c.hint, "hint", "", "生态提示，命中时跳过完整扫描")
	f.StringVar(&c.scanMode, "scan-mode", "", "扫描模式: meta/deep/force/single_rom_folder")
	f.BoolVar(&c.scores, "scores", false, "输出每个生态的得分明细")
}

func (c *DetectCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.dir) == "" {
		return errors.New("detect requires --dir")
	}
	logutil.GetLogger(ctx).Info("starting detect",
		zap.String("dir", c.dir),
		zap.String("hint", c.hint),
		zap.String("scan_mode", c.scanMode),
	)
	return nil
}

func (c *DetectCommand) Run(ctx context.Context) error {
	detector := detect.New()
	result, err := detector.Detect(ctx, c.dir, detect.Options{
		Hint:     c.hint,
		ScanMode: c.scanMode,
		Progress: newProgressPrinter(0),
	})
	if err != nil {
		return fmt.Errorf("detect library %s: %w", c.dir, err)
	}

	fmt.Println(renderTable(
		[]string{"ecosystem", "family", "confidence", "systems"},
		[][]string{{
			result.Ecosystem,
			result.Family,
			fmt.Sprintf("%.2f", result.Confidence),
			fmt.Sprintf("%d", len(result.Systems)),
		}},
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))

	if len(result.Systems) > 0 {
		rows := make([][]string, 0, len(result.Systems))
		for _, system := range result.Systems {
			rows = append(rows, []string{system.SystemID, system.DisplayName, string(system.MetadataSource)})
		}
		fmt.Println(renderTable(
			[]string{"system", "display name", "metadata source"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}

	if c.scores {
		names := make([]string, 0, len(result.Scores))
		for name := range result.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, fmt.Sprintf("%.1f", result.Scores[name])})
		}
		fmt.Println(renderTable(
			[]string{"ecosystem", "score"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}

	printWarnings(result.Warnings)
	return nil
}

func (c *DetectCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("detect", func() IRunner { return NewDetectCommand() })
}
