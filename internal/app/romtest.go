package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/retrosync/internal/romcheck"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// RomTestCommand validates ROM archives against a checksum catalog.
type RomTestCommand struct {
	datPath  string
	filePath string
	romDir   string
	biosDir  string
	exts     []string
}

func NewRomTestCommand() *RomTestCommand { return &RomTestCommand{} }

func (c *RomTestCommand) Name() string { return "rom-test" }

func (c *RomTestCommand) Desc() string {
	return "校验压缩包中的 ROM 是否符合 DAT 目录"
}

func (c *RomTestCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.datPath, "dat", "", "DAT 目录文件路径")
	f.StringVar(&c.filePath, "file", "", "待校验的单个压缩包路径")
	f.StringVar(&c.romDir, "dir", "", "待校验的 ROM 目录，与 --file 二选一")
	f.StringVar(&c.biosDir, "bios-dir", "", "BIOS 压缩包所在目录")
	f.StringSliceVar(&c.exts, "ext", nil, "目录模式下只检查这些扩展名，默认 zip/7z")
}

func (c *RomTestCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.datPath) == "" {
		return errors.New("rom-test requires --dat")
	}
	hasFile := strings.TrimSpace(c.filePath) != ""
	hasDir := strings.TrimSpace(c.romDir) != ""
	if hasFile == hasDir {
		return errors.New("rom-test requires exactly one of --file or --dir")
	}
	logutil.GetLogger(ctx).Info("starting rom-test",
		zap.String("dat", c.datPath),
		zap.String("file", c.filePath),
		zap.String("dir", c.romDir),
	)
	return nil
}

func (c *RomTestCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	checker, err := romcheck.NewCheckerFromFile(c.datPath)
	if err != nil {
		return err
	}

	var archives []*romcheck.ArchiveReport
	if c.filePath != "" {
		report, err := checker.CheckFile(c.filePath, c.biosDir)
		if err != nil {
			return err
		}
		archives = append(archives, report)
	} else {
		report, err := checker.CheckDir(ctx, c.romDir, c.biosDir, c.exts)
		if err != nil {
			return err
		}
		archives = report.Archives
	}

	incomplete := 0
	rows := make([][]string, 0, len(archives))
	for _, archive := range archives {
		status := "OK"
		if !archive.Complete() {
			status = "INCOMPLETE"
			incomplete++
		}
		rows = append(rows, []string{
			archive.SetName,
			status,
			fmt.Sprintf("%d", len(archive.Exact)),
			fmt.Sprintf("%d", len(archive.Partial)),
			fmt.Sprintf("%d", len(archive.Missing)),
		})
	}
	fmt.Println(renderTable(
		[]string{"set", "status", "exact", "partial", "missing"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	for _, archive := range archives {
		for _, check := range archive.Partial {
			fmt.Printf("%s: partial: %s\n", archive.SetName, check.Message)
		}
		for _, check := range archive.Missing {
			fmt.Printf("%s: missing: %s\n", archive.SetName, check.Message)
		}
		for _, parent := range archive.Parents {
			if !parent.Exists {
				fmt.Printf("%s: parent set %s not found next to the archive\n", archive.SetName, parent.Name)
			}
		}
	}

	logger.Info("rom-test completed",
		zap.Int("archives", len(archives)),
		zap.Int("incomplete", incomplete),
	)
	if incomplete > 0 {
		return fmt.Errorf("rom check found %d incomplete archive(s)", incomplete)
	}
	return nil
}

func (c *RomTestCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("rom-test", func() IRunner { return NewRomTestCommand() })
}
