package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/convert"
	"github.com/xxxsen/retrosync/internal/mapping"
	"github.com/xxxsen/retrosync/internal/model"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// ConvertCommand exports a detected library into another frontend's layout.
type ConvertCommand struct {
	dir          string
	out          string
	target       string
	systems      []string
	mapOverrides []string
	onConflict   string

	dryRun        bool
	overwrite     bool
	noMerge       bool
	noAutoRename  bool
	exportDat     bool
	skipRoms      bool
	hint          string
	scanMode      string
	configPath    string
	hashFallback  bool
	skipMapSaving bool
}

func NewConvertCommand() *ConvertCommand { return &ConvertCommand{} }

func (c *ConvertCommand) Name() string { return "convert" }

func (c *ConvertCommand) Desc() string {
	return "将 ROM 库转换为目标前端的目录布局与元数据"
}

func (c *ConvertCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "源 ROM 根目录")
	f.StringVar(&c.out, "out", "", "输出根目录")
	f.StringVar(&c.target, "target", "", "目标生态: batocera/es_classic/es_de/retrobat/launchbox")
	f.StringSliceVar(&c.systems, "systems", nil, "仅转换这些平台，默认全部")
	f.StringSliceVar(&c.mapOverrides, "map", nil, "平台映射覆盖，格式 src=dst，可重复")
	f.StringVar(&c.onConflict, "on-conflict", convert.DecisionKeepNew, "目标已有同名条目时的处理: keep_new/keep_existing")
	f.BoolVar(&c.dryRun, "dry-run", false, "只统计不写盘")
	f.BoolVar(&c.overwrite, "overwrite", false, "覆盖已存在的目标文件")
	f.BoolVar(&c.noMerge, "no-merge", false, "不合并目标已有的元数据文件")
	f.BoolVar(&c.noAutoRename, "no-auto-rename", false, "禁用冲突自动改名，冲突文件将被跳过")
	f.BoolVar(&c.exportDat, "export-dat", false, "为每个平台导出校验目录 DAT")
	f.BoolVar(&c.skipRoms, "skip-roms", false, "只写元数据与媒体，不复制 ROM")
	f.BoolVar(&c.skipMapSaving, "no-save-mapping", false, "不把本次平台映射写回映射文件")
	f.StringVar(&c.hint, "hint", "", "源生态提示")
	f.StringVar(&c.scanMode, "scan-mode", "", "扫描模式: meta/deep/force/single_rom_folder")
	f.StringVar(&c.configPath, "config", "", "配置文件路径，默认 ./config.json")
	f.BoolVar(&c.hashFallback, "hash-fallback", false, "名称未命中时对 ROM 计算哈希后再查目录")
}

func (c *ConvertCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.dir) == "" {
		return errors.New("convert requires --dir")
	}
	if strings.TrimSpace(c.out) == "" {
		return errors.New("convert requires --out")
	}
	if strings.TrimSpace(c.target) == "" {
		return errors.New("convert requires --target")
	}
	if c.onConflict != convert.DecisionKeepNew && c.onConflict != convert.DecisionKeepExisting {
		return fmt.Errorf("unknown --on-conflict value %q", c.onConflict)
	}
	for _, pair := range c.mapOverrides {
		if !strings.Contains(pair, "=") {
			return fmt.Errorf("invalid --map entry %q, want src=dst", pair)
		}
	}
	logutil.GetLogger(ctx).Info("starting convert",
		zap.String("dir", c.dir),
		zap.String("out", c.out),
		zap.String("target", c.target),
		zap.Bool("dry_run", c.dryRun),
	)
	return nil
}

func (c *ConvertCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	cfg, err := loadAppConfig(c.configPath)
	if err != nil {
		return err
	}
	progress := newProgressPrinter(cfg.ProgressIntervalMS)

	_, loaded, err := buildLibrary(ctx, cfg, c.dir, c.hint, c.scanMode, c.hashFallback, progress)
	if err != nil {
		return err
	}
	library := loaded.Library
	printWarnings(loaded.Warnings)

	req := convert.NewRequest(library, c.target, c.out)
	req.Selections = c.selectSystems(library)
	req.DryRun = c.dryRun
	req.OverwriteExisting = c.overwrite
	req.MergeExistingMetadata = !c.noMerge
	req.AllowAutoRename = !c.noAutoRename
	req.ExportDat = c.exportDat
	req.CopyRoms = !c.skipRoms
	req.Progress = progress

	systemMapping, err := c.resolveMapping(ctx, req)
	if err != nil {
		return err
	}
	req.SystemMapping = systemMapping

	engine := convert.NewEngine()
	conflicts, err := engine.PreviewConflicts(req)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		rows := make([][]string, 0, len(conflicts))
		decisions := make(map[string]string, len(conflicts))
		for _, conflict := range conflicts {
			decisions[conflict.IdentityKey] = c.onConflict
			rows = append(rows, []string{
				conflict.SystemID,
				conflict.IdentityKey,
				conflict.ExistingTitle,
				conflict.IncomingTitle,
				c.onConflict,
			})
		}
		fmt.Println(renderTable(
			[]string{"system", "identity key", "existing", "incoming", "decision"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
		req.ConflictDecisions = decisions
		logger.Info("duplicate entries in destination metadata",
			zap.Int("conflicts", len(conflicts)),
			zap.String("decision", c.onConflict),
		)
	}

	result, err := engine.Run(ctx, req)
	if err != nil {
		return err
	}

	for _, check := range result.PreflightChecks {
		fmt.Println(check)
	}
	fmt.Println(renderTable(
		[]string{"counter", "value"},
		[][]string{
			{"systems processed", fmt.Sprintf("%d", result.SystemsProcessed)},
			{"games processed", fmt.Sprintf("%d", result.GamesProcessed)},
			{"roms copied", fmt.Sprintf("%d", result.RomsCopied)},
			{"assets copied", fmt.Sprintf("%d", result.AssetsCopied)},
			{"assets missing, skipped", fmt.Sprintf("%d", result.AssetsMissingSkipped)},
			{"files skipped", fmt.Sprintf("%d", result.FilesSkipped)},
			{"files renamed", fmt.Sprintf("%d", result.FilesRenamed)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	if result.DryRun {
		fmt.Println("Dry run: nothing was written.")
	}
	printWarnings(result.Warnings)
	return nil
}

func (c *ConvertCommand) PostRun(ctx context.Context) error { return nil }

// selectSystems narrows the run to --systems when given. Unknown ids become
// empty selections, which the engine reports in preflight.
func (c *ConvertCommand) selectSystems(library *model.Library) map[string][]*model.Game {
	if len(c.systems) == 0 {
		return nil
	}
	selection := make(map[string][]*model.Game, len(c.systems))
	for _, id := range c.systems {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		selection[id] = library.GamesBySystem[id]
	}
	return selection
}

// resolveMapping combines the persisted mapping, destination discovery and
// --map overrides into the system mapping used for path planning.
func (c *ConvertCommand) resolveMapping(ctx context.Context, req *convert.Request) (map[string]string, error) {
	logger := logutil.GetLogger(ctx)

	store := mapping.NewStore(c.out)
	prior, err := store.Load(c.target)
	if err != nil {
		return nil, err
	}
	discovered, err := mapping.Discover(c.out, c.target)
	if err != nil {
		return nil, err
	}

	systemIDs := make([]string, 0, len(req.Library.Systems))
	if req.Selections != nil {
		for id := range req.Selections {
			systemIDs = append(systemIDs, id)
		}
		sort.Strings(systemIDs)
	} else {
		systemIDs = sortedSystemIDs(req.Library)
	}

	overrides := make(map[string]string, len(c.mapOverrides))
	for _, pair := range c.mapOverrides {
		parts := strings.SplitN(pair, "=", 2)
		overrides[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	result := make(map[string]string)
	rows := make([][]string, 0, len(systemIDs))
	for _, suggestion := range mapping.Suggest(systemIDs, prior, discovered) {
		dest := suggestion.DestName
		origin := suggestion.Origin
		if value, ok := overrides[suggestion.SourceID]; ok {
			dest = value
			origin = "override"
		}
		if dest != "" {
			result[suggestion.SourceID] = dest
		}
		rows = append(rows, []string{suggestion.SourceID, dest, origin})
	}
	if len(rows) > 0 {
		fmt.Println(renderTable(
			[]string{"source system", "destination", "origin"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}

	if !c.dryRun && !c.skipMapSaving && len(result) > 0 {
		merged := make(map[string]string, len(prior)+len(result))
		for k, v := range prior {
			merged[k] = v
		}
		for k, v := range result {
			merged[k] = v
		}
		if err := store.Save(c.target, merged); err != nil {
			return nil, fmt.Errorf("save system mapping: %w", err)
		}
		logger.Info("system mapping saved",
			zap.String("path", mapping.StorePath(c.out)),
			zap.Int("entries", len(merged)),
		)
	}
	return result, nil
}

func init() {
	RegisterRunner("convert", func() IRunner { return NewConvertCommand() })
}
