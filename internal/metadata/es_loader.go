package metadata

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/ecosys"
	"github.com/xxxsen/retrosync/internal/model"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultAssetIndexBudget = 20000

// ESGamelistLoader loads the EmulationStation family: gamelist.xml metadata
// plus, in deep mode, a filesystem reconciliation pass that picks up ROMs
// and media the metadata never mentions.
type ESGamelistLoader struct{}

// NewESGamelistLoader builds the loader.
func NewESGamelistLoader() *ESGamelistLoader {
	return &ESGamelistLoader{}
}

func (l *ESGamelistLoader) Name() string {
	return "es_gamelist"
}

func (l *ESGamelistLoader) Load(ctx context.Context, input *LoaderInput) (*LoaderResult, error) {
	system := input.System
	mode := strings.ToLower(strings.TrimSpace(input.ScanMode))
	if mode == "" {
		mode = ScanDeep
	}
	metaOnly := mode == ScanMeta || mode == ScanQuick
	pureScan := mode == ScanForce
	deepVerify := mode == ScanDeep

	result := &LoaderResult{}
	var games []*model.Game
	if !pureScan {
		gamelistPath := resolveGamelistPath(system)
		switch {
		case gamelistPath == "" || !fileExists(gamelistPath):
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("No gamelist.xml found for system '%s'; falling back to file scan.", system.SystemID))
		default:
			doc, err := ParseGamelistFile(gamelistPath)
			if err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Failed to parse gamelist for system '%s': %v", system.SystemID, err))
			} else {
				metadataDir := filepath.Dir(gamelistPath)
				for i := range doc.Games {
					if input.Cancel.Cancelled() {
						return nil, model.ErrCancelled
					}
					entry := &doc.Games[i]
					if entry.Path == "" {
						continue
					}
					games = append(games, gameFromGamelistEntry(system, entry, metadataDir, deepVerify))
				}
			}
		}
	}

	if metaOnly {
		sortGamesByRomName(games)
		result.Games = games
		return result, nil
	}

	scannedRoms, assetIndex, err := l.scanFiles(ctx, input)
	if err != nil {
		return nil, err
	}

	// Metadata entries win; scanned-only ROMs become bare games.
	known := make(map[string]*model.Game, len(games))
	for _, game := range games {
		known[strings.ToLower(game.RomPath)] = game
	}
	for _, romPath := range scannedRoms {
		key := strings.ToLower(romPath)
		if _, ok := known[key]; ok {
			continue
		}
		game := &model.Game{
			RomPath:  romPath,
			SystemID: system.SystemID,
			Title:    stemOf(romPath),
		}
		known[key] = game
		games = append(games, game)
	}

	for _, game := range games {
		candidates := assetIndex[normalizeAssetStem(game.RomBasename())]
		if len(candidates) == 0 {
			continue
		}
		knownPaths := make(map[string]struct{}, len(game.Assets))
		for _, asset := range game.Assets {
			knownPaths[strings.ToLower(asset.FilePath)] = struct{}{}
		}
		for _, candidate := range candidates {
			if _, ok := knownPaths[strings.ToLower(candidate.path)]; ok {
				continue
			}
			knownPaths[strings.ToLower(candidate.path)] = struct{}{}
			game.Assets = append(game.Assets, model.Asset{
				Type:         candidate.assetType,
				FilePath:     candidate.path,
				Format:       assetFormat(candidate.path),
				MatchKey:     "filename_stem",
				Verification: model.VerifyExists,
			})
		}
	}

	sortGamesByRomName(games)
	result.Games = games
	return result, nil
}

type assetCandidate struct {
	path      string
	assetType model.AssetType
}

func (l *ESGamelistLoader) scanFiles(ctx context.Context, input *LoaderInput) ([]string, map[string][]assetCandidate, error) {
	logger := logutil.GetLogger(ctx)
	system := input.System
	romRoots := esRomRoots(input)
	assetRoots := esAssetRoots(input, romRoots)

	var roms []string
	seenRoms := make(map[string]struct{})
	for _, root := range romRoots {
		err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if input.Cancel.Cancelled() {
				return model.ErrCancelled
			}
			if entry.IsDir() {
				if ecosys.IsAssetDirectory(strings.ToLower(entry.Name())) {
					return fs.SkipDir
				}
				return nil
			}
			if !ecosys.IsRomExtension(strings.ToLower(filepath.Ext(entry.Name()))) {
				return nil
			}
			key := strings.ToLower(p)
			if _, ok := seenRoms[key]; ok {
				return nil
			}
			seenRoms[key] = struct{}{}
			roms = append(roms, p)
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	budget := input.AssetIndexBudget
	if budget <= 0 {
		budget = defaultAssetIndexBudget
	}
	visited := 0
	assetIndex := make(map[string][]assetCandidate)
	seenAssets := make(map[string]struct{})
	for _, root := range assetRoots {
		rootIsAssetDir := ecosys.IsAssetDirectory(strings.ToLower(filepath.Base(root)))
		err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if input.Cancel.Cancelled() {
				return model.ErrCancelled
			}
			if entry.IsDir() {
				return nil
			}
			visited++
			if visited > budget {
				return fs.SkipAll
			}
			if visited%500 == 0 {
				input.Progress.Emit("scan", fmt.Sprintf("indexed %d media files under %s", visited, system.SystemID))
			}
			if !ecosys.IsAssetExtension(strings.ToLower(filepath.Ext(entry.Name()))) {
				return nil
			}
			if !rootIsAssetDir && !underAssetDirectory(root, p) {
				return nil
			}
			key := strings.ToLower(p)
			if _, ok := seenAssets[key]; ok {
				return nil
			}
			seenAssets[key] = struct{}{}
			stem := normalizeAssetStem(stemOf(p))
			assetIndex[stem] = append(assetIndex[stem], assetCandidate{
				path:      p,
				assetType: inferAssetType(p),
			})
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}
	logger.Debug("file scan done",
		zap.String("system", system.SystemID),
		zap.Int("roms", len(roms)),
		zap.Int("media_files", visited))
	sort.Strings(roms)
	return roms, assetIndex, nil
}

func esRomRoots(input *LoaderInput) []string {
	system := input.System
	roots := []string{system.RomRoot}
	if ecosys.FamilyFor(system.DetectedEcosystem) == "es_de_family" {
		roots = append(roots,
			filepath.Join(input.SourceRoot, "roms", system.DisplayName),
			filepath.Join(input.SourceRoot, "roms", system.SystemID),
			filepath.Join(input.SourceRoot, "Roms", system.DisplayName),
			filepath.Join(input.SourceRoot, "Roms", system.SystemID),
		)
	}
	return dedupePaths(roots)
}

func esAssetRoots(input *LoaderInput, romRoots []string) []string {
	system := input.System
	roots := append([]string{}, romRoots...)
	switch {
	case ecosys.FamilyFor(system.DetectedEcosystem) == "es_de_family":
		roots = append(roots,
			filepath.Join(input.SourceRoot, "ES-DE", "downloaded_media", system.DisplayName),
			filepath.Join(input.SourceRoot, "ES-DE", "downloaded_media", system.SystemID),
		)
	case system.DetectedEcosystem == "retroarch":
		roots = append(roots,
			filepath.Join(input.SourceRoot, "thumbnails", system.DisplayName),
			filepath.Join(input.SourceRoot, "thumbnails", system.SystemID),
		)
	}
	return dedupePaths(roots)
}

func gameFromGamelistEntry(system *model.System, entry *GamelistEntry, metadataDir string, deepVerify bool) *model.Game {
	romPath := resolveMetadataPath(entry.Path, system.RomRoot, metadataDir)
	title := entry.Name
	if title == "" {
		title = stemOf(romPath)
	}
	game := &model.Game{
		RomPath:     romPath,
		SystemID:    system.SystemID,
		Title:       title,
		SortTitle:   entry.SortName,
		Regions:     splitListValue(entry.Region),
		Languages:   splitListValue(entry.Lang),
		ReleaseDate: parseESDate(entry.ReleaseDate),
		Genres:      splitGenres(entry.Genres),
		Developer:   entry.Developer,
		Publisher:   entry.Publisher,
		Rating:      parseFloatValue(entry.Rating),
		Favorite:    parseBoolish(entry.Favorite),
		Hidden:      parseBoolish(entry.Hidden),
		Players:     entry.Players,
		PlayCount:   parseIntValue(entry.PlayCount),
		LastPlayed:  parseESTimestamp(entry.LastPlayed),
		Description: entry.Description,
	}
	for _, tagged := range []struct {
		tag   string
		value string
	}{
		{"image", entry.Image},
		{"thumbnail", entry.Thumbnail},
		{"fanart", entry.Fanart},
		{"marquee", entry.Marquee},
		{"video", entry.Video},
		{"manual", entry.Manual},
		{"bezel", entry.Bezel},
	} {
		if tagged.value == "" {
			continue
		}
		assetPath := resolveMetadataPath(tagged.value, system.RomRoot, metadataDir)
		verification := model.VerifyUnchecked
		if deepVerify {
			verification = verifyAssetPath(assetPath)
		}
		game.Assets = append(game.Assets, model.Asset{
			Type:         ecosys.ESFamilyTagToAssetType[tagged.tag],
			FilePath:     assetPath,
			Format:       assetFormat(assetPath),
			MatchKey:     "explicit_path",
			Verification: verification,
		})
	}
	return game
}

func splitGenres(values []string) []string {
	var genres []string
	for _, value := range values {
		genres = append(genres, splitListValue(value)...)
	}
	return genres
}

// resolveGamelistPath picks the metadata file for a system: a declared path
// named gamelist.xml first, then any declared path, then the ROM root.
func resolveGamelistPath(system *model.System) string {
	for _, p := range system.MetadataPaths {
		if strings.EqualFold(filepath.Base(p), "gamelist.xml") {
			return p
		}
	}
	if len(system.MetadataPaths) > 0 {
		return system.MetadataPaths[0]
	}
	if system.RomRoot == "" {
		return ""
	}
	return filepath.Join(system.RomRoot, "gamelist.xml")
}

func underAssetDirectory(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, part := range parts[:max(0, len(parts)-1)] {
		if ecosys.IsAssetDirectory(strings.ToLower(part)) {
			return true
		}
	}
	return false
}

func sortGamesByRomName(games []*model.Game) {
	sort.Slice(games, func(i, j int) bool {
		return strings.ToLower(games[i].RomFilename()) < strings.ToLower(games[j].RomFilename())
	})
}

func dedupePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var deduped []string
	for _, p := range paths {
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, p)
	}
	return deduped
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
