package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/retrosync/internal/model"
)

// LaunchBoxXMLLoader loads one platform from a LaunchBox Data/Platforms
// XML file.
type LaunchBoxXMLLoader struct{}

// NewLaunchBoxXMLLoader builds the loader.
func NewLaunchBoxXMLLoader() *LaunchBoxXMLLoader {
	return &LaunchBoxXMLLoader{}
}

func (l *LaunchBoxXMLLoader) Name() string {
	return "launchbox_xml"
}

func (l *LaunchBoxXMLLoader) Load(ctx context.Context, input *LoaderInput) (*LoaderResult, error) {
	system := input.System
	result := &LoaderResult{}
	if len(system.MetadataPaths) == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("No platform XML known for system '%s'.", system.SystemID))
		return result, nil
	}
	platformPath := system.MetadataPaths[0]
	root := ResolveLaunchBoxRoot(system.RomRoot)
	if root == "" {
		root = system.RomRoot
	}

	entries, err := ParseLaunchBoxPlatformFile(platformPath)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Failed to parse platform XML for system '%s': %v", system.SystemID, err))
		return result, nil
	}

	var games []*model.Game
	for i := range entries {
		if input.Cancel.Cancelled() {
			return nil, model.ErrCancelled
		}
		if (i+1)%500 == 0 {
			input.Progress.Emit("load", fmt.Sprintf("loaded %d entries from %s", i+1, filepath.Base(platformPath)))
		}
		entry := &entries[i]
		if entry.ApplicationPath == "" {
			continue
		}
		games = append(games, gameFromLaunchBoxEntry(system, entry, root))
	}
	sortGamesByRomName(games)
	result.Games = games
	return result, nil
}

func gameFromLaunchBoxEntry(system *model.System, entry *LaunchBoxGame, root string) *model.Game {
	romPath := resolveLaunchBoxPath(entry.ApplicationPath, root)
	title := entry.Title
	if title == "" {
		title = stemOf(romPath)
	}
	rating := parseFloatValue(entry.CommunityStarRating)
	if rating == 0 {
		rating = parseFloatValue(entry.StarRating)
	}
	playCount := parseIntValue(entry.PlayCount)
	if playCount == 0 {
		playCount = parseIntValue(entry.PlayCounter)
	}
	lastPlayed := parseLaunchBoxDate(entry.LastPlayedDate)
	if lastPlayed.IsZero() {
		lastPlayed = parseLaunchBoxDate(entry.LastPlayed)
	}
	game := &model.Game{
		RomPath:     romPath,
		SystemID:    system.SystemID,
		Title:       title,
		SortTitle:   entry.SortTitle,
		Regions:     splitListValue(entry.Region),
		Languages:   splitListValue(entry.Language),
		ReleaseDate: parseLaunchBoxDate(entry.ReleaseDate),
		Genres:      splitListValue(entry.Genre),
		Developer:   entry.Developer,
		Publisher:   entry.Publisher,
		Rating:      rating,
		Favorite:    parseBoolish(entry.Favorite),
		Players:     "",
		PlayCount:   playCount,
		LastPlayed:  lastPlayed,
		Description: entry.Notes,
	}
	for _, tagged := range []struct {
		assetType model.AssetType
		value     string
	}{
		{model.AssetManual, entry.ManualPath},
		{model.AssetBoxFront, entry.FrontImagePath},
		{model.AssetFanart, entry.BackgroundImagePath},
		{model.AssetScreenshotGameplay, entry.ScreenshotImagePath},
		{model.AssetVideo, entry.VideoPath},
		{model.AssetLogo, entry.LogoImagePath},
	} {
		if tagged.value == "" {
			continue
		}
		assetPath := resolveLaunchBoxPath(tagged.value, root)
		game.Assets = append(game.Assets, model.Asset{
			Type:         tagged.assetType,
			FilePath:     assetPath,
			Format:       assetFormat(assetPath),
			MatchKey:     "explicit_path",
			Verification: model.VerifyUnchecked,
		})
	}
	return game
}

// ResolveLaunchBoxRoot locates the LaunchBox install folder for any of the
// accepted selection shapes: the parent folder, the install root itself, or
// its Data subfolder.
func ResolveLaunchBoxRoot(selected string) string {
	if pathIsDir(filepath.Join(selected, "Data", "Platforms")) {
		return selected
	}
	if pathIsDir(filepath.Join(selected, "LaunchBox", "Data", "Platforms")) {
		return filepath.Join(selected, "LaunchBox")
	}
	if strings.EqualFold(filepath.Base(selected), "data") && pathIsDir(filepath.Join(selected, "Platforms")) {
		return filepath.Dir(selected)
	}
	return ""
}

// resolveLaunchBoxPath interprets a path from a platform XML file. LaunchBox
// writes install-relative paths, sometimes with a leading separator or a
// leading "LaunchBox" component, and keeps drive-absolute paths as-is.
func resolveLaunchBoxPath(value, root string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	unified := strings.ReplaceAll(trimmed, "\\", "/")
	if isDriveAbsolute(trimmed) {
		return filepath.FromSlash(unified)
	}
	unified = strings.TrimLeft(unified, "/")
	parts := strings.Split(unified, "/")
	if len(parts) > 1 && strings.EqualFold(parts[0], "launchbox") {
		unified = strings.Join(parts[1:], "/")
	}
	return filepath.Join(root, filepath.FromSlash(unified))
}

func isDriveAbsolute(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		(p[0] >= 'a' && p[0] <= 'z' || p[0] >= 'A' && p[0] <= 'Z')
}

func pathIsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// LaunchBoxDatabaseLoader is the placeholder for LaunchBox installs that
// only carry the SQLite database.
type LaunchBoxDatabaseLoader struct{}

// NewLaunchBoxDatabaseLoader builds the placeholder loader.
func NewLaunchBoxDatabaseLoader() *LaunchBoxDatabaseLoader {
	return &LaunchBoxDatabaseLoader{}
}

func (l *LaunchBoxDatabaseLoader) Name() string {
	return "launchbox_sqlite"
}

func (l *LaunchBoxDatabaseLoader) Load(ctx context.Context, input *LoaderInput) (*LoaderResult, error) {
	return &LoaderResult{
		Warnings: []string{"LaunchBox SQLite loading is not implemented yet."},
	}, nil
}
