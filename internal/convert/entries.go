package convert

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xxxsen/retrosync/internal/metadata"
	"github.com/xxxsen/retrosync/internal/model"
)

const (
	esTimestampLayout   = "20060102T150405"
	esDateLayout        = "20060102T000000"
	launchboxTimeLayout = "2006-01-02T15:04:05"
	launchboxDateLayout = "2006-01-02"
)

// dotRelative rewrites path relative to baseDir in gamelist convention:
// forward slashes with an explicit "./" prefix.
func dotRelative(baseDir, path string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "./") || strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}

// rootRelativeOrAbs rewrites path relative to root when it sits inside it,
// otherwise keeps it absolute. LaunchBox resolves relative paths against its
// install root.
func rootRelativeOrAbs(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// gamelistEntryFor builds the <game> node for one converted game. Asset
// paths in assetDests are the final copied destinations keyed by slot.
func gamelistEntryFor(game *model.Game, romDest string, assetDests map[string]string, metadataDir string) metadata.GamelistEntry {
	entry := metadata.GamelistEntry{
		Path:        dotRelative(metadataDir, romDest),
		Name:        game.Title,
		SortName:    game.SortTitle,
		Description: game.Description,
		Developer:   game.Developer,
		Publisher:   game.Publisher,
		Lang:        strings.Join(game.Languages, ", "),
		Region:      strings.Join(game.Regions, ", "),
		Players:     game.Players,
		Favorite:    strconv.FormatBool(game.Favorite),
		Hidden:      strconv.FormatBool(game.Hidden),
	}
	if len(game.Genres) > 0 {
		entry.Genres = []string{strings.Join(game.Genres, ", ")}
	}
	if game.PlayCount > 0 {
		entry.PlayCount = strconv.Itoa(game.PlayCount)
	}
	if !game.LastPlayed.IsZero() {
		entry.LastPlayed = game.LastPlayed.Format(esTimestampLayout)
	}
	if game.Rating > 0 {
		entry.Rating = fmt.Sprintf("%.2f", game.Rating)
	}
	if !game.ReleaseDate.IsZero() {
		entry.ReleaseDate = game.ReleaseDate.Format(esDateLayout)
	}
	rel := func(slot string) string {
		if dest := assetDests[slot]; dest != "" {
			return dotRelative(metadataDir, dest)
		}
		return ""
	}
	entry.Image = rel(SlotImage)
	entry.Thumbnail = rel(SlotThumbnail)
	entry.Marquee = rel(SlotMarquee)
	entry.Video = rel(SlotVideo)
	entry.Manual = rel(SlotManual)
	entry.Bezel = rel(SlotBezel)
	entry.Fanart = rel(SlotFanart)
	return entry
}

// launchboxEntryFor builds the <Game> node for one converted game.
func launchboxEntryFor(game *model.Game, romDest string, assetDests map[string]string, outputRoot, platform string) metadata.LaunchBoxGame {
	entry := metadata.LaunchBoxGame{
		Title:           game.Title,
		SortTitle:       game.SortTitle,
		ApplicationPath: rootRelativeOrAbs(outputRoot, romDest),
		Platform:        platform,
		Developer:       game.Developer,
		Publisher:       game.Publisher,
		Genre:           strings.Join(game.Genres, "; "),
		Language:        strings.Join(game.Languages, ", "),
		Region:          strings.Join(game.Regions, ", "),
		Favorite:        strconv.FormatBool(game.Favorite),
		Notes:           game.Description,
	}
	if game.PlayCount > 0 {
		entry.PlayCount = strconv.Itoa(game.PlayCount)
	}
	if !game.LastPlayed.IsZero() {
		entry.LastPlayedDate = game.LastPlayed.Format(launchboxTimeLayout)
	}
	if game.Rating > 0 {
		rating := fmt.Sprintf("%.2f", game.Rating)
		entry.CommunityStarRating = rating
		entry.StarRating = rating
	}
	if !game.ReleaseDate.IsZero() {
		entry.ReleaseDate = game.ReleaseDate.Format(launchboxDateLayout)
	}
	rel := func(slot string) string {
		if dest := assetDests[slot]; dest != "" {
			return rootRelativeOrAbs(outputRoot, dest)
		}
		return ""
	}
	entry.FrontImagePath = rel(SlotImage)
	entry.ScreenshotImagePath = rel(SlotThumbnail)
	entry.LogoImagePath = rel(SlotMarquee)
	entry.BackgroundImagePath = rel(SlotFanart)
	entry.VideoPath = rel(SlotVideo)
	entry.ManualPath = rel(SlotManual)
	return entry
}

// identityKey canonicalizes a metadata path field so the same ROM written
// with different separators or an explicit dot prefix merges onto one entry.
func identityKey(path string) string {
	key := strings.ReplaceAll(path, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	return strings.ToLower(key)
}
