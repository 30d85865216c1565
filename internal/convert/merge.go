package convert

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xxxsen/retrosync/internal/metadata"
)

// Conflict decisions accepted in Request.ConflictDecisions. Unlisted keys
// default to keep_new.
const (
	DecisionKeepNew      = "keep_new"
	DecisionKeepExisting = "keep_existing"
)

// existingGamelistEntries loads the destination gamelist if present. A read
// failure is reported as a warning so a corrupt file never blocks the run;
// the file is then rebuilt from scratch.
func existingGamelistEntries(path string, mergeExisting bool) ([]metadata.GamelistEntry, metadata.ProviderInfo, []string) {
	if !mergeExisting {
		return nil, metadata.ProviderInfo{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, metadata.ProviderInfo{}, nil
	}
	doc, err := metadata.ParseGamelistFile(path)
	if err != nil {
		warning := fmt.Sprintf("Failed to read existing metadata at '%s': %v; it will be overwritten.", path, err)
		return nil, metadata.ProviderInfo{}, []string{warning}
	}
	return doc.Games, doc.Provider, nil
}

// mergeGamelistEntries upserts incoming entries over the existing ones by
// identity key and returns a deterministically ordered list.
func mergeGamelistEntries(existing, incoming []metadata.GamelistEntry) []metadata.GamelistEntry {
	byKey := make(map[string]metadata.GamelistEntry, len(existing)+len(incoming))
	for _, entry := range existing {
		byKey[identityKey(entry.Path)] = entry
	}
	for _, entry := range incoming {
		byKey[identityKey(entry.Path)] = entry
	}
	merged := make([]metadata.GamelistEntry, 0, len(byKey))
	for _, entry := range byKey {
		merged = append(merged, entry)
	}
	sort.Slice(merged, func(i, j int) bool {
		ki, kj := identityKey(merged[i].Path), identityKey(merged[j].Path)
		if ki != kj {
			return ki < kj
		}
		return strings.ToLower(merged[i].Name) < strings.ToLower(merged[j].Name)
	})
	return merged
}

// existingLaunchBoxGames mirrors existingGamelistEntries for platform XML.
func existingLaunchBoxGames(path string, mergeExisting bool) ([]metadata.LaunchBoxGame, []string) {
	if !mergeExisting {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	games, err := metadata.ParseLaunchBoxPlatformFile(path)
	if err != nil {
		warning := fmt.Sprintf("Failed to read existing metadata at '%s': %v; it will be overwritten.", path, err)
		return nil, []string{warning}
	}
	return games, nil
}

func mergeLaunchBoxGames(existing, incoming []metadata.LaunchBoxGame) []metadata.LaunchBoxGame {
	byKey := make(map[string]metadata.LaunchBoxGame, len(existing)+len(incoming))
	for _, game := range existing {
		byKey[identityKey(game.ApplicationPath)] = game
	}
	for _, game := range incoming {
		byKey[identityKey(game.ApplicationPath)] = game
	}
	merged := make([]metadata.LaunchBoxGame, 0, len(byKey))
	for _, game := range byKey {
		merged = append(merged, game)
	}
	sort.Slice(merged, func(i, j int) bool {
		ki, kj := identityKey(merged[i].ApplicationPath), identityKey(merged[j].ApplicationPath)
		if ki != kj {
			return ki < kj
		}
		return strings.ToLower(merged[i].Title) < strings.ToLower(merged[j].Title)
	})
	return merged
}

// gamelistKeySet extracts the identity keys already present in a metadata
// file, for conflict preview and keep_existing decisions.
func gamelistKeySet(entries []metadata.GamelistEntry) map[string]metadata.GamelistEntry {
	keys := make(map[string]metadata.GamelistEntry, len(entries))
	for _, entry := range entries {
		keys[identityKey(entry.Path)] = entry
	}
	return keys
}

func launchboxKeySet(games []metadata.LaunchBoxGame) map[string]metadata.LaunchBoxGame {
	keys := make(map[string]metadata.LaunchBoxGame, len(games))
	for _, game := range games {
		keys[identityKey(game.ApplicationPath)] = game
	}
	return keys
}
