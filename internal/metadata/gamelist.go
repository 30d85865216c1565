package metadata

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GamelistDocument is one parsed gamelist.xml.
type GamelistDocument struct {
	Provider ProviderInfo
	Games    []GamelistEntry
}

// ProviderInfo describes metadata about the gamelist file creator/source.
type ProviderInfo struct {
	System   string
	Software string
	Database string
	Web      string
}

// GamelistEntry mirrors one <game> node. All values stay as written in the
// file; interpretation (dates, bools, list splitting) happens in the loader.
type GamelistEntry struct {
	Path        string   `xml:"path"`
	Name        string   `xml:"name"`
	SortName    string   `xml:"sortname"`
	Description string   `xml:"desc"`
	Image       string   `xml:"image"`
	Thumbnail   string   `xml:"thumbnail"`
	Fanart      string   `xml:"fanart"`
	Marquee     string   `xml:"marquee"`
	Video       string   `xml:"video"`
	Manual      string   `xml:"manual"`
	Bezel       string   `xml:"bezel"`
	Developer   string   `xml:"developer"`
	Publisher   string   `xml:"publisher"`
	Genres      []string `xml:"genre"`
	Lang        string   `xml:"lang"`
	Region      string   `xml:"region"`
	Players     string   `xml:"players"`
	Favorite    string   `xml:"favorite"`
	Hidden      string   `xml:"hidden"`
	PlayCount   string   `xml:"playcount"`
	LastPlayed  string   `xml:"lastplayed"`
	Rating      string   `xml:"rating"`
	ReleaseDate string   `xml:"releasedate"`
}

type providerXML struct {
	SystemUpper string `xml:"System"`
	SystemLower string `xml:"system"`
	Software    string `xml:"software"`
	Database    string `xml:"database"`
	Web         string `xml:"web"`
}

// ParseGamelistFile reads and normalizes a gamelist.xml document.
func ParseGamelistFile(path string) (*GamelistDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gamelist %s: %w", path, err)
	}
	defer f.Close()

	var doc struct {
		Provider providerXML     `xml:"provider"`
		Games    []GamelistEntry `xml:"game"`
	}
	decoder := xml.NewDecoder(f)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gamelist %s: %w", path, err)
	}

	for i := range doc.Games {
		entry := &doc.Games[i]
		entry.Path = strings.TrimSpace(entry.Path)
		entry.Name = strings.TrimSpace(entry.Name)
		entry.SortName = strings.TrimSpace(entry.SortName)
		entry.Description = strings.TrimSpace(entry.Description)
		entry.Image = strings.TrimSpace(entry.Image)
		entry.Thumbnail = strings.TrimSpace(entry.Thumbnail)
		entry.Fanart = strings.TrimSpace(entry.Fanart)
		entry.Marquee = strings.TrimSpace(entry.Marquee)
		entry.Video = strings.TrimSpace(entry.Video)
		entry.Manual = strings.TrimSpace(entry.Manual)
		entry.Bezel = strings.TrimSpace(entry.Bezel)
		entry.Developer = strings.TrimSpace(entry.Developer)
		entry.Publisher = strings.TrimSpace(entry.Publisher)
		entry.Lang = strings.TrimSpace(entry.Lang)
		entry.Region = strings.TrimSpace(entry.Region)
		entry.Players = strings.TrimSpace(entry.Players)
		entry.Favorite = strings.TrimSpace(entry.Favorite)
		entry.Hidden = strings.TrimSpace(entry.Hidden)
		entry.PlayCount = strings.TrimSpace(entry.PlayCount)
		entry.LastPlayed = strings.TrimSpace(entry.LastPlayed)
		entry.Rating = strings.TrimSpace(entry.Rating)
		entry.ReleaseDate = strings.TrimSpace(entry.ReleaseDate)
		for j := range entry.Genres {
			entry.Genres[j] = strings.TrimSpace(entry.Genres[j])
		}
	}

	systemValue := strings.TrimSpace(doc.Provider.SystemUpper)
	if systemValue == "" {
		systemValue = strings.TrimSpace(doc.Provider.SystemLower)
	}
	provider := ProviderInfo{
		System:   strings.ToLower(systemValue),
		Software: strings.TrimSpace(doc.Provider.Software),
		Database: strings.TrimSpace(doc.Provider.Database),
		Web:      strings.TrimSpace(doc.Provider.Web),
	}

	return &GamelistDocument{
		Provider: provider,
		Games:    doc.Games,
	}, nil
}

// WriteGamelistFile serialises the gamelist document to the provided file path.
func WriteGamelistFile(path string, doc *GamelistDocument) error {
	if doc == nil {
		return fmt.Errorf("gamelist document is nil")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid gamelist output path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure gamelist dir %s: %w", path, err)
	}

	output := gamelistOutput{
		XMLName: xml.Name{Local: "gameList"},
		Games:   make([]gamelistOutputEntry, 0, len(doc.Games)),
	}
	if provider := doc.providerOutput(); provider != nil {
		output.Provider = provider
	}
	for _, game := range doc.Games {
		output.Games = append(output.Games, newOutputEntry(game))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gamelist %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}

	encoder := xml.NewEncoder(f)
	encoder.Indent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode gamelist xml: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return fmt.Errorf("flush gamelist xml: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("terminate gamelist xml: %w", err)
	}
	return nil
}

func (doc *GamelistDocument) providerOutput() *providerOutput {
	system := strings.TrimSpace(doc.Provider.System)
	software := strings.TrimSpace(doc.Provider.Software)
	database := strings.TrimSpace(doc.Provider.Database)
	web := strings.TrimSpace(doc.Provider.Web)
	if system == "" && software == "" && database == "" && web == "" {
		return nil
	}
	return &providerOutput{
		System:   system,
		Software: software,
		Database: database,
		Web:      web,
	}
}

func newOutputEntry(src GamelistEntry) gamelistOutputEntry {
	entry := gamelistOutputEntry{
		Path:        strings.TrimSpace(src.Path),
		Name:        strings.TrimSpace(src.Name),
		SortName:    strings.TrimSpace(src.SortName),
		Description: strings.TrimSpace(src.Description),
		Image:       strings.TrimSpace(src.Image),
		Thumbnail:   strings.TrimSpace(src.Thumbnail),
		Fanart:      strings.TrimSpace(src.Fanart),
		Marquee:     strings.TrimSpace(src.Marquee),
		Video:       strings.TrimSpace(src.Video),
		Manual:      strings.TrimSpace(src.Manual),
		Bezel:       strings.TrimSpace(src.Bezel),
		Developer:   strings.TrimSpace(src.Developer),
		Publisher:   strings.TrimSpace(src.Publisher),
		Lang:        strings.TrimSpace(src.Lang),
		Region:      strings.TrimSpace(src.Region),
		Players:     strings.TrimSpace(src.Players),
		Favorite:    strings.TrimSpace(src.Favorite),
		Hidden:      strings.TrimSpace(src.Hidden),
		PlayCount:   strings.TrimSpace(src.PlayCount),
		LastPlayed:  strings.TrimSpace(src.LastPlayed),
		Rating:      strings.TrimSpace(src.Rating),
		ReleaseDate: strings.TrimSpace(src.ReleaseDate),
	}
	if len(src.Genres) > 0 {
		var genres []string
		for _, g := range src.Genres {
			if trimmed := strings.TrimSpace(g); trimmed != "" {
				genres = append(genres, trimmed)
			}
		}
		entry.Genres = genres
	}
	return entry
}

type gamelistOutput struct {
	XMLName  xml.Name              `xml:"gameList"`
	Provider *providerOutput       `xml:"provider,omitempty"`
	Games    []gamelistOutputEntry `xml:"game"`
}

type providerOutput struct {
	System   string `xml:"system,omitempty"`
	Software string `xml:"software,omitempty"`
	Database string `xml:"database,omitempty"`
	Web      string `xml:"web,omitempty"`
}

// Field order fixes the emitted tag order inside <game>.
type gamelistOutputEntry struct {
	XMLName     xml.Name `xml:"game"`
	Path        string   `xml:"path,omitempty"`
	Name        string   `xml:"name,omitempty"`
	SortName    string   `xml:"sortname,omitempty"`
	Description string   `xml:"desc,omitempty"`
	Image       string   `xml:"image,omitempty"`
	Thumbnail   string   `xml:"thumbnail,omitempty"`
	Fanart      string   `xml:"fanart,omitempty"`
	Marquee     string   `xml:"marquee,omitempty"`
	Video       string   `xml:"video,omitempty"`
	Manual      string   `xml:"manual,omitempty"`
	Bezel       string   `xml:"bezel,omitempty"`
	Developer   string   `xml:"developer,omitempty"`
	Publisher   string   `xml:"publisher,omitempty"`
	Genres      []string `xml:"genre,omitempty"`
	Lang        string   `xml:"lang,omitempty"`
	Region      string   `xml:"region,omitempty"`
	Players     string   `xml:"players,omitempty"`
	Favorite    string   `xml:"favorite,omitempty"`
	Hidden      string   `xml:"hidden,omitempty"`
	PlayCount   string   `xml:"playcount,omitempty"`
	LastPlayed  string   `xml:"lastplayed,omitempty"`
	Rating      string   `xml:"rating,omitempty"`
	ReleaseDate string   `xml:"releasedate,omitempty"`
}
