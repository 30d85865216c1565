package metadata

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LaunchBoxGame mirrors one <Game> node in a Data/Platforms/<name>.xml file.
// Values stay as written; interpretation happens in the loader.
type LaunchBoxGame struct {
	Title               string `xml:"Title"`
	SortTitle           string `xml:"SortTitle"`
	ApplicationPath     string `xml:"ApplicationPath"`
	ManualPath          string `xml:"ManualPath"`
	FrontImagePath      string `xml:"FrontImagePath"`
	ScreenshotImagePath string `xml:"ScreenshotImagePath"`
	BackgroundImagePath string `xml:"BackgroundImagePath"`
	LogoImagePath       string `xml:"LogoImagePath"`
	VideoPath           string `xml:"VideoPath"`
	Platform            string `xml:"Platform"`
	Developer           string `xml:"Developer"`
	Publisher           string `xml:"Publisher"`
	Genre               string `xml:"Genre"`
	Language            string `xml:"Language"`
	Region              string `xml:"Region"`
	Favorite            string `xml:"Favorite"`
	PlayCount           string `xml:"PlayCount"`
	PlayCounter         string `xml:"PlayCounter"`
	LastPlayedDate      string `xml:"LastPlayedDate"`
	LastPlayed          string `xml:"LastPlayed"`
	CommunityStarRating string `xml:"CommunityStarRating"`
	StarRating          string `xml:"StarRating"`
	Notes               string `xml:"Notes"`
	ReleaseDate         string `xml:"ReleaseDate"`
}

// ParseLaunchBoxPlatformFile streams <Game> nodes from a platform XML file.
// Platform files can hold tens of thousands of entries, so nodes are decoded
// one at a time instead of loading the document wholesale.
func ParseLaunchBoxPlatformFile(path string) ([]LaunchBoxGame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open platform xml %s: %w", path, err)
	}
	defer f.Close()

	var games []LaunchBoxGame
	decoder := xml.NewDecoder(f)
	decoder.Strict = false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode platform xml %s: %w", path, err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Game" {
			continue
		}
		var game LaunchBoxGame
		if err := decoder.DecodeElement(&game, &start); err != nil {
			return nil, fmt.Errorf("decode game node in %s: %w", path, err)
		}
		trimLaunchBoxGame(&game)
		games = append(games, game)
	}
	return games, nil
}

func trimLaunchBoxGame(game *LaunchBoxGame) {
	game.Title = strings.TrimSpace(game.Title)
	game.SortTitle = strings.TrimSpace(game.SortTitle)
	game.ApplicationPath = strings.TrimSpace(game.ApplicationPath)
	game.ManualPath = strings.TrimSpace(game.ManualPath)
	game.FrontImagePath = strings.TrimSpace(game.FrontImagePath)
	game.ScreenshotImagePath = strings.TrimSpace(game.ScreenshotImagePath)
	game.BackgroundImagePath = strings.TrimSpace(game.BackgroundImagePath)
	game.LogoImagePath = strings.TrimSpace(game.LogoImagePath)
	game.VideoPath = strings.TrimSpace(game.VideoPath)
	game.Platform = strings.TrimSpace(game.Platform)
	game.Developer = strings.TrimSpace(game.Developer)
	game.Publisher = strings.TrimSpace(game.Publisher)
	game.Genre = strings.TrimSpace(game.Genre)
	game.Language = strings.TrimSpace(game.Language)
	game.Region = strings.TrimSpace(game.Region)
	game.Favorite = strings.TrimSpace(game.Favorite)
	game.PlayCount = strings.TrimSpace(game.PlayCount)
	game.PlayCounter = strings.TrimSpace(game.PlayCounter)
	game.LastPlayedDate = strings.TrimSpace(game.LastPlayedDate)
	game.LastPlayed = strings.TrimSpace(game.LastPlayed)
	game.CommunityStarRating = strings.TrimSpace(game.CommunityStarRating)
	game.StarRating = strings.TrimSpace(game.StarRating)
	game.Notes = strings.TrimSpace(game.Notes)
	game.ReleaseDate = strings.TrimSpace(game.ReleaseDate)
}

// WriteLaunchBoxPlatformFile serialises the games to a platform XML file.
func WriteLaunchBoxPlatformFile(path string, games []LaunchBoxGame) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid platform xml output path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure platform xml dir %s: %w", path, err)
	}

	output := launchboxOutput{
		XMLName: xml.Name{Local: "LaunchBox"},
		Games:   make([]launchboxOutputGame, 0, len(games)),
	}
	for _, game := range games {
		output.Games = append(output.Games, newLaunchBoxOutputGame(game))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create platform xml %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	encoder := xml.NewEncoder(f)
	encoder.Indent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode platform xml: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return fmt.Errorf("flush platform xml: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("terminate platform xml: %w", err)
	}
	return nil
}

func newLaunchBoxOutputGame(src LaunchBoxGame) launchboxOutputGame {
	return launchboxOutputGame{
		Title:               strings.TrimSpace(src.Title),
		SortTitle:           strings.TrimSpace(src.SortTitle),
		ApplicationPath:     strings.TrimSpace(src.ApplicationPath),
		ManualPath:          strings.TrimSpace(src.ManualPath),
		FrontImagePath:      strings.TrimSpace(src.FrontImagePath),
		ScreenshotImagePath: strings.TrimSpace(src.ScreenshotImagePath),
		BackgroundImagePath: strings.TrimSpace(src.BackgroundImagePath),
		LogoImagePath:       strings.TrimSpace(src.LogoImagePath),
		VideoPath:           strings.TrimSpace(src.VideoPath),
		Platform:            strings.TrimSpace(src.Platform),
		Developer:           strings.TrimSpace(src.Developer),
		Publisher:           strings.TrimSpace(src.Publisher),
		Genre:               strings.TrimSpace(src.Genre),
		Language:            strings.TrimSpace(src.Language),
		Region:              strings.TrimSpace(src.Region),
		Favorite:            strings.TrimSpace(src.Favorite),
		PlayCount:           strings.TrimSpace(src.PlayCount),
		LastPlayedDate:      strings.TrimSpace(src.LastPlayedDate),
		CommunityStarRating: strings.TrimSpace(src.CommunityStarRating),
		StarRating:          strings.TrimSpace(src.StarRating),
		Notes:               strings.TrimSpace(src.Notes),
		ReleaseDate:         strings.TrimSpace(src.ReleaseDate),
	}
}

type launchboxOutput struct {
	XMLName xml.Name              `xml:"LaunchBox"`
	Games   []launchboxOutputGame `xml:"Game"`
}

type launchboxOutputGame struct {
	XMLName             xml.Name `xml:"Game"`
	Title               string   `xml:"Title,omitempty"`
	SortTitle           string   `xml:"SortTitle,omitempty"`
	ApplicationPath     string   `xml:"ApplicationPath,omitempty"`
	ManualPath          string   `xml:"ManualPath,omitempty"`
	FrontImagePath      string   `xml:"FrontImagePath,omitempty"`
	ScreenshotImagePath string   `xml:"ScreenshotImagePath,omitempty"`
	BackgroundImagePath string   `xml:"BackgroundImagePath,omitempty"`
	LogoImagePath       string   `xml:"LogoImagePath,omitempty"`
	VideoPath           string   `xml:"VideoPath,omitempty"`
	Platform            string   `xml:"Platform,omitempty"`
	Developer           string   `xml:"Developer,omitempty"`
	Publisher           string   `xml:"Publisher,omitempty"`
	Genre               string   `xml:"Genre,omitempty"`
	Language            string   `xml:"Language,omitempty"`
	Region              string   `xml:"Region,omitempty"`
	Favorite            string   `xml:"Favorite,omitempty"`
	PlayCount           string   `xml:"PlayCount,omitempty"`
	LastPlayedDate      string   `xml:"LastPlayedDate,omitempty"`
	CommunityStarRating string   `xml:"CommunityStarRating,omitempty"`
	StarRating          string   `xml:"StarRating,omitempty"`
	Notes               string   `xml:"Notes,omitempty"`
	ReleaseDate         string   `xml:"ReleaseDate,omitempty"`
}
