package dat

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/retrosync/internal/model"
)

type exportDataFile struct {
	XMLName  xml.Name        `xml:"datafile"`
	Header   exportHeader    `xml:"header"`
	Machines []exportMachine `xml:"machine"`
}

type exportHeader struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Version     string `xml:"version"`
	Author      string `xml:"author"`
}

type exportMachine struct {
	Name string    `xml:"name,attr"`
	Roms []exportRom `xml:"rom"`
}

type exportRom struct {
	Name string `xml:"name,attr"`
	Size int64  `xml:"size,attr"`
	CRC  string `xml:"crc,attr,omitempty"`
	SHA1 string `xml:"sha1,attr,omitempty"`
}

// WriteExportFile writes the games of one system as a checksum catalog.
// ROM files missing on disk are left out; hashes come from the game record
// when present and are computed from the file otherwise.
func WriteExportFile(path, name string, games []*model.Game) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("invalid export path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure export dir %s: %w", path, err)
	}

	hasher := &Enricher{hashCache: make(map[string]hashPair)}
	output := exportDataFile{
		Header: exportHeader{
			Name:        name,
			Description: "RetroSync export: " + name,
			Version:     time.Now().UTC().Format("2006.01.02"),
			Author:      "retrosync",
		},
	}
	for _, game := range games {
		info, err := os.Stat(game.RomPath)
		if err != nil || info.IsDir() {
			continue
		}
		rom := exportRom{
			Name: game.RomFilename(),
			Size: info.Size(),
			CRC:  strings.ToLower(game.CRC),
			SHA1: strings.ToLower(game.SHA1),
		}
		if rom.CRC == "" || rom.SHA1 == "" {
			if hashes, err := hasher.hashRomFile(game.RomPath); err == nil {
				if rom.CRC == "" {
					rom.CRC = hashes.crc
				}
				if rom.SHA1 == "" {
					rom.SHA1 = hashes.sha1
				}
			}
		}
		output.Machines = append(output.Machines, exportMachine{
			Name: game.RomBasename(),
			Roms: []exportRom{rom},
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	encoder := xml.NewEncoder(f)
	encoder.Indent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode export xml: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return fmt.Errorf("flush export xml: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("terminate export xml: %w", err)
	}
	return nil
}
