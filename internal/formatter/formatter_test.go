package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
	tu "github.com/desertthunder/playlister/internal/testing"
)

func fixture() *models.PlaylistDetail {
	return &models.PlaylistDetail{
		Playlist: models.Playlist{
			ID:            "pl1",
			Name:          "Road Trip",
			OwnerID:       "u1",
			OwnerUsername: "ada",
			ListenerCount: 3,
			SongCount:     2,
		},
		Songs: []models.PlaylistEntry{
			{Position: 0, Song: models.Song{ID: "s1", Title: "Song One", Artist: "Artist One", Year: 1999, MediaRef: "abc123"}},
			{Position: 1, Song: models.Song{ID: "s2", Title: "Song, Two", Artist: "Artist Two", Year: 2005}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tc := map[string]Format{
		"":         FormatJSON,
		"json":     FormatJSON,
		"CSV":      FormatCSV,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"text":     FormatText,
		" txt ":    FormatText,
	}
	for in, want := range tc {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(fixture())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Position,ID,Title,Artist,Year,Media" {
			t.Errorf("unexpected headers: %v", records[0])
		}
		if records[1][5] != "https://www.youtube.com/watch?v=abc123" {
			t.Errorf("unexpected media link: %q", records[1][5])
		}
		if records[2][2] != "Song, Two" || records[2][5] != "" {
			t.Errorf("unexpected second row: %v", records[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(fixture())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Road Trip",
			"**Owner**: ada",
			"**Songs**: 2",
			"**Listeners**: 3",
			"1. [Artist One - Song One (1999)](https://www.youtube.com/watch?v=abc123)",
			"2. Artist Two - Song, Two (2005)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(fixture())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Road Trip\nOwner: ada\nSongs: 2\n\n") {
			t.Errorf("unexpected header, got:\n%s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song, Two (2005)\n") {
			t.Errorf("missing second song, got:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(fixture())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.PlaylistDetail
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Name != "Road Trip" || len(decoded.Songs) != 2 || decoded.Songs[1].Song.ID != "s2" {
			t.Errorf("unexpected decoded playlist: %+v", decoded)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		detail := fixture()
		detail.Songs = nil

		data, err := ExportToText(detail)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Songs: 0") {
			t.Errorf("expected zero songs, got:\n%s", data)
		}
	})
}

func TestExport(t *testing.T) {
	t.Run("writes to the writer", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Export(&buf, fixture(), FormatText); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "Playlist: Road Trip") {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("write failure", func(t *testing.T) {
		if err := Export(&tu.FWriter{}, fixture(), FormatCSV); err == nil {
			t.Error("expected error from failing writer")
		}

		lw := tu.NewLimitedWriter(0, 0, &bytes.Buffer{})
		if err := Export(&lw, fixture(), FormatMarkdown); err == nil {
			t.Error("expected error from exhausted writer")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Export(&buf, fixture(), Format("xml")); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		got, err := WriteExport(fixture(), FormatCSV, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "Song One") {
			t.Error("export file missing song")
		}
	})

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()

		got, err := WriteExport(fixture(), FormatMarkdown, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != filepath.Join(dir, "pl1.md") {
			t.Errorf("unexpected path %s", got)
		}
		tu.AssertFileExists(t, got)
	})

	t.Run("default name", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteExport(fixture(), FormatText, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "pl1.txt" {
			t.Errorf("expected pl1.txt, got %s", got)
		}
		tu.AssertFileExists(t, got)
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if _, err := WriteExport(fixture(), FormatText, path); err == nil {
			t.Error("expected error for missing parent directory")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("no file should be written")
		}
	})
}
