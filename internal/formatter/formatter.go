// package formatter exports playlists to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias ("markdown", "text"). An empty string
// selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrValidation, s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// MediaURL turns a song's media reference into a watch link.
func MediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + ref
}

// Render encodes detail in the requested format.
func Render(detail *models.PlaylistDetail, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(detail)
	case FormatMarkdown:
		return ExportToMarkdown(detail)
	case FormatText:
		return ExportToText(detail)
	case FormatJSON:
		return ExportToJSON(detail)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrValidation, format)
	}
}

// Export renders detail and writes it to w.
func Export(w io.Writer, detail *models.PlaylistDetail, format Format) error {
	data, err := Render(detail, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportToCSV converts a playlist to CSV with columns: Position, ID, Title, Artist, Year, Media
func ExportToCSV(detail *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Year", "Media"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range detail.Songs {
		record := []string{
			strconv.Itoa(entry.Position),
			entry.Song.ID,
			entry.Song.Title,
			entry.Song.Artist,
			strconv.Itoa(entry.Song.Year),
			MediaURL(entry.Song.MediaRef),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to a Markdown document with linked songs
func ExportToMarkdown(detail *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", detail.Name)

	if detail.OwnerUsername != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", detail.OwnerUsername)
	}
	fmt.Fprintf(&buf, "**Songs**: %d\n", len(detail.Songs))
	fmt.Fprintf(&buf, "**Listeners**: %d\n\n", detail.ListenerCount)

	buf.WriteString("## Songs\n\n")
	for i, entry := range detail.Songs {
		s := entry.Song
		line := fmt.Sprintf("%s - %s (%d)", s.Artist, s.Title, s.Year)
		if url := MediaURL(s.MediaRef); url != "" {
			line = fmt.Sprintf("[%s](%s)", line, url)
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text
func ExportToText(detail *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", detail.Name)
	if detail.OwnerUsername != "" {
		fmt.Fprintf(&buf, "Owner: %s\n", detail.OwnerUsername)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(detail.Songs))

	for i, entry := range detail.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s (%d)\n", i+1, entry.Song.Artist, entry.Song.Title, entry.Song.Year)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the playlist and its ordered songs as indented JSON.
func ExportToJSON(detail *models.PlaylistDetail) ([]byte, error) {
	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders detail to a file and returns its path.
//
// Defaults to {playlist.ID}.{ext} in the working directory; a path naming an existing
// directory gets that file name inside it.
func WriteExport(detail *models.PlaylistDetail, format Format, path string) (string, error) {
	name := fmt.Sprintf("%s.%s", detail.ID, format.Extension())
	switch {
	case path == "":
		path = name
	default:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, name)
		}
	}

	data, err := Render(detail, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
