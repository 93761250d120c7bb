package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/mpetrie/pressmill/app/content"
)

// ErrUnavailable marks a source whose backing storage cannot be reached at
// all, as opposed to individual items failing to parse.
var ErrUnavailable = errors.New("content source unavailable")

// frontMatter is the YAML envelope at the top of each markdown file. All
// fields are optional; missing values fall back to filename-derived
// defaults during normalization.
type frontMatter struct {
	Title          string `yaml:"title"`
	Subtitle       string `yaml:"subTitle"`
	Date           string `yaml:"date"`
	LastUpdated    string `yaml:"lastUpdated"`
	OpenGraphImage string `yaml:"openGraphImage"`
	External       string `yaml:"external"`
}

// Filesystem loads content items from a directory of markdown files. An
// item is either a single <name>.md file or a <name>/ directory holding an
// index.md. Entries whose name starts with "." or "_" are ignored.
type Filesystem struct {
	dir string
}

var _ content.Source = (*Filesystem)(nil)

func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{dir: dir}
}

// Load enumerates the directory. A missing directory is fatal; a single
// malformed file is logged and skipped so one bad item cannot take down
// the whole collection.
func (f *Filesystem) Load(ctx context.Context) ([]content.RawItem, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory '%s': %v: %w", f.dir, err, ErrUnavailable)
	}

	items := make([]content.RawItem, 0, len(entries))

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}

		path := filepath.Join(f.dir, name)
		fileName := name

		if entry.IsDir() {
			path = filepath.Join(path, "index.md")
			fileName = name + "/index.md"
			if _, err := os.Stat(path); err != nil {
				slog.Warn("Content directory has no index.md, skipping", "dir", name)
				continue
			}
		} else if ext := filepath.Ext(name); ext != ".md" && ext != ".mdx" {
			continue
		}

		item, err := f.loadItem(path, fileName)
		if err != nil {
			slog.Warn("Skipping malformed content file", "file", fileName, "error", err)
			continue
		}

		item.Index = len(items)
		items = append(items, item)
	}

	return items, nil
}

func (f *Filesystem) loadItem(path, fileName string) (content.RawItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return content.RawItem{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var matter frontMatter
	rest, err := frontmatter.Parse(file, &matter)
	if err != nil {
		return content.RawItem{}, fmt.Errorf("failed to parse front matter: %w", err)
	}

	return content.RawItem{
		FileName: fileName,
		Markdown: string(rest),
		Meta: content.RawMeta{
			Title:       matter.Title,
			Subtitle:    matter.Subtitle,
			Date:        matter.Date,
			LastUpdated: matter.LastUpdated,
			OGImage:     matter.OpenGraphImage,
			ExternalURL: matter.External,
		},
	}, nil
}
