package website

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"

	"github.com/nathan-a-king/website-sub000/post"
)

const (
	excerptLength = 200
	watchDebounce = 300 * time.Millisecond
)

// ImportLogger is the logging surface the importer needs.
type ImportLogger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// frontMatter is the header of an imported markdown file.
type frontMatter struct {
	Title      string   `yaml:"title" toml:"title" json:"title"`
	Slug       string   `yaml:"slug" toml:"slug" json:"slug"`
	Date       string   `yaml:"date" toml:"date" json:"date"`
	Excerpt    string   `yaml:"excerpt" toml:"excerpt" json:"excerpt"`
	Categories []string `yaml:"categories" toml:"categories" json:"categories"`
	Published  *bool    `yaml:"published" toml:"published" json:"published"`
}

// Importer loads a directory of markdown files with frontmatter into the
// store.
type Importer struct {
	Store *Store
	// OnChange runs after the store was changed, typically to invalidate
	// the post cache.
	OnChange func()
	Logger   ImportLogger

	mu    sync.Mutex
	slugs map[string]string // file path -> imported slug
}

// NewImporter returns an Importer writing to store.
func NewImporter(store *Store) *Importer {
	return &Importer{Store: store, Logger: log.New("import")}
}

// ParseFile reads one markdown file. The slug defaults to the file name
// and the date to the file's modification day.
func ParseFile(path string) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, err
	}
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return Post{}, fmt.Errorf("%s: frontmatter: %w", path, err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return Post{}, fmt.Errorf("%s: title is required", path)
	}

	slug := fm.Slug
	if slug == "" {
		slug = slugifyFilename(filepath.Base(path))
	}
	if slug == "" || Slugify(slug) != slug {
		return Post{}, fmt.Errorf("%s: invalid slug %q", path, slug)
	}

	date := strings.TrimSpace(fm.Date)
	if len(date) > len(dateLayout) {
		date = date[:len(dateLayout)] // tolerate full timestamps
	}
	if date == "" {
		info, err := os.Stat(path)
		if err != nil {
			return Post{}, err
		}
		date = info.ModTime().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Post{}, fmt.Errorf("%s: invalid date %q", path, fm.Date)
	}

	content := string(body)
	excerpt := strings.TrimSpace(fm.Excerpt)
	if excerpt == "" {
		excerpt = deriveExcerpt(content)
	}
	published := true
	if fm.Published != nil {
		published = *fm.Published
	}
	return Post{
		Detail: post.Detail{
			Slug:       slug,
			Title:      strings.TrimSpace(fm.Title),
			Date:       date,
			Excerpt:    excerpt,
			Categories: FilterEmpty(fm.Categories),
			Content:    content,
		},
		Published: published,
	}, nil
}

// deriveExcerpt takes the first prose paragraph of content, skipping
// headings, images, fences and widget markers.
func deriveExcerpt(content string) string {
	var para []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if line == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "![") || strings.HasPrefix(line, "[[") {
			continue
		}
		para = append(para, line)
	}
	excerpt := strings.Join(para, " ")
	if r := []rune(excerpt); len(r) > excerptLength {
		excerpt = strings.TrimSpace(string(r[:excerptLength])) + "…"
	}
	return excerpt
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// ImportFile parses path and saves it.
func (im *Importer) ImportFile(path string) (Post, error) {
	p, err := ParseFile(path)
	if err != nil {
		return Post{}, err
	}
	if err := im.Store.SavePost(p); err != nil {
		return Post{}, fmt.Errorf("%s: save: %w", path, err)
	}
	im.mu.Lock()
	if im.slugs == nil {
		im.slugs = make(map[string]string)
	}
	im.slugs[path] = p.Slug
	im.mu.Unlock()
	return p, nil
}

// ImportDir imports every markdown file under dir. Files that fail are
// logged and skipped; their errors are joined into the returned error.
func (im *Importer) ImportDir(dir string) (int, error) {
	var errs []error
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isMarkdown(path) {
			return nil
		}
		p, err := im.ImportFile(path)
		if err != nil {
			im.Logger.Warnf("skip %v", err)
			errs = append(errs, err)
			return nil
		}
		im.Logger.Infof("imported %s from %s", p.Slug, path)
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("website: import %s: %w", dir, err)
	}
	if n > 0 {
		im.changed()
	}
	return n, errors.Join(errs...)
}

// Watch re-imports markdown files under dir as they change and deletes
// the posts of removed files, until ctx is done. Bursts of events for one
// file are collapsed.
func (im *Importer) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("website: watch: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("website: watch %s: %w", dir, err)
	}

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						im.Logger.Warnf("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !isMarkdown(event.Name) {
				continue
			}
			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(watchDebounce, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				im.sync(path)
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.Logger.Warnf("watch: %v", err)
		}
	}
}

// sync brings the store in line with the current state of path.
func (im *Importer) sync(path string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		im.mu.Lock()
		slug, ok := im.slugs[path]
		delete(im.slugs, path)
		im.mu.Unlock()
		if !ok {
			return
		}
		if err := im.Store.DeletePost(slug); err != nil {
			im.Logger.Warnf("delete %s: %v", slug, err)
			return
		}
		im.Logger.Infof("deleted %s (%s removed)", slug, path)
		im.changed()
		return
	}
	p, err := im.ImportFile(path)
	if err != nil {
		im.Logger.Warnf("skip %v", err)
		return
	}
	im.Logger.Infof("imported %s from %s", p.Slug, path)
	im.changed()
}

func (im *Importer) changed() {
	if im.OnChange != nil {
		im.OnChange()
	}
}
