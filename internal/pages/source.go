// Package pages loads and renders the local pages a pagenav session browses.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/vidyasagar/pagenav/internal/routing"
)

const (
	defaultCacheSize = 50
	defaultWidth     = 80
	maxPageSize      = 4 * 1024 * 1024 // 4 MB
)

// ErrPageNotFound is returned when a page name resolves to no file.
var ErrPageNotFound = errors.New("page not found")

// Kind is the source format of a page.
type Kind int

const (
	KindMarkdown Kind = iota
	KindHTML
)

// RenderedPage holds terminal-ready output for one page.
type RenderedPage struct {
	Page     routing.PageInfo
	Kind     Kind
	Title    string
	Content  string // styled terminal text
	Links    []Link
	Path     string // file the page was read from
	File     string // Path relative to the root, slash separated
	Duration time.Duration
}

// Link is a hyperlink found in a page, numbered in reading order from 1.
type Link struct {
	Index    int
	Text     string
	Target   string           // href as written
	Page     routing.PageInfo // resolved target for local links
	External bool
}

// Source reads pages from a directory tree and caches what it renders.
type Source struct {
	root  string
	cache *lru.Cache[string, *RenderedPage]
	log   *zap.Logger
}

// NewSource creates a Source rooted at dir. cacheSize <= 0 uses the default.
func NewSource(dir string, cacheSize int, log *zap.Logger) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving page root: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening page root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("page root %s is not a directory", abs)
	}

	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *RenderedPage](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Source{root: abs, cache: cache, log: log}, nil
}

// Root returns the absolute page root.
func (s *Source) Root() string {
	return s.root
}

// Resolve maps a page name to a file under the root. A name without an
// extension tries name.md, name.html, then name/index.md and name/index.html.
// The empty name is the root index.
func (s *Source) Resolve(name string) (string, Kind, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")

	var candidates []string
	switch {
	case name == "":
		candidates = []string{"index.md", "index.html"}
	case path.Ext(name) != "":
		candidates = []string{name}
	default:
		candidates = []string{
			name + ".md",
			name + ".html",
			path.Join(name, "index.md"),
			path.Join(name, "index.html"),
		}
	}

	for _, c := range candidates {
		kind, ok := kindOf(c)
		if !ok {
			continue
		}
		p := filepath.Join(s.root, filepath.FromSlash(c))
		fi, err := os.Stat(p)
		if err == nil && fi.Mode().IsRegular() {
			return p, kind, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %q", ErrPageNotFound, name)
}

// Load reads and renders a page for the given terminal width, serving
// repeated loads of the same file from the cache.
func (s *Source) Load(ctx context.Context, page routing.PageInfo, width int) (*RenderedPage, error) {
	if width <= 0 {
		width = defaultWidth
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	file, kind, err := s.Resolve(page.Name)
	if err != nil {
		return nil, err
	}
	name, _ := s.pageName(file)
	key := cacheKey(name, width)
	if cached, ok := s.cache.Get(key); ok {
		out := *cached
		out.Page = page
		return &out, nil
	}

	body, err := readLimited(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", page.Name, err)
	}

	// Links resolve against the file, which may be an index under page.Name.
	base := routing.PageInfo{Name: name}
	var rendered *RenderedPage
	switch kind {
	case KindHTML:
		rendered, err = s.renderHTML(base, file, body, width)
	default:
		rendered, err = s.renderMarkdown(base, body, width)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", page.Name, err)
	}
	rendered.Kind = kind
	rendered.Path = file
	rendered.File = name
	rendered.Duration = time.Since(start)

	s.cache.Add(key, rendered)
	out := *rendered
	out.Page = page
	return &out, nil
}

// Pages lists the root-relative names of every page file under the root,
// sorted. Hidden directories are skipped.
func (s *Source) Pages() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := kindOf(p); !ok {
			return nil
		}
		if name, ok := s.pageName(p); ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate drops every cached rendering of the file with the given
// root-relative name.
func (s *Source) Invalidate(name string) int {
	n := 0
	for _, k := range s.cache.Keys() {
		if keyName(k) == name {
			s.cache.Remove(k)
			n++
		}
	}
	return n
}

// Purge empties the cache.
func (s *Source) Purge() {
	s.cache.Purge()
}

// Cached returns how many renderings are cached.
func (s *Source) Cached() int {
	return s.cache.Len()
}

// pageName converts a file path under the root back into a page name.
func (s *Source) pageName(file string) (string, bool) {
	rel, err := filepath.Rel(s.root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// classify resolves a link target relative to the page it appears on.
func (s *Source) classify(from routing.PageInfo, target string) (routing.PageInfo, bool) {
	t := strings.TrimSpace(target)
	lower := strings.ToLower(t)
	switch {
	case strings.HasPrefix(lower, "file://"):
		p := strings.TrimPrefix(t, "file://")
		frag := ""
		if i := strings.IndexByte(p, '#'); i >= 0 {
			p, frag = p[:i], p[i+1:]
		}
		name, ok := s.pageName(filepath.FromSlash(p))
		if !ok {
			return routing.PageInfo{}, false
		}
		return routing.PageInfo{Name: name, Fragment: frag}, true
	case strings.Contains(lower, "://"), strings.HasPrefix(lower, "mailto:"):
		return routing.PageInfo{}, false
	}
	return from.Resolve(t), true
}

func kindOf(name string) (Kind, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return KindMarkdown, true
	case ".html", ".htm":
		return KindHTML, true
	}
	return 0, false
}

func cacheKey(name string, width int) string {
	return name + "@" + strconv.Itoa(width)
}

// keyName is the page name part of a cacheKey. Names may contain "@"
// themselves; the width never does.
func keyName(key string) string {
	if i := strings.LastIndexByte(key, '@'); i >= 0 {
		return key[:i]
	}
	return key
}

func readLimited(file string) ([]byte, error) {
	fi, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxPageSize {
		return nil, fmt.Errorf("page is %d bytes, limit is %d: %w", fi.Size(), maxPageSize, fs.ErrInvalid)
	}
	return os.ReadFile(file)
}
