package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Conventional directory names of a COHA export.
const (
	DefaultCorpusDir = "Corpus"
	SourcesDir       = "Sources"
	TextDir          = "Text"
	WordDirPrefix    = "word"
)

// IsWordDir matches lexicon directories such as "Word_lemma_PoS".
func IsWordDir(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), WordDirPrefix)
}

// IsSourcesDir matches metadata directories ("Sources" or "Text").
func IsSourcesDir(name string) bool {
	return strings.EqualFold(name, SourcesDir) || strings.EqualFold(name, TextDir)
}

// CorpusRoot returns root/corpusDir when it is a directory, else root.
func CorpusRoot(root, corpusDir string) string {
	if corpusDir == "" {
		return root
	}
	p := filepath.Join(root, corpusDir)
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return p
	}
	return root
}

// ConventionDirs returns directories whose base name satisfies match, looked
// up among root's direct children and anywhere beneath root/corpusDir. A
// matched directory is not searched for further matches.
func ConventionDirs(root, corpusDir string, match func(name string) bool) []string {
	var dirs []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		dirs = append(dirs, p)
	}

	if entries, err := os.ReadDir(root); err == nil {
		for _, e := range entries {
			if e.IsDir() && match(e.Name()) {
				add(filepath.Join(root, e.Name()))
			}
		}
	}

	corpus := filepath.Join(root, corpusDir)
	if corpusDir == "" || corpus == root {
		return dirs
	}
	_ = filepath.WalkDir(corpus, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == corpus {
			return nil
		}
		if match(d.Name()) {
			add(path)
			return filepath.SkipDir
		}
		return nil
	})
	return dirs
}

// DirStat describes one conventional directory.
type DirStat struct {
	Name   string
	Path   string
	Exists bool
	Shards int
}

// Layout is a survey of a data root against the export's naming convention.
type Layout struct {
	Root     string
	Corpus   DirStat
	Sources  DirStat
	Text     DirStat
	WordDirs []DirStat
}

// Survey inspects root for the conventional directories and counts the
// shards in each.
func (w *Walker) Survey(ctx context.Context, root, corpusDir string) Layout {
	if corpusDir == "" {
		corpusDir = DefaultCorpusDir
	}
	l := Layout{
		Root:    root,
		Corpus:  w.stat(ctx, corpusDir, filepath.Join(root, corpusDir)),
		Sources: w.stat(ctx, SourcesDir, filepath.Join(root, SourcesDir)),
		Text:    w.stat(ctx, TextDir, filepath.Join(root, TextDir)),
	}
	for _, dir := range ConventionDirs(root, corpusDir, IsWordDir) {
		l.WordDirs = append(l.WordDirs, w.stat(ctx, filepath.Base(dir), dir))
	}
	return l
}

func (w *Walker) stat(ctx context.Context, name, path string) DirStat {
	s := DirStat{Name: name, Path: path}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return s
	}
	s.Exists = true
	if found, err := w.Discover(ctx, path); err == nil {
		s.Shards = len(found)
	}
	return s
}
