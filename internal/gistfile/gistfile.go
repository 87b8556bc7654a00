// Package gistfile collects local files into the contents of a new gist.
//
// A file may start with a YAML frontmatter block carrying gist metadata:
//
//	---
//	description: Build helpers
//	public: false
//	filename: build.sh
//	---
//
// The block is removed from the uploaded content unless KeepFrontmatter is set.
package gistfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ghclient/internal/github"
	"ghclient/internal/logging"

	"github.com/adrg/frontmatter"
)

// MaxFileSize is the largest file collected into a gist.
const MaxFileSize = 10 * 1024 * 1024

// Meta is the gist metadata found in frontmatter.
type Meta struct {
	Description string `yaml:"description"`
	Public      *bool  `yaml:"public"`
	Filename    string `yaml:"filename"`
}

// Options controls how files are collected.
type Options struct {
	KeepFrontmatter bool
	// Filename renames the file when exactly one is collected.
	Filename string
}

// Bundle is the collected content of a gist.
type Bundle struct {
	Files []github.FileContent
	Meta  Meta
}

// Collect reads paths in order. Directories are flattened: a file b.txt in
// directory a becomes "a_b.txt". Hidden entries and whitespace-only files are
// skipped, as are links to directories found inside a directory. An empty
// result is not an error here; creating the gist reports it.
func Collect(paths []string, opts Options) (Bundle, error) {
	var b Bundle
	for _, p := range paths {
		if err := b.collect(p, "", opts); err != nil {
			return Bundle{}, err
		}
	}
	b.applyFilename(opts.Filename)
	return b, nil
}

// FromReader builds a single-file bundle from r, e.g. standard input.
func FromReader(name string, r io.Reader, opts Options) (Bundle, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read input: %w", err)
	}
	if len(content) > MaxFileSize {
		return Bundle{}, fmt.Errorf("input larger than %d bytes", MaxFileSize)
	}
	var b Bundle
	if err := b.add(name, content, opts); err != nil {
		return Bundle{}, err
	}
	b.applyFilename(opts.Filename)
	return b, nil
}

func (b *Bundle) collect(path, prefix string, opts Options) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("cannot list %s: %w", path, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		dirPrefix := prefix + filepath.Base(path) + "_"
		for _, e := range entries {
			entryPath := filepath.Join(path, e.Name())
			if isHidden(e.Name()) {
				logging.Debug("Skipping hidden entry", "path", entryPath)
				continue
			}
			// Linked directories are not descended into; they may loop.
			if e.Type()&fs.ModeSymlink != 0 {
				if target, err := os.Stat(entryPath); err == nil && target.IsDir() {
					logging.Debug("Skipping linked directory", "path", entryPath)
					continue
				}
			}
			if err := b.collect(entryPath, dirPrefix, opts); err != nil {
				return err
			}
		}
		return nil
	}

	if !info.Mode().IsRegular() {
		logging.Debug("Skipping non-regular file", "path", path)
		return nil
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%s is larger than %d bytes", path, MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	return b.add(prefix+filepath.Base(path), content, opts)
}

func (b *Bundle) add(name string, content []byte, opts Options) error {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta)
	switch {
	case errors.Is(err, frontmatter.ErrNotFound):
		body = content
	case err != nil:
		return fmt.Errorf("invalid frontmatter in %s: %w", name, err)
	default:
		b.Meta.merge(meta)
		if meta.Filename != "" {
			name = meta.Filename
		}
		if opts.KeepFrontmatter {
			body = content
		}
	}

	if strings.TrimSpace(string(body)) == "" {
		logging.Debug("Skipping empty file", "name", name)
		return nil
	}
	b.Files = append(b.Files, github.FileContent{Name: name, Content: string(body)})
	return nil
}

func (b *Bundle) applyFilename(name string) {
	if name != "" && len(b.Files) == 1 {
		b.Files[0].Name = name
	}
}

// merge keeps the first value seen for every field.
func (m *Meta) merge(other Meta) {
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.Public == nil {
		m.Public = other.Public
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
