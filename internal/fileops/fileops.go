// Package fileops implements the file system operations used to materialize
// project templates: tree copies, enumeration, globbing and in-place token
// substitution. All operations work on afero file systems so that embedded
// assets, the OS file system and in-memory trees are interchangeable.
package fileops

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/ty-ras/start/pkg/xos"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// CopyError reports a failed copy of a template source.
type CopyError struct {
	From  string
	To    string
	Cause error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copying %s to %s: %v", e.From, e.To, e.Cause)
}

func (e *CopyError) Unwrap() error {
	return e.Cause
}

// CopyTree copies srcPath of src to dstPath of dst. Directories are copied
// recursively and merged with existing content; files overwrite.
func CopyTree(src afero.Fs, srcPath string, dst afero.Fs, dstPath string) error {
	info, err := src.Stat(srcPath)
	if err != nil {
		return &CopyError{From: srcPath, To: dstPath, Cause: err}
	}
	if !info.IsDir() {
		if err := copyFile(src, srcPath, dst, dstPath); err != nil {
			return &CopyError{From: srcPath, To: dstPath, Cause: err}
		}
		return nil
	}

	err = afero.Walk(src, srcPath, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcPath, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dstPath, rel)
		if fi.IsDir() {
			return dst.MkdirAll(target, dirPerm)
		}
		return copyFile(src, p, dst, target)
	})
	if err != nil {
		return &CopyError{From: srcPath, To: dstPath, Cause: err}
	}
	return nil
}

func copyFile(src afero.Fs, from string, dst afero.Fs, to string) error {
	data, err := afero.ReadFile(src, from)
	if err != nil {
		return err
	}
	return WriteFile(dst, to, data)
}

// WriteFile writes data to name, creating parent directories as needed.
// Writes to the OS file system are atomic.
func WriteFile(fs afero.Fs, name string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(name), dirPerm); err != nil {
		return fmt.Errorf("creating parent of %s: %w", name, err)
	}
	if _, ok := fs.(*afero.OsFs); ok {
		return xos.WriteFile(name, data, filePerm)
	}
	return afero.WriteFile(fs, name, data, filePerm)
}

// ListFiles returns the slash-separated paths of all regular files below
// root, relative to root and sorted.
func ListFiles(fs afero.Fs, root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// FindFiles returns the files below root whose relative path matches the
// doublestar pattern, e.g. "**/package.json".
func FindFiles(fs afero.Fs, root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	files, err := ListFiles(fs, root)
	if err != nil {
		return nil, err
	}
	matches := files[:0]
	for _, f := range files {
		if ok, _ := doublestar.Match(pattern, f); ok {
			matches = append(matches, f)
		}
	}
	return matches, nil
}

// Substitute replaces every occurrence of each replacements key with its
// value in the given files (relative to root). Files that are not valid
// UTF-8 are left alone. It returns the files that changed.
func Substitute(fs afero.Fs, root string, files []string, replacements map[string]string) ([]string, error) {
	if len(replacements) == 0 {
		return nil, nil
	}
	replacer := newReplacer(replacements)

	var changed []string
	for _, f := range files {
		name := filepath.Join(root, filepath.FromSlash(f))
		data, err := afero.ReadFile(fs, name)
		if err != nil {
			return changed, fmt.Errorf("reading %s: %w", name, err)
		}
		if !utf8.Valid(data) {
			continue
		}
		updated := replacer.Replace(string(data))
		if updated == string(data) {
			continue
		}
		if err := WriteFile(fs, name, []byte(updated)); err != nil {
			return changed, fmt.Errorf("writing %s: %w", name, err)
		}
		changed = append(changed, f)
	}
	return changed, nil
}

// newReplacer orders tokens longest first so that a token that is a prefix
// of another never shadows it.
func newReplacer(replacements map[string]string) *strings.Replacer {
	tokens := make([]string, 0, len(replacements))
	for token := range replacements {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	pairs := make([]string, 0, 2*len(tokens))
	for _, token := range tokens {
		pairs = append(pairs, token, replacements[token])
	}
	return strings.NewReplacer(pairs...)
}

// Base returns the last element of a slash or OS separated path.
func Base(p string) string {
	return path.Base(filepath.ToSlash(filepath.Clean(p)))
}
