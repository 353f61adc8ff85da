// Package copier implements the idempotent file and directory-tree copy
// used by both backup and restore.
package copier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultExcludes are OS-generated marker files skipped at every level of
// every tree copy, on top of any caller-supplied names.
var DefaultExcludes = []string{
	"desktop.ini",
	"Thumbs.db",
	".DS_Store",
}

// Copier copies files and directory trees, skipping unchanged files and
// excluded names. Directory copies are merge-only: entries already in the
// destination are updated or left alone, never deleted.
type Copier struct {
	excludes map[string]struct{}
}

// New returns a Copier whose exclude set is DefaultExcludes unioned with
// the given names.
func New(exclude []string) *Copier {
	ex := make(map[string]struct{}, len(DefaultExcludes)+len(exclude))
	for _, name := range DefaultExcludes {
		ex[name] = struct{}{}
	}
	for _, name := range exclude {
		ex[name] = struct{}{}
	}
	return &Copier{excludes: ex}
}

// Excluded reports whether an entry name is filtered out. The match is on
// the bare name, not the path, so it applies at every directory level.
func (c *Copier) Excluded(name string) bool {
	_, ok := c.excludes[name]
	return ok
}

// CopyItem copies src to dst. A file is copied with the skip-if-unchanged
// rule; a directory is mirrored recursively.
func (c *Copier) CopyItem(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %q: %w", src, err)
	}
	if info.IsDir() {
		return c.copyTree(src, dst)
	}
	return c.copyFile(src, dst, info)
}

// copyFile copies one file including its permissions and mtime. When the
// destination already has the same size and the same mtime truncated to
// whole seconds, the copy is skipped, which makes re-runs cheap.
func (c *Copier) copyFile(src, dst string, srcInfo os.FileInfo) error {
	if unchanged(srcInfo, dst) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	perm := srcInfo.Mode().Perm()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %q: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q: %w", dst, err)
	}

	// The destination may have pre-existed with different permissions.
	if err := os.Chmod(dst, perm); err != nil {
		return fmt.Errorf("chmod %q: %w", dst, err)
	}
	mtime := srcInfo.ModTime()
	if err := os.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("chtimes %q: %w", dst, err)
	}
	return nil
}

// copyTree mirrors src into dst, merging with whatever dst already holds.
func (c *Copier) copyTree(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", dst, err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", src, err)
	}
	for _, entry := range entries {
		if c.Excluded(entry.Name()) {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := c.copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %q: %w", srcPath, err)
		}
		if err := c.copyFile(srcPath, dstPath, info); err != nil {
			return err
		}
	}
	return nil
}

// unchanged compares size and mtime (whole seconds) of src against dst.
func unchanged(srcInfo os.FileInfo, dst string) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil || dstInfo.IsDir() {
		return false
	}
	return dstInfo.Size() == srcInfo.Size() &&
		dstInfo.ModTime().Unix() == srcInfo.ModTime().Unix()
}
