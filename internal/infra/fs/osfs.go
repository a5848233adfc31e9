package fs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// OSFS implements the structure engine's filesystem contract on top of the
// os package. Writes create missing parent directories.
type OSFS struct{}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OSFS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (o OSFS) WriteFile(path, content string) error {
	return o.WriteBinaryFile(path, []byte(content))
}

func (OSFS) WriteBinaryFile(path string, data []byte) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerm)
}

func (OSFS) ReadBinaryFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// CopyFile copies src to dst. A missing or unreadable source produces an
// empty file at dst. Copying a file onto itself is an error.
func (o OSFS) CopyFile(src, dst string) error {
	if err := ensureParent(dst); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return o.WriteFile(dst, "")
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil || info.IsDir() {
		return o.WriteFile(dst, "")
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		return &fs.PathError{Op: "copy", Path: dst, Err: errors.New("source and destination are the same file")}
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}

func (OSFS) Rename(src, dst string) error {
	if err := ensureParent(dst); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

// Remove deletes path. Missing paths are not an error.
func (OSFS) Remove(path string, recursive bool) error {
	var err error
	if recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (OSFS) Unlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "unlink", Path: path, Err: errors.New("is a directory")}
	}
	return os.Remove(path)
}

// ReadDir lists path, returning nothing when the directory cannot be read.
func (OSFS) ReadDir(path string) []fs.DirEntry {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	return entries
}

func (o OSFS) AllFiles(dir string) []string {
	var files []string
	o.walk(dir, func(path string, isDir bool) {
		if !isDir {
			files = append(files, path)
		}
	})
	sort.Strings(files)
	return files
}

func (o OSFS) AllDirectories(dir string) []string {
	var dirs []string
	o.walk(dir, func(path string, isDir bool) {
		if isDir {
			dirs = append(dirs, path)
		}
	})
	sort.Strings(dirs)
	return dirs
}

func (o OSFS) walk(dir string, visit func(path string, isDir bool)) {
	for _, entry := range o.ReadDir(dir) {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			visit(full, true)
			o.walk(full, visit)
			continue
		}
		visit(full, false)
	}
}

// RelativePath returns to relative to from as a slash-separated path.
func (OSFS) RelativePath(from, to string) string {
	rel, err := filepath.Rel(from, to)
	if err != nil {
		return strings.TrimPrefix(filepath.ToSlash(to), filepath.ToSlash(from)+"/")
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func ensureParent(path string) error {
	parent := filepath.Dir(path)
	if parent == "" || parent == "." {
		return nil
	}
	return os.MkdirAll(parent, dirPerm)
}
