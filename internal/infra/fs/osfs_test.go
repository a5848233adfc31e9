package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCopyFileMissingSourceWritesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "out.txt")

	if err := (OSFS{}).CopyFile(filepath.Join(dir, "missing.txt"), dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("expected destination file: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty file, got %q", data)
	}
}

func TestCopyFileCopiesContentAndCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "a", "b", "in.txt")
	if err := (OSFS{}).CopyFile(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestReadDirMissingReturnsEmpty(t *testing.T) {
	if entries := (OSFS{}).ReadDir(filepath.Join(t.TempDir(), "nope")); len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestAllFilesAndDirectoriesRecurse(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "bar.txt"))
	mustWrite(t, filepath.Join(root, "baz", "qux.txt"))
	mustWrite(t, filepath.Join(root, "baz", "deep", "x.md"))

	fsys := OSFS{}
	files := fsys.AllFiles(root)
	wantFiles := []string{
		filepath.Join(root, "bar.txt"),
		filepath.Join(root, "baz", "deep", "x.md"),
		filepath.Join(root, "baz", "qux.txt"),
	}
	if !reflect.DeepEqual(files, wantFiles) {
		t.Fatalf("unexpected files: %v", files)
	}

	dirs := fsys.AllDirectories(root)
	wantDirs := []string{filepath.Join(root, "baz"), filepath.Join(root, "baz", "deep")}
	if !reflect.DeepEqual(dirs, wantDirs) {
		t.Fatalf("unexpected dirs: %v", dirs)
	}
}

func TestRelativePathIsSlashSeparated(t *testing.T) {
	fsys := OSFS{}
	root := filepath.Join(string(filepath.Separator), "src", "templates")
	got := fsys.RelativePath(root, filepath.Join(root, "baz", "qux.txt"))
	if got != "baz/qux.txt" {
		t.Fatalf("unexpected relative path: %q", got)
	}
	if got := fsys.RelativePath(root, root); got != "" {
		t.Fatalf("expected empty relative path, got %q", got)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	if err := (OSFS{}).Remove(filepath.Join(t.TempDir(), "gone"), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnlinkRefusesDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := (OSFS{}).Unlink(dir); err == nil {
		t.Fatalf("expected error when unlinking a directory")
	}
}

func TestRenameCreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	mustWrite(t, src)
	dst := filepath.Join(dir, "moved", "a.txt")
	if err := (OSFS{}).Rename(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists, _ := (OSFS{}).Exists(src); exists {
		t.Fatalf("expected source to be gone")
	}
	if exists, _ := (OSFS{}).Exists(dst); !exists {
		t.Fatalf("expected destination to exist")
	}
}

func TestCopyFileOntoItselfKeepsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	mustWrite(t, path)
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	for _, dst := range []string{path, link} {
		if err := (OSFS{}).CopyFile(path, dst); err == nil {
			t.Fatalf("expected error copying onto %s", dst)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "x" {
		t.Fatalf("expected content kept, got %q (%v)", data, err)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
