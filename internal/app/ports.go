package app

import (
	"context"
	"io/fs"

	"structa/internal/domain"
)

// FileSystem is the host filesystem adapter. Write operations create missing
// parent directories. ReadDir, AllFiles and AllDirectories never fail; an
// unreadable directory yields an empty listing.
type FileSystem interface {
	Exists(path string) (bool, error)
	Stat(path string) (fs.FileInfo, error)
	MkdirAll(path string, perm fs.FileMode) error
	WriteFile(path, content string) error
	WriteBinaryFile(path string, data []byte) error
	ReadBinaryFile(path string) ([]byte, error)
	CopyFile(src, dst string) error
	Rename(src, dst string) error
	Remove(path string, recursive bool) error
	Unlink(path string) error
	ReadDir(path string) []fs.DirEntry
	AllFiles(dir string) []string
	AllDirectories(dir string) []string
	RelativePath(from, to string) string
}

// BlankProvider returns template bytes for an extension, or false when no
// functional blank is available.
type BlankProvider interface {
	FunctionalBlank(ctx context.Context, extension string) ([]byte, bool)
}

type Preferences interface {
	CreateFunctionalBlankFiles() bool
}

// ProgressFunc is called after each operation has been processed.
type ProgressFunc func(current, total int, op domain.Operation)

type staticPreferences bool

func (p staticPreferences) CreateFunctionalBlankFiles() bool { return bool(p) }

// FunctionalBlanks returns a Preferences value with a fixed answer.
func FunctionalBlanks(enabled bool) Preferences {
	return staticPreferences(enabled)
}
