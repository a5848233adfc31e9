package blank

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"structa/internal/logging"
)

var errNilFileSystem = errors.New("blank resolver requires a filesystem")

const (
	localIndexSize = 256
	macOSMetadata  = "__MACOSX"
)

// FileSystem is the subset of the host adapter the resolver needs.
type FileSystem interface {
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	ReadBinaryFile(path string) ([]byte, error)
	WriteBinaryFile(path string, data []byte) error
	Rename(src, dst string) error
	Remove(path string, recursive bool) error
	Unlink(path string) error
	ReadDir(path string) []fs.DirEntry
}

// Extractor unpacks a downloaded package archive into destDir.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Resolver finds functional blank templates, first in the local cache
// directory and then in the remote catalog. Every failure degrades to
// "no template". A Resolver built as a literal gets its caches on first use,
// with DefaultCatalogTTL.
type Resolver struct {
	FS        FileSystem
	Client    Client
	Extractor Extractor
	CacheDir  string
	Logger    logging.Logger

	once    sync.Once
	catalog *CatalogCache
	local   *LocalIndex
}

func NewResolver(fsys FileSystem, client Client, extractor Extractor, cacheDir string, ttl time.Duration, logger logging.Logger) (*Resolver, error) {
	if fsys == nil {
		return nil, errNilFileSystem
	}
	local, err := NewLocalIndex(localIndexSize)
	if err != nil {
		return nil, fmt.Errorf("create local index: %w", err)
	}
	return &Resolver{
		FS:        fsys,
		Client:    client,
		Extractor: extractor,
		CacheDir:  cacheDir,
		Logger:    logger,
		catalog:   NewCatalogCache(ttl),
		local:     local,
	}, nil
}

// FunctionalBlank returns the template bytes for extension.
func (r *Resolver) FunctionalBlank(ctx context.Context, extension string) ([]byte, bool) {
	ext := normalizeExtension(extension)
	if ext == "" || r.FS == nil {
		return nil, false
	}
	r.initCaches()
	if data, ok := r.fromDisk(ext); ok {
		return data, true
	}
	data, err := r.fromCatalog(ctx, ext)
	if err != nil {
		if errors.Is(err, ErrNoTemplate) {
			r.Logger.Verbosef("no functional blank for .%s", ext)
		} else {
			r.Logger.Warnf("functional blank for .%s: %v", ext, err)
		}
		return nil, false
	}
	return data, true
}

// Clear removes cached templates from disk and forgets both indexes.
func (r *Resolver) Clear() error {
	if r.FS == nil {
		return errNilFileSystem
	}
	r.initCaches()
	var errs []error
	for _, entry := range r.FS.ReadDir(r.CacheDir) {
		if !isCacheArtifact(entry.Name()) {
			continue
		}
		if err := r.FS.Remove(filepath.Join(r.CacheDir, entry.Name()), true); err != nil {
			errs = append(errs, err)
		}
	}
	r.catalog.Invalidate()
	r.local.Invalidate()
	return errors.Join(errs...)
}

func (r *Resolver) initCaches() {
	r.once.Do(func() {
		if r.catalog == nil {
			r.catalog = NewCatalogCache(DefaultCatalogTTL)
		}
		if r.local == nil {
			// Only a non-positive size fails.
			r.local, _ = NewLocalIndex(localIndexSize)
		}
	})
}

func (r *Resolver) fromDisk(ext string) ([]byte, bool) {
	if exists, known := r.local.Lookup(ext); known && !exists {
		return nil, false
	}

	path := r.blankPath(ext)
	exists, err := r.FS.Exists(path)
	if err != nil {
		r.Logger.Warnf("check cached blank %s: %v", path, err)
		return nil, false
	}
	r.local.Set(ext, exists)
	if !exists {
		return nil, false
	}

	data, err := r.FS.ReadBinaryFile(path)
	if err != nil {
		r.Logger.Warnf("read cached blank %s: %v", path, err)
		r.local.Set(ext, false)
		return nil, false
	}
	return data, true
}

func (r *Resolver) fromCatalog(ctx context.Context, ext string) ([]byte, error) {
	index, err := r.catalog.Get(ctx, r.Client.Catalog)
	if err != nil {
		if index == nil {
			return nil, err
		}
		r.Logger.Warnf("using previous blank catalog: %v", err)
	}

	entry, ok := index[ext]
	if !ok {
		return nil, ErrNoTemplate
	}

	data, err := r.Client.Download(ctx, entry.URL)
	if err != nil {
		return nil, err
	}

	// The downloaded bytes are still usable when caching fails.
	if err := r.store(ctx, ext, entry, data); err != nil {
		r.Logger.Warnf("cache blank for .%s: %v", ext, err)
	}
	return data, nil
}

func (r *Resolver) store(ctx context.Context, ext string, entry Entry, data []byte) error {
	if err := r.FS.MkdirAll(r.CacheDir, 0o755); err != nil {
		return err
	}
	if entry.Package {
		return r.storePackage(ctx, ext, data)
	}

	tmp := filepath.Join(r.CacheDir, ".blank-"+uuid.NewString()+".tmp")
	if err := r.FS.WriteBinaryFile(tmp, data); err != nil {
		return err
	}
	if err := r.FS.Rename(tmp, r.blankPath(ext)); err != nil {
		_ = r.FS.Unlink(tmp)
		return err
	}
	r.local.Set(ext, true)
	return nil
}

func (r *Resolver) storePackage(ctx context.Context, ext string, data []byte) error {
	if r.Extractor == nil {
		return errors.New("no extractor for package templates")
	}

	tmp := filepath.Join(r.CacheDir, fmt.Sprintf("temp_%s-%s.zip", ext, uuid.NewString()))
	if err := r.FS.WriteBinaryFile(tmp, data); err != nil {
		return err
	}
	defer func() {
		if err := r.FS.Unlink(tmp); err != nil {
			r.Logger.Warnf("remove %s: %v", tmp, err)
		}
	}()

	if err := r.Extractor.Extract(ctx, tmp, r.CacheDir); err != nil {
		return fmt.Errorf("extract package: %w", err)
	}
	if err := r.FS.Remove(filepath.Join(r.CacheDir, macOSMetadata), true); err != nil {
		r.Logger.Warnf("remove %s: %v", macOSMetadata, err)
	}
	r.local.Set(ext, true)
	return nil
}

func (r *Resolver) blankPath(ext string) string {
	return filepath.Join(r.CacheDir, "blank."+ext)
}

func isCacheArtifact(name string) bool {
	return strings.HasPrefix(name, "blank.") ||
		strings.HasPrefix(name, "temp_") ||
		strings.HasPrefix(name, ".blank-") ||
		name == macOSMetadata
}
