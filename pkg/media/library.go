package media

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"greetsend/pkg/errors"
)

var (
	// ErrImageFolderMissing is wrapped when the images folder does not exist
	// or is not a directory
	ErrImageFolderMissing = stderrors.New("image folder not found")
	// ErrImageNotFound is wrapped when a contact's image cannot be resolved
	ErrImageNotFound = stderrors.New("image file not found")
	// ErrOutsideFolder is wrapped when a filename escapes the images folder
	ErrOutsideFolder = stderrors.New("image path escapes the image folder")
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// Library resolves contact image filenames inside the images folder
type Library struct {
	dir string

	mu    sync.RWMutex
	index map[string]int64
}

// Open checks that dir exists and is a directory
func Open(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		cause := ErrImageFolderMissing
		if err != nil && !stderrors.Is(err, os.ErrNotExist) {
			cause = fmt.Errorf("%w: %v", ErrImageFolderMissing, err)
		}
		return nil, errors.Wrap(errors.ErrorTypeInput,
			fmt.Sprintf("the image folder '%s' was not found; create it and place the images inside", dir),
			cause)
	}
	return &Library{dir: dir}, nil
}

// Dir returns the images folder
func (l *Library) Dir() string {
	return l.dir
}

// Path joins filename with the images folder without checking it exists
func (l *Library) Path(filename string) string {
	return filepath.Join(l.dir, filename)
}

// Resolve returns the path of filename inside the images folder.
//
// ImageFile values are always relative to the folder. Absolute paths and
// names that climb out of it with ".." are refused with ErrOutsideFolder,
// even when the file exists. Targets that are missing or not regular files
// fail with ErrImageNotFound. Both are media errors, so the contact is
// skipped rather than failing the run.
func (l *Library) Resolve(filename string) (string, error) {
	clean := filepath.Clean(filename)
	switch {
	case filename == "":
		return "", errors.Wrap(errors.ErrorTypeMedia, "image file name is empty", ErrOutsideFolder)
	case filepath.IsAbs(filename):
		return "", errors.Wrap(errors.ErrorTypeMedia,
			fmt.Sprintf("absolute image path '%s' refused; ImageFile must be a name inside the images folder '%s'", filename, l.dir),
			ErrOutsideFolder)
	case clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)):
		return "", errors.Wrap(errors.ErrorTypeMedia,
			fmt.Sprintf("image path '%s' refused; it leaves the images folder '%s'", filename, l.dir),
			ErrOutsideFolder)
	}

	full := filepath.Join(l.dir, clean)
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", errors.Wrap(errors.ErrorTypeMedia,
			fmt.Sprintf("missing file: '%s'", full), ErrImageNotFound)
	}
	return full, nil
}

// Index walks the images folder once and returns the image files it holds,
// keyed by slash-separated path relative to the folder, with their sizes.
// Later calls return the cached result.
func (l *Library) Index() (map[string]int64, error) {
	l.mu.RLock()
	if l.index != nil {
		defer l.mu.RUnlock()
		return l.index, nil
	}
	l.mu.RUnlock()

	index := make(map[string]int64)
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		index[filepath.ToSlash(rel)] = info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan image folder: %w", err)
	}

	l.mu.Lock()
	l.index = index
	l.mu.Unlock()
	return index, nil
}

// Audit compares the filenames referenced by contacts against the folder
// contents
type Audit struct {
	// Missing lists referenced filenames that do not resolve
	Missing []string
	// Unreferenced lists images in the folder no contact points at
	Unreferenced []string
}

// Audit resolves every referenced filename and reports the differences
// against Index
func (l *Library) Audit(referenced []string) (*Audit, error) {
	index, err := l.Index()
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(referenced))
	audit := &Audit{}
	for _, name := range referenced {
		if _, err := l.Resolve(name); err != nil {
			audit.Missing = append(audit.Missing, name)
			continue
		}
		used[filepath.ToSlash(filepath.Clean(name))] = true
	}
	for name := range index {
		if !used[name] {
			audit.Unreferenced = append(audit.Unreferenced, name)
		}
	}
	sort.Strings(audit.Unreferenced)
	return audit, nil
}

// ContentType guesses the MIME type of an image from its extension, falling
// back to sniffing the first bytes
func ContentType(path string, head []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(head)
}
