package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("image not found")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

type IImageStore interface {
	// Save 回傳儲存後的檔名
	Save(originalName string, r io.Reader) (string, error)
	Open(name string) (io.ReadCloser, error)
}

// newImageName 隨機檔名保留原副檔名
func newImageName(originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExt[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return uuid.New().String() + ext, nil
}

// validName 拒絕路徑跳脫
func validName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}

type DirImageStore struct {
	dir string
}

func NewDirImageStore(dir string) (*DirImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirImageStore{dir: dir}, nil
}

func (s *DirImageStore) Save(originalName string, r io.Reader) (string, error) {
	name, err := newImageName(originalName)
	if err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return name, nil
}

func (s *DirImageStore) Open(name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

type MemoryImageStore struct {
	mu     sync.RWMutex
	images map[string][]byte
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{images: make(map[string][]byte)}
}

func (s *MemoryImageStore) Save(originalName string, r io.Reader) (string, error) {
	name, err := newImageName(originalName)
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.images[name] = raw
	s.mu.Unlock()
	return name, nil
}

func (s *MemoryImageStore) Open(name string) (io.ReadCloser, error) {
	s.mu.RLock()
	raw, ok := s.images[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}
