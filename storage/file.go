package storage

import (
	"os"
	"path/filepath"

	"github.com/boypt/folderwatch/tree"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
)

// FileStore keeps each snapshot as <dir>/<key>.json, the same layout the
// snapshots always had, so existing files are picked up across restarts.
type FileStore struct {
	fs      afero.Fs
	dir     string
	maxSize datasize.ByteSize
}

func NewFile(fs afero.Fs, dir string, maxSize datasize.ByteSize) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{fs: fs, dir: dir, maxSize: maxSize}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(key string) (*tree.Node, error) {
	p := s.path(key)
	info, err := s.fs.Stat(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	//refuse before reading it all into memory
	if err := checkSize(key, uint64(info.Size()), s.maxSize); err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, err
	}
	return decode(key, b, s.maxSize)
}

// Save replaces the snapshot atomically: readers see either the previous
// file or the new one, never a partial write.
func (s *FileStore) Save(key string, n *tree.Node) error {
	b, err := encode(n)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	p := s.path(key)
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0644); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
