package disk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/boypt/folderwatch/fs"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

type Config struct {
	Base string
}

// New lists folders below Base. Folder ids are slash separated paths
// relative to Base, "." being the root.
func New(c Config) (fs.Lister, error) {
	base := c.Base
	if base == "" {
		return nil, errors.New("disk base directory missing")
	}
	if expanded, err := homedir.Expand(base); err == nil {
		base = expanded
	}
	info, err := os.Stat(base)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot find directory %s", base)
	} else if err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", base)
	}
	return NewFs(afero.NewBasePathFs(afero.NewOsFs(), base)), nil
}

// NewFs lists an already rooted afero filesystem.
func NewFs(f afero.Fs) fs.Lister {
	return &diskFS{Fs: f}
}

type diskFS struct {
	afero.Fs
}

func (d *diskFS) Name() string {
	return "Disk"
}

func (d *diskFS) Root() string {
	return "."
}

func (d *diskFS) Verify(ctx context.Context) error {
	info, err := d.Fs.Stat("/")
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("base is not a directory")
	}
	logf("ready")
	return nil
}

func (d *diskFS) List(ctx context.Context, id string) ([]fs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := path.Join("/", id)
	infos, err := afero.ReadDir(d.Fs, dir)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.Entry, 0, len(infos))
	for _, i := range infos {
		//hidden files and special files are not part of the tree
		if strings.HasPrefix(i.Name(), ".") {
			continue
		}
		if !i.IsDir() && !i.Mode().IsRegular() {
			continue
		}
		entries = append(entries, fs.Entry{
			ID:       path.Join(id, i.Name()),
			Name:     i.Name(),
			IsFolder: i.IsDir(),
		})
	}
	return entries, nil
}

func logf(format string, args ...interface{}) {
	log.Printf("[Disk] "+format, args...)
}
