package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boypt/folderwatch/tree"
	"github.com/c2h5oh/datasize"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// ErrNotFound is returned by Load when nothing was ever saved under a key.
var ErrNotFound = errors.New("snapshot not found")

// DefaultMaxSize bounds how large a persisted snapshot may be.
const DefaultMaxSize = 50 * datasize.MB

// Store persists snapshots by key.
type Store interface {
	Load(key string) (*tree.Node, error)
	Save(key string, n *tree.Node) error
	Close() error
}

type Config struct {
	Kind    string
	Dir     string
	MaxSize datasize.ByteSize
}

func New(c Config) (Store, error) {
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
	}
	switch c.Kind {
	case "", "file":
		return NewFile(afero.NewOsFs(), c.Dir, c.MaxSize), nil
	case "bolt":
		return OpenBolt(c.Dir, c.MaxSize)
	}
	return nil, fmt.Errorf("unknown snapshot store %q", c.Kind)
}

func encode(n *tree.Node) ([]byte, error) {
	if n == nil {
		return nil, errors.New("nil snapshot")
	}
	return json.MarshalIndent(n, "", "  ")
}

func decode(key string, b []byte, max datasize.ByteSize) (*tree.Node, error) {
	if err := checkSize(key, uint64(len(b)), max); err != nil {
		return nil, err
	}
	var n *tree.Node
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("snapshot %s is corrupt: %w", key, err)
	}
	if n == nil {
		return nil, fmt.Errorf("snapshot %s is empty", key)
	}
	return n, nil
}

func checkSize(key string, size uint64, max datasize.ByteSize) error {
	if max > 0 && size > max.Bytes() {
		return fmt.Errorf("snapshot %s is %s, over the %s limit",
			key, humanize.Bytes(size), max.HR())
	}
	return nil
}
