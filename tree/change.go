package tree

import "fmt"

type Kind uint8

const (
	FileAdded Kind = iota
	FileRemoved
	FolderAdded
	FolderRemoved
)

func (k Kind) String() string {
	switch k {
	case FileAdded:
		return "File added"
	case FileRemoved:
		return "File removed"
	case FolderAdded:
		return "Folder added"
	case FolderRemoved:
		return "Folder removed"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Added() bool {
	return k == FileAdded || k == FolderAdded
}

// Inverse maps an addition to the matching removal and vice versa.
func (k Kind) Inverse() Kind {
	switch k {
	case FileAdded:
		return FileRemoved
	case FileRemoved:
		return FileAdded
	case FolderAdded:
		return FolderRemoved
	default:
		return FolderAdded
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Change is one structural difference between two snapshots.
type Change struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path"`
}

// String renders the change as the chat message announced for it.
func (c Change) String() string {
	icon := "🗑️"
	if c.Kind.Added() {
		icon = "🆕"
	}
	return fmt.Sprintf("%s %s: %s", icon, c.Kind, c.Path)
}
