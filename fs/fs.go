package fs

import "context"

// Entry is one immediate child of a listed folder.
type Entry struct {
	ID       string
	Name     string
	IsFolder bool
}

// Lister lists the live (non-trashed) children of a folder. Root returns the
// reserved identifier of the source's top folder.
type Lister interface {
	Name() string
	Root() string
	List(ctx context.Context, folderID string) ([]Entry, error)
}

// Verifier is implemented by collaborators that can check their
// connectivity and authorization up front.
type Verifier interface {
	Verify(ctx context.Context) error
}
