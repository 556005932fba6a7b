package dropbox

import (
	"context"
	"errors"
	"log"

	"github.com/boypt/folderwatch/fs"
	dropbox "github.com/tj/go-dropbox"
)

type Config struct {
	Token string
}

// New lists a Dropbox account. Folder ids are lower-cased paths and the
// root folder is the empty path.
func New(c Config) (fs.Lister, error) {
	if c.Token == "" {
		return nil, errors.New("API token missing")
	}
	return &dropboxFS{
		client: dropbox.New(dropbox.NewConfig(c.Token)),
	}, nil
}

type dropboxFS struct {
	client *dropbox.Client
}

func (d *dropboxFS) Name() string {
	return "Dropbox"
}

func (d *dropboxFS) Root() string {
	return ""
}

func (d *dropboxFS) Verify(ctx context.Context) error {
	acc, err := d.client.Users.GetCurrentAccount()
	if err != nil {
		return err
	}
	logf("connected as %s (%s)", acc.Name.DisplayName, acc.Email)
	return nil
}

func (d *dropboxFS) List(ctx context.Context, id string) ([]fs.Entry, error) {
	resp, err := d.client.Files.ListFolder(&dropbox.ListFolderInput{
		Path: id,
	})
	if err != nil {
		return nil, err
	}
	var entries []fs.Entry
	for {
		entries = appendEntries(entries, resp.Entries)
		if !resp.HasMore {
			return entries, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		//poll next set
		resp, err = d.client.Files.ListFolderContinue(&dropbox.ListFolderContinueInput{
			Cursor: resp.Cursor,
		})
		if err != nil {
			return nil, err
		}
	}
}

//appendEntries drops deleted entries
func appendEntries(entries []fs.Entry, ms []*dropbox.Metadata) []fs.Entry {
	for _, m := range ms {
		if m.Tag == "deleted" {
			continue
		}
		entries = append(entries, fs.Entry{
			ID:       m.PathLower,
			Name:     m.Name,
			IsFolder: m.Tag == "folder",
		})
	}
	return entries
}

func logf(format string, args ...interface{}) {
	log.Printf("[Dropbox] "+format, args...)
}
