package drive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/boypt/folderwatch/fs"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	RootID     = "root"
	folderMime = "application/vnd.google-apps.folder"
	pageSize   = 1000
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
}

// New lists a Google Drive through a pre-provisioned OAuth2 refresh token.
func New(ctx context.Context, c Config) (fs.Lister, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, errors.New("client id/secret missing")
	}
	if c.RefreshToken == "" {
		return nil, errors.New("refresh token missing")
	}
	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveMetadataReadonlyScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}
	return &driveFS{srv: srv}, nil
}

type driveFS struct {
	srv *drive.Service
}

func (d *driveFS) Name() string {
	return "Drive"
}

func (d *driveFS) Root() string {
	return RootID
}

func (d *driveFS) Verify(ctx context.Context) error {
	about, err := d.srv.About.Get().Fields("user(displayName,emailAddress)").Context(ctx).Do()
	if err != nil {
		return err
	}
	if about.User != nil {
		logf("connected as %s (%s)", about.User.DisplayName, about.User.EmailAddress)
	}
	return nil
}

func (d *driveFS) List(ctx context.Context, id string) ([]fs.Entry, error) {
	var entries []fs.Entry
	err := d.srv.Files.List().
		Q(query(id)).
		Fields("nextPageToken, files(id, name, mimeType)").
		PageSize(pageSize).
		Pages(ctx, func(fl *drive.FileList) error {
			for _, f := range fl.Files {
				entries = append(entries, fs.Entry{
					ID:       f.Id,
					Name:     f.Name,
					IsFolder: f.MimeType == folderMime,
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func query(id string) string {
	id = strings.ReplaceAll(id, `\`, `\\`)
	id = strings.ReplaceAll(id, `'`, `\'`)
	return fmt.Sprintf("'%s' in parents and trashed = false", id)
}

func logf(format string, args ...interface{}) {
	log.Printf("[Drive] "+format, args...)
}
