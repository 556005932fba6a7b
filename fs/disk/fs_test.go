package disk

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/boypt/folderwatch/fs"
	"github.com/spf13/afero"
)

func memFs(t *testing.T) afero.Fs {
	m := afero.NewMemMapFs()
	for _, d := range []string{"/Drafts/Old", "/Notes", "/.git"} {
		if err := m.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"/a.txt", "/Drafts/v1.docx", "/Drafts/Old/v0.docx", "/.hidden"} {
		if err := afero.WriteFile(m, f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestDiskFS_List(t *testing.T) {
	l := NewFs(memFs(t))
	tests := []struct {
		id   string
		want []fs.Entry
	}{
		{".", []fs.Entry{
			{ID: "Drafts", Name: "Drafts", IsFolder: true},
			{ID: "Notes", Name: "Notes", IsFolder: true},
			{ID: "a.txt", Name: "a.txt"},
		}},
		{"Drafts", []fs.Entry{
			{ID: "Drafts/Old", Name: "Old", IsFolder: true},
			{ID: "Drafts/v1.docx", Name: "v1.docx"},
		}},
		{"Notes", []fs.Entry{}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := l.List(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
		})
	}
	if _, err := l.List(context.Background(), "missing"); err == nil {
		t.Error("List(missing) should fail")
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(Config{}); err == nil {
		t.Error("New() without base should fail")
	}
	if _, err := New(Config{Base: filepath.Join(dir, "nope")}); err == nil {
		t.Error("New() with missing base should fail")
	}
	l, err := New(Config{Base: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := l.(fs.Verifier).Verify(context.Background()); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}
