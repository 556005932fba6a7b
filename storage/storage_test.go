package storage

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/boypt/folderwatch/tree"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
)

func snapshot() *tree.Node {
	return &tree.Node{Name: "Root", ID: "root", Files: []string{"a.txt"}, Subfolders: []*tree.Node{
		{Name: "Drafts", ID: "d1", Files: []string{"v1.docx"}},
	}}
}

func stores(t *testing.T) map[string]Store {
	b, err := OpenBolt(t.TempDir(), DefaultMaxSize)
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return map[string]Store{
		"file": NewFile(afero.NewMemMapFs(), "state", DefaultMaxSize),
		"bolt": b,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load("oldFolder"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load() on empty store error = %v, want ErrNotFound", err)
			}
			want := snapshot()
			if err := s.Save("oldFolder", want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := s.Load("oldFolder")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
			//replace
			want.Files = nil
			if err := s.Save("oldFolder", want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if got, _ := s.Load("oldFolder"); !reflect.DeepEqual(got, want) {
				t.Errorf("Load() after replace = %+v, want %+v", got, want)
			}
			if _, err := s.Load("newFolder"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(other key) error = %v, want ErrNotFound", err)
			}
			if err := s.Save("x", nil); err == nil {
				t.Error("Save(nil) should fail")
			}
		})
	}
}

func TestFileStore_Format(t *testing.T) {
	m := afero.NewMemMapFs()
	s := NewFile(m, "state", DefaultMaxSize)
	if err := s.Save("oldFolder", &tree.Node{Name: "Root", ID: "root"}); err != nil {
		t.Fatal(err)
	}
	b, err := afero.ReadFile(m, "state/oldFolder.json")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"name\": \"Root\",\n  \"id\": \"root\",\n  \"files\": null,\n  \"subfolders\": null\n}"
	if string(b) != want {
		t.Errorf("file = %s, want %s", b, want)
	}
	if ok, _ := afero.Exists(m, "state/oldFolder.json.tmp"); ok {
		t.Error("temporary file left behind")
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"garbage", "{not json", "corrupt"},
		{"null", "null", "empty"},
		{"too large", `{"name":"` + strings.Repeat("x", 2048) + `"}`, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := afero.NewMemMapFs()
			afero.WriteFile(m, "oldFolder.json", []byte(tt.content), 0644)
			s := NewFile(m, "", datasize.KB)
			_, err := s.Load("oldFolder")
			if err == nil || errors.Is(err, ErrNotFound) {
				t.Fatalf("Load() error = %v, want a corruption error", err)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.errPart)
			}
		})
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"", "file", "bolt"} {
		s, err := New(Config{Kind: kind, Dir: dir})
		if err != nil {
			t.Fatalf("New(%q) error = %v", kind, err)
		}
		s.Close()
	}
	if _, err := New(Config{Kind: "sqlite"}); err == nil {
		t.Error("New(sqlite) should fail")
	}
}
