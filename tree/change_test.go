package tree

import (
	"encoding/json"
	"testing"
)

func TestChange_String(t *testing.T) {
	tests := []struct {
		c    Change
		want string
	}{
		{Change{FileAdded, "Root/b.txt"}, "🆕 File added: Root/b.txt"},
		{Change{FileRemoved, "Root/a.txt"}, "🗑️ File removed: Root/a.txt"},
		{Change{FolderAdded, "Root/Refs"}, "🆕 Folder added: Root/Refs"},
		{Change{FolderRemoved, "Root/Drafts"}, "🗑️ Folder removed: Root/Drafts"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("Change.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_Inverse(t *testing.T) {
	for _, k := range []Kind{FileAdded, FileRemoved, FolderAdded, FolderRemoved} {
		if k.Inverse() == k || k.Inverse().Inverse() != k {
			t.Errorf("%v.Inverse() = %v", k, k.Inverse())
		}
	}
}

func TestChange_JSON(t *testing.T) {
	b, err := json.Marshal(Change{FolderAdded, "Root/Refs"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"kind":"Folder added","path":"Root/Refs"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}
