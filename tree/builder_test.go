package tree

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boypt/folderwatch/fs"
	"golang.org/x/time/rate"
)

type mockLister struct {
	folders map[string][]fs.Entry
	fail    map[string]bool
	jitter  bool

	inflight, peak atomic.Int64
	mu             sync.Mutex
	calls          []string
}

func (m *mockLister) Name() string { return "mock" }
func (m *mockLister) Root() string { return "root" }

func (m *mockLister) List(ctx context.Context, id string) ([]fs.Entry, error) {
	n := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	m.mu.Lock()
	m.calls = append(m.calls, id)
	m.mu.Unlock()
	if m.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}
	if m.fail[id] {
		return nil, errors.New("boom")
	}
	return m.folders[id], nil
}

func dir(id, name string) fs.Entry  { return fs.Entry{ID: id, Name: name, IsFolder: true} }
func file(id, name string) fs.Entry { return fs.Entry{ID: id, Name: name} }

func driveLike() *mockLister {
	return &mockLister{folders: map[string][]fs.Entry{
		"root": {file("f1", "a.txt"), dir("d1", "Drafts"), file("f2", "b.txt"), dir("d2", "Notes")},
		"d1":   {file("f3", "v1.docx"), dir("d3", "Old")},
		"d3":   {file("f4", "v0.docx")},
		"d2":   {dir("d4", "Empty")},
	}}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(driveLike(), 2)
	got := b.Build(context.Background(), "root", "Root")
	want := &Node{Name: "Root", ID: "root", Files: []string{"a.txt", "b.txt"}, Subfolders: []*Node{
		{Name: "Drafts", ID: "d1", Files: []string{"v1.docx"}, Subfolders: []*Node{
			{Name: "Old", ID: "d3", Files: []string{"v0.docx"}},
		}},
		{Name: "Notes", ID: "d2", Subfolders: []*Node{
			{Name: "Empty", ID: "d4"},
		}},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %+v, want %+v", got, want)
	}
	st := b.LastStats()
	if st.Folders != 5 || st.Files != 4 || st.Failures != 0 {
		t.Errorf("LastStats() = %+v", st)
	}
}

func TestBuilder_ListingFailureIsRecovered(t *testing.T) {
	l := driveLike()
	l.fail = map[string]bool{"d1": true}
	b := NewBuilder(l, 1)
	var logs []string
	b.Logf = func(format string, args ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, args...))
	}
	got := b.Build(context.Background(), "root", "Root")
	drafts := got.Folder("Drafts")
	if drafts == nil {
		t.Fatal("Drafts missing from partial build")
	}
	if drafts.Files != nil || drafts.Subfolders != nil {
		t.Errorf("failed folder = %+v, want unknown children", drafts)
	}
	if notes := got.Folder("Notes"); notes == nil || notes.Folder("Empty") == nil {
		t.Errorf("sibling of failed folder was not built: %+v", notes)
	}
	st := b.LastStats()
	if st.Failures != 1 || len(st.Errors) != 1 {
		t.Fatalf("LastStats() = %+v, want one failure", st)
	}
	if le := st.Errors[0]; le.FolderID != "d1" || le.Name != "Drafts" || le.Err == nil {
		t.Errorf("Errors[0] = %+v", le)
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "Drafts") {
		t.Errorf("logs = %q", logs)
	}
}

func TestBuilder_RootFailure(t *testing.T) {
	l := driveLike()
	l.fail = map[string]bool{"root": true}
	b := NewBuilder(l, 1)
	b.Logf = func(string, ...interface{}) {}
	got := b.Build(context.Background(), "root", "Root")
	want := &Node{Name: "Root", ID: "root"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Build() = %+v, want %+v", got, want)
	}
}

func TestBuilder_ConcurrentOrderIsStable(t *testing.T) {
	l := &mockLister{folders: map[string][]fs.Entry{}, jitter: true}
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("d%d", i)
		l.folders["root"] = append(l.folders["root"], dir(id, "Folder "+id))
		l.folders[id] = []fs.Entry{file(id+"f", "file-"+id)}
	}
	b := NewBuilder(l, 3)
	first := b.Build(context.Background(), "root", "Root")
	for i := 0; i < 3; i++ {
		again := b.Build(context.Background(), "root", "Root")
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("build %d differs from the first", i)
		}
	}
	for i, s := range first.Subfolders {
		if want := fmt.Sprintf("Folder d%d", i); s.Name != want {
			t.Errorf("Subfolders[%d] = %s, want %s", i, s.Name, want)
		}
	}
	if p := l.peak.Load(); p > 3 {
		t.Errorf("peak concurrent List calls = %d, want <= 3", p)
	}
}

func TestBuilder_Limiter(t *testing.T) {
	l := driveLike()
	b := NewBuilder(l, 4)
	b.SetLimiter(rate.NewLimiter(rate.Inf, 0))
	if got := b.Build(context.Background(), "root", "Root"); got.Folder("Drafts") == nil {
		t.Errorf("Build() with unlimited limiter = %+v", got)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.SetLimiter(rate.NewLimiter(rate.Every(time.Hour), 1))
	b.Logf = func(string, ...interface{}) {}
	got := b.Build(ctx, "root", "Root")
	if got.Files != nil || got.Subfolders != nil {
		t.Errorf("Build() with cancelled context = %+v, want unknown children", got)
	}
}
