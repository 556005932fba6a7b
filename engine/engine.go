package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boypt/folderwatch/fs"
	"github.com/boypt/folderwatch/notify"
	"github.com/boypt/folderwatch/storage"
	"github.com/boypt/folderwatch/tree"
	"github.com/dustin/go-humanize"
)

const (
	OldKey = "oldFolder"
	NewKey = "newFolder"
)

// Report is the outcome of one poll.
type Report struct {
	Started         time.Time     `json:"started"`
	Duration        time.Duration `json:"duration"`
	Bootstrapped    bool          `json:"bootstrapped"`
	Skipped         bool          `json:"skipped"`
	Changes         []tree.Change `json:"changes"`
	Delivered       int           `json:"delivered"`
	Failed          int           `json:"failed"`
	Folders         int           `json:"folders"`
	Files           int           `json:"files"`
	ListingFailures int           `json:"listingFailures"`
	Replaced        bool          `json:"replaced"`
	Error           string        `json:"error,omitempty"`
}

// Event is a change that has been handed to the notifier.
type Event struct {
	Time time.Time `json:"time"`
	tree.Change
}

//the Engine polls one folder tree and reports what changed between polls
type Engine struct {
	builder  *tree.Builder
	lister   fs.Lister
	store    storage.Store
	notifier notify.Notifier

	reset chan struct{}

	mut     sync.Mutex
	config  Config
	last    *Report
	current *tree.Node
	history []Event
}

func New(c Config, l fs.Lister, s storage.Store, n notify.Notifier) (*Engine, error) {
	limiter, err := listLimiter(c.ListRate)
	if err != nil {
		return nil, err
	}
	if c.FolderID == "" {
		c.FolderID = l.Root()
	}
	if c.FolderName == "" {
		c.FolderName = defaultFolderName
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	b := tree.NewBuilder(l, c.ListConcurrency)
	b.SetLimiter(limiter)
	b.Logf = log.Printf
	return &Engine{
		builder:  b,
		lister:   l,
		store:    s,
		notifier: n,
		reset:    make(chan struct{}, 1),
		config:   c,
	}, nil
}

func (e *Engine) Config() Config {
	e.mut.Lock()
	defer e.mut.Unlock()
	return e.config
}

// Verify checks every collaborator that can be checked before polling starts.
func (e *Engine) Verify(ctx context.Context) error {
	for _, c := range []interface{}{e.lister, e.notifier} {
		v, ok := c.(fs.Verifier)
		if !ok {
			continue
		}
		if err := v.Verify(ctx); err != nil {
			return &ConnectivityError{Service: serviceName(c), Err: err}
		}
	}
	log.Printf("connected to %s and %s", e.lister.Name(), e.notifier.Name())
	return nil
}

func serviceName(c interface{}) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}

// Run polls until ctx is done. The next poll is scheduled only once the
// previous one has finished, so polls never overlap.
func (e *Engine) Run(ctx context.Context) error {
	e.tick(ctx)
	timer := time.NewTimer(e.Config().PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.reset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
			e.tick(ctx)
		}
		timer.Reset(e.Config().PollInterval)
	}
}

func (e *Engine) tick(ctx context.Context) {
	if _, err := e.Tick(ctx); err != nil && ctx.Err() == nil {
		log.Printf("poll failed: %s", err)
	}
}

// Tick runs a single poll: build the current tree, compare it with the
// persisted one, notify every change and persist the new tree.
func (e *Engine) Tick(ctx context.Context) (*Report, error) {
	c := e.Config()
	r := &Report{Started: time.Now()}
	defer func() {
		r.Duration = time.Since(r.Started)
		e.mut.Lock()
		e.last = r
		e.mut.Unlock()
	}()
	fail := func(err error) (*Report, error) {
		r.Skipped = true
		r.Error = err.Error()
		return r, err
	}

	cur := e.builder.Build(ctx, c.FolderID, c.FolderName)
	st := e.builder.LastStats()
	r.Folders, r.Files, r.ListingFailures = st.Folders, st.Files, st.Failures
	if err := ctx.Err(); err != nil {
		//a tree cut short would read as removals
		return fail(err)
	}
	log.Printf("listed %s folders, %s files in %s (%d failed)",
		humanize.Comma(int64(st.Folders)), humanize.Comma(int64(st.Files)),
		st.Duration.Round(time.Millisecond), st.Failures)
	e.mut.Lock()
	e.current = cur
	e.mut.Unlock()

	if err := e.store.Save(NewKey, cur); err != nil {
		log.Printf("%s", &PersistenceError{Op: "save", Key: NewKey, Err: err})
	}

	old, err := e.store.Load(OldKey)
	if errors.Is(err, storage.ErrNotFound) {
		if err := e.store.Save(OldKey, cur); err != nil {
			return fail(&PersistenceError{Op: "save", Key: OldKey, Err: err})
		}
		r.Bootstrapped = true
		r.Replaced = true
		log.Printf("no previous snapshot, %s stored as baseline without comparing", OldKey)
		return r, nil
	} else if err != nil {
		return fail(&PersistenceError{Op: "load", Key: OldKey, Err: err})
	}

	r.Changes = tree.Diff(old, cur, "")
	if len(r.Changes) == 0 {
		log.Println("no changes")
		return r, nil
	}
	log.Printf("%d changes detected", len(r.Changes))

	for _, ch := range r.Changes {
		if err := e.notifier.Notify(ctx, ch.String()); err != nil {
			r.Failed++
			var de *notify.DeliveryError
			if !errors.As(err, &de) {
				err = &notify.DeliveryError{Notifier: e.notifier.Name(), Text: ch.String(), Err: err}
			}
			log.Printf("%s", err)
			continue
		}
		r.Delivered++
		log.Println("notified", ch.Kind, ch.Path)
		e.record(ch, c.HistorySize)
	}
	if err := ctx.Err(); err != nil {
		//shutting down mid delivery, keep old so the rest is reported next run
		r.Error = err.Error()
		return r, err
	}

	if err := e.store.Save(OldKey, cur); err != nil {
		perr := &PersistenceError{Op: "save", Key: OldKey, Err: err}
		log.Printf("%s, previous snapshot kept", perr)
		r.Error = perr.Error()
		return r, nil
	}
	r.Replaced = true
	log.Printf("%s updated", OldKey)
	return r, nil
}

func (e *Engine) record(ch tree.Change, size int) {
	if size <= 0 {
		return
	}
	e.mut.Lock()
	defer e.mut.Unlock()
	e.history = append(e.history, Event{Time: time.Now(), Change: ch})
	if over := len(e.history) - size; over > 0 {
		e.history = append(e.history[:0:0], e.history[over:]...)
	}
}

// Reconfigure applies nc to a running engine. Changes that would make the
// stored snapshot meaningless are refused.
func (e *Engine) Reconfigure(nc Config) error {
	e.mut.Lock()
	cur := e.config
	e.mut.Unlock()
	if nc.FolderID == "" {
		nc.FolderID = e.lister.Root()
	}
	status := cur.Validate(&nc)
	if status&ForbidRuntimeChange > 0 {
		return errors.New("config changes affecting the watched tree need a restart")
	}
	if status&NeedUpdateListRate > 0 {
		limiter, err := listLimiter(nc.ListRate)
		if err != nil {
			return err
		}
		e.builder.SetLimiter(limiter)
		log.Printf("list rate set to %q", nc.ListRate)
	}
	e.mut.Lock()
	e.config = nc
	e.mut.Unlock()
	if status&NeedResetInterval > 0 {
		log.Printf("poll interval set to %s", nc.PollInterval)
		select {
		case e.reset <- struct{}{}:
		default:
		}
	}
	return nil
}

func (e *Engine) LastReport() *Report {
	e.mut.Lock()
	defer e.mut.Unlock()
	return e.last
}

// History returns delivered changes, oldest first.
func (e *Engine) History() []Event {
	e.mut.Lock()
	defer e.mut.Unlock()
	return append([]Event(nil), e.history...)
}

// Snapshot is the most recently built tree, nil before the first poll.
func (e *Engine) Snapshot() *tree.Node {
	e.mut.Lock()
	defer e.mut.Unlock()
	if e.current == nil {
		return nil
	}
	return e.current.Clone()
}
