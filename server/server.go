package server

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/boypt/folderwatch/engine"
	"github.com/boypt/folderwatch/fs"
	"github.com/boypt/folderwatch/fs/disk"
	"github.com/boypt/folderwatch/fs/drive"
	"github.com/boypt/folderwatch/fs/dropbox"
	"github.com/boypt/folderwatch/notify"
	"github.com/boypt/folderwatch/server/httpmiddleware"
	"github.com/boypt/folderwatch/storage"
	"github.com/jpillora/cookieauth"
	"github.com/jpillora/requestlog"
	velox "github.com/jpillora/velox/go"
	"github.com/skratchdot/open-golang/open"
)

//Server wires a watcher engine to its collaborators and exposes its state
type Server struct {
	//config
	Title          string `help:"Title of this instance" env:"TITLE"`
	Port           int    `help:"Status server port (0 disables it)" env:"PORT"`
	Host           string `help:"Listening interface (default all)"`
	Auth           string `help:"Optional basic auth in form 'user:password'" env:"AUTH"`
	ConfigPath     string `help:"Configuration file path"`
	Log            bool   `help:"Enable request logging"`
	Open           bool   `help:"Open now with your default browser"`
	DisableLogTime bool   `help:"Don't print timestamp in log"`
	Debug          bool   `help:"Log source file positions"`
	Once           bool   `help:"Poll a single time and exit"`

	engine *engine.Engine
	store  storage.Store

	state struct {
		velox.State
		sync.Mutex
		Config  engine.Config
		Report  *engine.Report
		History []engine.Event
		Users   map[string]string
		Stats   struct {
			Title   string
			Version string
			Runtime string
			Uptime  time.Time
			Source  string
			System  stats
		}
	}
}

// Run the watcher, and the status server when a port is set
func (s *Server) Run(version string) error {
	flags := log.LstdFlags
	if s.DisableLogTime {
		flags = 0
	}
	if s.Debug {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)
	engine.SetLoggerFlag(flags)

	c, err := engine.InitConf(s.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lister, err := newLister(ctx, c)
	if err != nil {
		return fmt.Errorf("%s source: %w", c.Source, err)
	}
	limit, err := c.SnapshotLimit()
	if err != nil {
		return err
	}
	s.store, err = storage.New(storage.Config{Kind: c.SnapshotStore, Dir: c.SnapshotDir, MaxSize: limit})
	if err != nil {
		return err
	}
	defer s.store.Close()
	n, err := newNotifier(c)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	s.engine, err = engine.New(*c, lister, s.store, n)
	if err != nil {
		return err
	}
	if err := s.engine.Verify(ctx); err != nil {
		return err
	}

	if s.Once {
		_, err := s.engine.Tick(ctx)
		return err
	}

	engine.WatchConf(func(nc *engine.Config) {
		if err := s.engine.Reconfigure(*nc); err != nil {
			log.Printf("[config] not applied: %s", err)
			return
		}
		if s.Port != 0 {
			s.state.Lock()
			s.state.Config = s.engine.Config()
			s.state.Unlock()
			s.state.Push()
		}
	})

	if s.Port == 0 {
		if err := s.engine.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	s.state.Stats.Title = s.Title
	s.state.Stats.Version = version
	s.state.Stats.Runtime = strings.TrimPrefix(runtime.Version(), "go")
	s.state.Stats.Uptime = time.Now()
	s.state.Stats.Source = lister.Name()
	s.state.Stats.System.pusher = velox.Pusher(&s.state)
	s.state.Config = s.engine.Config()
	s.state.Users = map[string]string{}

	go s.engine.Run(ctx)
	//poll engine reports
	go func() {
		for {
			s.refresh()
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
		}
	}()
	//start collecting stats
	go func() {
		for {
			s.state.Stats.System.loadStats(s.engine.Config().SnapshotDir)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()

	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", host, s.Port)
	if s.Open {
		openhost := host
		if openhost == "0.0.0.0" {
			openhost = "localhost"
		}
		go func() {
			time.Sleep(1 * time.Second)
			open.Run(fmt.Sprintf("http://%s:%d", openhost, s.Port))
		}()
	}

	server := http.Server{
		Addr:    addr,
		Handler: s.handler(),
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutCtx)
	}()
	log.Printf("[Web] listening at http://%s", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

//handler chain, from last to first
func (s *Server) handler() http.Handler {
	h := http.Handler(http.HandlerFunc(s.webHandle))
	gzipWrap, _ := gziphandler.NewGzipLevelAndMinSize(gzip.DefaultCompression, 0)
	h = gzipWrap(h)
	if s.Auth != "" {
		user := s.Auth
		pass := ""
		if s := strings.SplitN(s.Auth, ":", 2); len(s) == 2 {
			user = s[0]
			pass = s[1]
		}
		h = cookieauth.Wrap(h, user, pass)
		log.Printf("[Web] enabled HTTP authentication")
	}
	h = httpmiddleware.Liveness(h)
	if s.Log {
		h = requestlog.Wrap(h)
	}
	return h
}

func (s *Server) refresh() {
	s.state.Lock()
	s.state.Report = s.engine.LastReport()
	s.state.History = s.engine.History()
	s.state.Unlock()
	s.state.Push()
}

func newLister(ctx context.Context, c *engine.Config) (fs.Lister, error) {
	switch c.Source {
	case "drive":
		return drive.New(ctx, drive.Config{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURI:  c.GoogleRedirectURI,
			RefreshToken: c.GoogleRefreshToken,
		})
	case "dropbox":
		return dropbox.New(dropbox.Config{Token: c.DropboxToken})
	case "disk":
		return disk.New(disk.Config{Base: c.DiskBase})
	}
	return nil, fmt.Errorf("unknown source %q", c.Source)
}

//newNotifier accepts a single name or several joined with '+', eg. discord+log
func newNotifier(c *engine.Config) (notify.Notifier, error) {
	var m notify.Multi
	for _, name := range strings.Split(c.Notifier, "+") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "discord":
			d, err := notify.NewDiscord(notify.DiscordConfig{
				Token:     c.DiscordBotToken,
				ChannelID: c.DiscordChannelID,
			})
			if err != nil {
				return nil, err
			}
			m = append(m, d)
		case "log":
			m = append(m, &notify.Log{})
		default:
			return nil, fmt.Errorf("unknown notifier %q", name)
		}
	}
	if len(m) == 1 {
		return m[0], nil
	}
	return m, nil
}
