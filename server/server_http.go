package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/boypt/folderwatch/engine"
	"github.com/boypt/folderwatch/storage"
	velox "github.com/jpillora/velox/go"
)

var indexTPL = template.Must(template.New("index.html").Delims("[[", "]]").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>[[.Title]]</title>
<script src="/js/velox.js"></script>
</head>
<body>
<h3>[[.Title]] <small>v[[.Version]]</small></h3>
<pre id="state">connecting...</pre>
<script>
var pre = document.getElementById("state");
var state = {};
velox("/sync", state).onupdate = function() {
  pre.textContent = JSON.stringify({Report: state.Report, History: state.History}, null, 2);
};
</script>
</body>
</html>
`))

func (s *Server) webHandle(w http.ResponseWriter, r *http.Request) {

	switch r.URL.Path {

	case "/", "/index.html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		indexTPL.Execute(w, s.state.Stats)
	case "/sync":
		//handle realtime client connections, setting content-encoding to avoid gzip buffer
		w.Header().Set("Content-Encoding", "identity")
		conn, err := velox.Sync(&s.state, w, r)
		if err != nil {
			log.Printf("[Web] sync failed: %s", err)
			return
		}
		s.state.Lock()
		s.state.Users[conn.ID()] = r.RemoteAddr
		s.state.Unlock()
		s.state.Push()
		conn.Wait()
		s.state.Lock()
		delete(s.state.Users, conn.ID())
		s.state.Unlock()
		s.state.Push()
	case "/js/velox.js":
		velox.JS.ServeHTTP(w, r)
	case "/api/state":
		s.apiState(w, r)
	case "/api/snapshot":
		s.apiSnapshot(w, r)
	default:
		http.NotFound(w, r)
	}
}

type treeSize struct {
	Folders int `json:"folders"`
	Files   int `json:"files"`
}

type stateResponse struct {
	Source  string         `json:"source"`
	Config  engine.Config  `json:"config"`
	Tree    treeSize       `json:"tree"`
	Report  *engine.Report `json:"report"`
	History []engine.Event `json:"history"`
	System  stats          `json:"system"`
}

func (s *Server) apiState(w http.ResponseWriter, r *http.Request) {
	//nil before the first poll, counted as empty
	folders, files := s.engine.Snapshot().Count()
	s.state.Lock()
	resp := stateResponse{
		Source:  s.state.Stats.Source,
		Config:  s.engine.Config(),
		Tree:    treeSize{Folders: folders, Files: files},
		Report:  s.engine.LastReport(),
		History: s.engine.History(),
		System:  s.state.Stats.System,
	}
	s.state.Unlock()
	writeJSON(w, resp)
}

func (s *Server) apiSnapshot(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Load(engine.OldKey)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "no snapshot yet", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, n)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("[Web] write failed: %s", err)
	}
}
