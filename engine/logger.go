package engine

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"

	"github.com/boypt/folderwatch/tree"
)

var (
	log *filteredLogger
)

type filteredLogger struct {
	logger *stdlog.Logger
}

//storage ids are long opaque tokens, shorten them so log lines stay readable
func (f *filteredLogger) filteredArg(v ...interface{}) []interface{} {
	for idx, arg := range v {
		if s, ok := arg.(string); ok && isOpaqueID(s) {
			v[idx] = fmt.Sprintf("[%s..]", s[:6])
		}
		if k, ok := arg.(tree.Kind); ok {
			v[idx] = "[" + k.String() + "]"
		}
	}

	return v
}

func isOpaqueID(s string) bool {
	if len(s) < 25 {
		return false
	}
	return !strings.ContainsAny(s, " /.:")
}

func (f *filteredLogger) Println(v ...interface{}) {
	f.logger.Println(f.filteredArg(v...)...)
}
func (f *filteredLogger) Printf(format string, v ...interface{}) {
	f.logger.Printf(format, f.filteredArg(v...)...)
}
func (f *filteredLogger) Fatal(v ...interface{}) {
	f.logger.Fatal(f.filteredArg(v...)...)
}

func init() {
	log = &filteredLogger{
		logger: stdlog.New(os.Stdout, "[engine] ", stdlog.LstdFlags|stdlog.Lmsgprefix),
	}
}

func SetLoggerFlag(flag int) {
	log.logger.SetFlags(flag | stdlog.Lmsgprefix)
}
