package logs

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/hazzik/Rhino.Net-sub003/cmds"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Logger = *slog.Logger

var level = new(slog.LevelVar)

var (
	jsonOutput = cmds.Switch("-log-json", "log in json")
	addSource  = cmds.Switch("-log-source", "log the go source position of each record")
	noJournal  = cmds.Switch("-log-no-journal", "do not log to the systemd journal")
)

func init() {
	for _, l := range []slog.Level{
		slog.LevelDebug,
		slog.LevelInfo,
		slog.LevelWarn,
		slog.LevelError,
	} {
		name := strings.ToLower(l.String())
		cmds.Define("-log-"+name, cmds.Func(func() {
			level.Set(l)
		}).Desc("set log level to "+name))
	}
}

func (Module) Logger(
	writer Writer,
) Logger {
	var handlers []slog.Handler

	// the journal replaces the terminal for services
	terminal := newTerminalHandler(writer)
	if !isSystemdService() {
		handlers = append(handlers, terminal)
	}

	if !*noJournal {
		journal, err := newJournalHandler()
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.Add("error", err)
			_ = terminal.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journal)
		}
	}

	return slog.New(&Handler{
		Handler: slogmulti.Fanout(handlers...),
	})
}

func newTerminalHandler(writer Writer) slog.Handler {
	options := &slog.HandlerOptions{
		Level:     level,
		AddSource: *addSource,
	}
	if *jsonOutput {
		return slog.NewJSONHandler(writer, options)
	}
	return slog.NewTextHandler(writer, options)
}

func newJournalHandler() (slog.Handler, error) {
	return slogjournal.NewHandler(&slogjournal.Options{
		Level: level,
		ReplaceGroup: func(key string) string {
			return toJournalKey(key)
		},
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a.Key = toJournalKey(a.Key)
			return a
		},
	})
}

// toJournalKey maps key to the journal's field charset, [A-Z0-9_].
func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(str))
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(string(content), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(strings.TrimSpace(parts[2])), ".service")
}
