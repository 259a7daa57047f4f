package wifiscan

import (
	"fmt"
	"io"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the diagnostics logger. The scan table is written to the
// console separately and never passes through here. The returned closer
// releases the log file, if any.
func NewLogger(config LogConfig) (*logrus.Logger, io.Closer) {
	out := logOutput(config)

	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if config.Verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	if config.Journald && journal.Enabled() {
		log.AddHook(JournalHook{})
	}

	return log, out
}

type stderrOutput struct {
	io.Writer
}

// Close leaves stderr open for whoever else is using it.
func (stderrOutput) Close() error {
	return nil
}

func logOutput(config LogConfig) io.WriteCloser {
	if config.File == "" {
		return stderrOutput{os.Stderr}
	}

	return &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
	}
}

var _ logrus.Hook = JournalHook{}

// JournalHook copies log entries into the systemd journal.
type JournalHook struct {
	send func(message string, priority journal.Priority, vars map[string]string) error
}

func (t JournalHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (t JournalHook) Fire(entry *logrus.Entry) error {
	send := t.send
	if send == nil {
		send = journal.Send
	}

	vars := make(map[string]string, len(entry.Data))
	for k, v := range entry.Data {
		vars[journalField(k)] = fmt.Sprint(v)
	}

	return send(entry.Message, journalPriority(entry.Level), vars)
}

func journalPriority(level logrus.Level) journal.Priority {
	switch level {
	case logrus.PanicLevel:
		return journal.PriEmerg
	case logrus.FatalLevel:
		return journal.PriCrit
	case logrus.ErrorLevel:
		return journal.PriErr
	case logrus.WarnLevel:
		return journal.PriWarning
	case logrus.InfoLevel:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journald only accepts upper case letters, digits and underscores in
// field names, and they may not start with an underscore.
func journalField(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	for len(out) > 0 && out[0] == '_' {
		out = out[1:]
	}
	if len(out) == 0 {
		return "FIELD"
	}
	return string(out)
}
