package service

import (
	"fmt"
	"log/slog"
)

// RunLog collects the human-readable lines of one sync pass, in order.
// Every line is mirrored to the structured logger.
type RunLog struct {
	lines  []string
	logger *slog.Logger
}

func NewRunLog(logger *slog.Logger) *RunLog {
	return &RunLog{
		lines:  []string{},
		logger: logger,
	}
}

func (l *RunLog) Add(line string) {
	l.lines = append(l.lines, line)
	if l.logger != nil {
		l.logger.Info("sync log", "line", line)
	}
}

func (l *RunLog) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the collected lines.
func (l *RunLog) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *RunLog) Len() int {
	return len(l.lines)
}
