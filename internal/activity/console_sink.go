package activity

import (
	"fmt"

	"github.com/fatih/color"
)

// ConsoleSink prints each entry to stdout, color-coded by level,
// grounded on the teacher's color.Red/Yellow/Green console output
// (cmd/verify-signal) generalized from one-off signal checks to every
// activity-log level.
type ConsoleSink struct{}

// NewConsoleSink builds a ConsoleSink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

func (s *ConsoleSink) Emit(e Entry) {
	line := fmt.Sprintf("[%s/%s] %s: %s", e.Category, e.TokenSymbol, e.Level, e.Message)
	switch e.Level {
	case LevelError:
		color.Red(line)
	case LevelWarning:
		color.Yellow(line)
	case LevelSuccess:
		color.Green(line)
	case LevelSkip:
		color.Cyan(line)
	default:
		color.White(line)
	}
}
