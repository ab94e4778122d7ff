package buildlog

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Level is the advisory severity attached to a captured output line.
type Level string

const (
	LevelDebug   Level = "DEBUG"
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Record is one annotated line of build output. Immutable once built;
// it is written exactly once to each sink.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	ElapsedMin float64   `json:"elapsed_min"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
}

// Format renders the on-disk/console line:
// "YYYY-MM-DD HH:MM:SS - <elapsed>.<ms> min - LEVEL - message"
func (r Record) Format() string {
	return fmt.Sprintf("%s - %.3f min - %s - %s",
		r.Timestamp.Format("2006-01-02 15:04:05"), r.ElapsedMin, r.Level, r.Message)
}

// Classifier maps an output line to a severity. Classification is
// advisory only; it never gates whether a line is propagated.
type Classifier func(line string) Level

// DefaultClassifier flags lines containing "error" as ERROR and "warn"
// as WARNING (case-insensitive); everything else is INFO.
func DefaultClassifier(line string) Level {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return LevelError
	case strings.Contains(lower, "warn"):
		return LevelWarning
	default:
		return LevelInfo
	}
}

// Elapsed returns whole minutes since start rounded to 3 decimal
// places. Negative clock skew clamps to zero so a session never
// reports time running backwards.
func Elapsed(start, now time.Time) float64 {
	m := now.Sub(start).Minutes()
	if m < 0 {
		m = 0
	}
	return math.Round(m*1000) / 1000
}
