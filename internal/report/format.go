package report

import (
	"io"
	"strings"

	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/muesli/termenv"
)

// Level is the semantic weight of a status line.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelSkip
	LevelWarn
	LevelError
)

// Tag returns the fixed-width bracket tag printed in front of a status line.
func (l Level) Tag() string {
	switch l {
	case LevelSuccess:
		return "[ OK ]"
	case LevelSkip:
		return "[SKIP]"
	case LevelWarn:
		return "[WARN]"
	case LevelError:
		return "[FAIL]"
	default:
		return "[INFO]"
	}
}

// Formatter colours status lines for a given terminal profile. It holds no
// mutable state and is safe to copy.
type Formatter struct {
	profile termenv.Profile
}

// NewFormatter picks a colour profile for w, honouring NO_COLOR and falling
// back to plain text when w is not a terminal.
func NewFormatter(w io.Writer) Formatter {
	return Formatter{profile: termenv.NewOutput(w).EnvColorProfile()}
}

// PlainFormatter returns a Formatter that never emits escape sequences.
func PlainFormatter() Formatter {
	return Formatter{profile: termenv.Ascii}
}

// Format returns msg prefixed with the level's tag, coloured for the profile.
func (f Formatter) Format(level Level, msg string) string {
	tag := f.profile.String(level.Tag()).Foreground(f.profile.Color(levelColor(level)))
	if level == LevelError {
		tag = tag.Bold()
	}
	return tag.String() + " " + msg
}

// Heading renders a section title ("Creating directory structure...").
func (f Formatter) Heading(title string) string {
	return f.profile.String(title).Foreground(f.profile.Color("4")).Bold().String()
}

// Banner renders title inside a boxed frame using the brand gold.
func (f Formatter) Banner(lines ...string) string {
	const inner = 62
	gold := f.profile.Color(goldHex())
	frame := func(s string) string { return f.profile.String(s).Foreground(gold).String() }

	var b strings.Builder
	b.WriteString(frame("╔"+strings.Repeat("═", inner)+"╗") + "\n")
	b.WriteString(frame("║"+strings.Repeat(" ", inner)+"║") + "\n")
	for _, line := range lines {
		text := "  " + line
		pad := inner - len([]rune(text))
		if pad < 0 {
			pad = 0
		}
		body := f.profile.String(text).Foreground(f.profile.Color("5")).String()
		b.WriteString(frame("║") + body + strings.Repeat(" ", pad) + frame("║") + "\n")
	}
	b.WriteString(frame("║"+strings.Repeat(" ", inner)+"║") + "\n")
	b.WriteString(frame("╚" + strings.Repeat("═", inner) + "╝"))
	return b.String()
}

func levelColor(level Level) string {
	switch level {
	case LevelSuccess:
		return "2"
	case LevelSkip:
		return "6"
	case LevelWarn:
		return "3"
	case LevelError:
		return "1"
	default:
		return "4"
	}
}

func goldHex() string {
	if hex := branding.ColorHex("Rich Gold"); hex != "" {
		return hex
	}
	return "3"
}
