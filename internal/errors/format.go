package errors

import (
	"os"
	"strings"
)

// colorEnabled controls ANSI output of Format. It starts off when NO_COLOR
// is set.
var colorEnabled = os.Getenv("NO_COLOR") == ""

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled = false }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled = true }

func paint(sgr, text string) string {
	if !colorEnabled {
		return text
	}
	return "\033[" + sgr + "m" + text + "\033[0m"
}

// Format renders the error for a terminal: a header line with the code,
// then the detail, cause and hint, each on its own indented line.
func (e *Error) Format() string {
	var b strings.Builder

	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}
	b.WriteString("\n" + paint("1;31", head+":") + " " + e.Message + "\n")

	lines := []struct{ label, text string }{
		{"", e.Detail},
		{paint("36", "Cause: "), causeOf(e)},
		{paint("33", "Hint: "), e.Suggestion},
	}
	for _, l := range lines {
		if l.text != "" {
			b.WriteString("\n  " + l.label + l.text + "\n")
		}
	}
	return b.String()
}

func causeOf(e *Error) string {
	if e.Wrapped == nil {
		return ""
	}
	return e.Wrapped.Error()
}
