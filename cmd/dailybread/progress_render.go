package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"dailybread/internal/progress"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// progressPrinter renders progress events as one line each.
type progressPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, colorize: shouldColorize(out)}
}

func (p *progressPrinter) Emit(_ context.Context, event progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, formatProgressLine(event, p.colorize))
}

func formatProgressLine(event progress.Event, colorize bool) string {
	var b strings.Builder
	if event.Total > 0 {
		width := len(fmt.Sprint(event.Total))
		fmt.Fprintf(&b, "[%*d/%d] ", width, event.Day, event.Total)
	}
	if event.Date != "" {
		b.WriteString(event.Date)
		b.WriteByte(' ')
	}
	step := event.Step
	if event.Code != "" {
		step += " " + event.Code
	}
	if step != "" {
		prefix := step + ":"
		if colorize {
			prefix = ansiDim + prefix + ansiReset
		}
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	message := event.Message
	switch event.Kind {
	case progress.KindError:
		detail := strings.TrimSpace(event.Error)
		if detail == "" && event.Err != nil {
			detail = event.Err.Error()
		}
		message = "ERROR " + message
		if detail != "" {
			message += ": " + detail
		}
		if colorize {
			message = ansiRed + message + ansiReset
		}
	case progress.KindComplete:
		if colorize {
			message = ansiGreen + message + ansiReset
		}
	default:
		if colorize && strings.HasPrefix(message, "skipping") {
			message = ansiYellow + message + ansiReset
		}
	}
	b.WriteString(message)
	return b.String()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
