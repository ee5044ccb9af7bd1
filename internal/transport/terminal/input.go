package terminal

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"trivia-quiz/internal/domain"
)

// ParseSelection maps a typed line to a selection: a number picks the answer
// with that key, anything else is matched against the answer text.
func ParseSelection(line string) domain.Selection {
	line = strings.TrimSpace(line)
	if n, err := strconv.Atoi(line); err == nil && n > 0 {
		return domain.Selection{Index: n}
	}
	return domain.Selection{Answer: line}
}

// lineReader reads lines from one goroutine and hands them to whichever stage
// of the shell is waiting: a form prompt or the running game.
type lineReader struct {
	lines   <-chan string
	pending []string
}

func newLineReader(in io.Reader) *lineReader {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return &lineReader{lines: lines}
}

// next returns the next line, io.EOF once input is closed.
func (r *lineReader) next(ctx context.Context) (string, error) {
	if len(r.pending) > 0 {
		line := r.pending[0]
		r.pending = r.pending[1:]
		return line, nil
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// selections forwards lines as selections until stop is called. A line read
// but not yet delivered when stop runs is kept for the next prompt.
func (r *lineReader) selections(ctx context.Context) (<-chan domain.Selection, func()) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan domain.Selection)
	done := make(chan struct{})
	var unsent []string

	go func() {
		defer close(done)
		for {
			var line string
			select {
			case <-ctx.Done():
				return
			case l, ok := <-r.lines:
				if !ok {
					close(out)
					return
				}
				line = l
			}
			select {
			case <-ctx.Done():
				unsent = append(unsent, line)
				return
			case out <- ParseSelection(line):
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
		r.pending = append(r.pending, unsent...)
	}
	return out, stop
}
