// Package session runs the interactive question-and-answer loop.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"ragchat/internal/domain"
	"ragchat/internal/telemetry"
)

// State of the loop. There is no way back from Terminated.
type State int

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	if s == Terminated {
		return "terminated"
	}
	return "running"
}

var exitWords = []string{"quit", "exit", "keluar"}

// IsExit reports whether input is one of the exit keywords, ignoring case
// and surrounding whitespace.
func IsExit(input string) bool {
	input = strings.TrimSpace(input)
	for _, w := range exitWords {
		if strings.EqualFold(input, w) {
			return true
		}
	}
	return false
}

// Session reads questions line by line and prints the answers.
type Session struct {
	in       *bufio.Reader
	out      io.Writer
	answerer domain.Answerer
	printer  *Printer
}

func New(in io.Reader, out io.Writer, answerer domain.Answerer) *Session {
	return &Session{
		in:       bufio.NewReader(in),
		out:      out,
		answerer: answerer,
		printer:  NewPrinter(out),
	}
}

// Handle processes one line of input. Answer errors are printed and the
// session keeps running.
func (s *Session) Handle(ctx context.Context, line string) State {
	query := strings.TrimSpace(line)
	if IsExit(query) {
		s.printer.Bye()
		return Terminated
	}
	if query == "" {
		return Running
	}

	answer, err := Ask(ctx, s.answerer, query)
	if err != nil {
		s.printer.Error(err)
		return Running
	}
	s.printer.Answer(answer)
	return Running
}

// Run prompts until an exit keyword or the end of input. Lines of any
// length are read whole.
func (s *Session) Run(ctx context.Context) error {
	s.printer.Instructions()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, Prompt)
		line, err := s.in.ReadString('\n')
		if line != "" && s.Handle(ctx, line) == Terminated {
			return nil
		}
		if errors.Is(err, io.EOF) {
			s.printer.Bye()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
}

// Ask answers one question inside its own telemetry transaction.
func Ask(ctx context.Context, answerer domain.Answerer, query string) (string, error) {
	ctx, span := telemetry.StartTransaction(ctx, "answer", "chat.turn")
	telemetry.AddBreadcrumb(ctx, "chat", fmt.Sprintf("question (%d chars)", utf8.RuneCountInString(query)))
	answer, err := answerer.Answer(ctx, query)
	if err != nil {
		telemetry.CaptureError(ctx, err)
	}
	span.End(err)
	return answer, err
}
