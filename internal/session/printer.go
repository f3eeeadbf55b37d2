package session

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const (
	Prompt  = "\n[Anda]: "
	ByeText = "\n[Bye] Terima kasih! Sampai jumpa!"
)

// Printer writes the fixed status lines of the chatbot.
type Printer struct {
	out   io.Writer
	title *color.Color
	ok    *color.Color
	warn  *color.Color
	bot   *color.Color
	err   *color.Color
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:   out,
		title: color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bot:   color.New(color.FgHiBlue),
		err:   color.New(color.FgRed),
	}
}

func (p *Printer) Banner() {
	p.title.Fprintln(p.out, "[Bot] Chatbot RAG - Sesi Tanya Jawab")
	fmt.Fprintln(p.out, strings.Repeat("=", 40))
}

func (p *Printer) OK(msg string) {
	p.ok.Fprintf(p.out, "[OK] %s\n", msg)
}

// Warning prints msg as-is; callers include their own marker.
func (p *Printer) Warning(msg string) {
	p.warn.Fprintln(p.out, msg)
}

func (p *Printer) Instructions() {
	fmt.Fprintln(p.out, "\nKetik pertanyaan Anda (ketik 'quit' atau 'exit' untuk keluar):")
	fmt.Fprintln(p.out, strings.Repeat("-", 40))
}

func (p *Printer) Answer(text string) {
	p.bot.Fprintf(p.out, "\n[Bot]: %s\n", text)
}

func (p *Printer) Error(err error) {
	p.err.Fprintf(p.out, "\n[Error]: %s\n", err)
}

// Fatal prints a setup failure. msg already carries its marker.
func (p *Printer) Fatal(msg string) {
	p.err.Fprintln(p.out, msg)
}

func (p *Printer) Bye() {
	fmt.Fprintln(p.out, ByeText)
}
