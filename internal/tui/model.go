package tui

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/domain"
	"ragchat/internal/session"
)

type role int

const (
	roleUser role = iota
	roleBot
	roleError
	roleSystem
)

type entry struct {
	role  role
	text  string
	query string
}

// answerMsg carries the result of one asynchronous Answer call.
type answerMsg struct {
	query string
	text  string
	err   error
}

// Model is the Bubble Tea chat view. It follows the same rules as the
// line-based session: exit keywords quit, blank input is ignored and
// failed answers are shown without ending the conversation.
type Model struct {
	ctx        context.Context
	answerer   domain.Answerer
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []entry
	summary    string
	status     string
	busy       bool
	ready      bool
	state      session.State
}

// New creates a chat view. status is shown under the input until the
// first answer arrives.
func New(ctx context.Context, answerer domain.Answerer, summary, status string) Model {
	ti := textinput.New()
	ti.Prompt = "[Anda]: "
	ti.Placeholder = "Ketik pertanyaan, 'quit' atau 'exit' untuk keluar"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		answerer: answerer,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		summary:  summary,
		status:   status,
		state:    session.Running,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// State reports whether the conversation has ended.
func (m Model) State() session.State { return m.state }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{role: roleError, text: msg.err.Error()})
			m.status = "Error"
		} else {
			m.transcript = append(m.transcript, entry{role: roleBot, text: msg.text, query: msg.query})
			m.status = ""
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.state = session.Terminated
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if session.IsExit(q) {
		m.state = session.Terminated
		m.transcript = append(m.transcript, entry{role: roleSystem, text: strings.TrimSpace(session.ByeText)})
		m.refresh()
		return m, tea.Quit
	}
	if q == "" || m.busy {
		return m, nil
	}
	m.busy = true
	m.status = ""
	m.transcript = append(m.transcript, entry{role: roleUser, text: q})
	m.refresh()
	return m, tea.Batch(m.ask(q), m.spinner.Tick)
}

func (m Model) ask(query string) tea.Cmd {
	ctx, answerer := m.ctx, m.answerer
	return func() tea.Msg {
		text, err := session.Ask(ctx, answerer, query)
		return answerMsg{query: query, text: text, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the TUI layout and the conversation so far.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("[Bot] Chatbot RAG - Sesi Tanya Jawab")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " menunggu jawaban..."
	}
	status = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "Belum ada pertanyaan."
	}
	lines := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		switch e.role {
		case roleUser:
			lines = append(lines, userStyle.Render("[Anda]: ")+e.text)
		case roleBot:
			lines = append(lines, botStyle.Render("[Bot]: ")+highlightBestSentence(e.text, e.query))
		case roleError:
			lines = append(lines, errorStyle.Render("[Error]: "+e.text))
		default:
			lines = append(lines, e.text)
		}
	}
	return strings.Join(lines, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	unicodeWordRe      = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe         = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the sentence of an answer that shares
// the most words with the question. Answers of one sentence are left alone.
func highlightBestSentence(text, query string) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) < 2 || strings.Join(sentences, "") != text {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	bestIdx, bestScore := 0, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestScore == 0 {
		return text
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range toTokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
