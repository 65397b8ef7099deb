package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3pilot/internal/chain"
	"github.com/Mohsinsiddi/w3pilot/internal/engine"
	"github.com/Mohsinsiddi/w3pilot/internal/provider"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrDeclined is what the progress view answers a signing prompt with when
// the user says no.
var ErrDeclined = errors.New("declined at the prompt")

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// steps shown by the progress view, in pipeline order
var steps = []struct {
	phase engine.Phase
	label string
}{
	{engine.PhasePreparing, "Checking wallet, network and balance"},
	{engine.PhaseAwaitingUserConfirmation, "Waiting for signature"},
	{engine.PhaseConfirming, "Waiting for receipt"},
}

type (
	transitionMsg engine.Transition
	finishedMsg   struct {
		res *engine.Result
		err error
	}
	confirmMsg struct {
		chainID int64
		tx      provider.TxParams
		reply   chan error
	}
	tickMsg struct{}
)

// Progress is a bubbletea model that follows one engine attempt. The
// engine runs on its own goroutine; transitions, signing prompts and the
// final result arrive as messages.
type Progress struct {
	title    string
	registry *chain.Registry

	phase      engine.Phase
	failedFrom engine.Phase
	prompt     *confirmMsg
	res        *engine.Result
	err        error
	frame      int
	done       bool
	cancel     context.CancelFunc
	stopped    bool
}

// NewProgress returns a model titled title. cancel is called on ctrl+c.
func NewProgress(title string, registry *chain.Registry, cancel context.CancelFunc) Progress {
	return Progress{title: title, registry: registry, cancel: cancel}
}

// Result returns the attempt's outcome once the model has finished.
func (m Progress) Result() (*engine.Result, error) { return m.res, m.err }

func (m Progress) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case transitionMsg:
		m.phase = msg.To
		if msg.To == engine.PhaseFailed {
			m.failedFrom = msg.From
		}
	case confirmMsg:
		m.prompt = &msg
	case finishedMsg:
		m.res, m.err, m.done = msg.res, msg.err, true
		m.answer(ErrDeclined)
		return m, tea.Quit
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.answer(ErrDeclined)
			if m.cancel != nil && !m.stopped {
				m.cancel()
				m.stopped = true
			}
		case "y", "Y":
			m.answer(nil)
		case "n", "N", "esc", "enter":
			m.answer(ErrDeclined)
		}
	}
	return m, nil
}

func (m *Progress) answer(err error) {
	if m.prompt == nil {
		return
	}
	m.prompt.reply <- err
	m.prompt = nil
}

func (m Progress) View() string {
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(m.title) + "\n")

	for _, s := range steps {
		var mark string
		switch {
		case m.phase == s.phase && !m.done:
			mark = StyleChain.Render(spinnerFrames[m.frame%len(spinnerFrames)])
		case m.reached(s.phase):
			mark = StyleSuccess.Render("✓")
		case m.phase == engine.PhaseFailed && m.failedFrom == s.phase:
			mark = StyleError.Render("✗")
		default:
			mark = StyleMeta.Render("·")
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", mark, s.label))
	}

	if m.prompt != nil {
		sb.WriteString("\n" + m.promptText() + "\n")
		sb.WriteString(StyleWarning.Render("  Sign and send? [y/N]") + "\n")
	}
	if m.stopped && !m.done {
		sb.WriteString(StyleMeta.Render("  cancelling…") + "\n")
	}
	return sb.String()
}

// reached reports whether the attempt moved past p.
func (m Progress) reached(p engine.Phase) bool {
	if m.phase == engine.PhaseSucceeded {
		return true
	}
	if m.phase == engine.PhaseFailed {
		return p < m.failedFrom
	}
	return m.phase > p
}

func (m Progress) promptText() string {
	p := m.prompt
	symbol, decimals := "ETH", 18
	name := fmt.Sprintf("chain %d", p.chainID)
	if m.registry != nil {
		if cfg, err := m.registry.Lookup(p.chainID); err == nil {
			symbol, decimals, name = cfg.NativeCurrencySymbol, cfg.NativeCurrencyDecimals, cfg.DisplayName
		}
	}
	to := "new contract"
	if p.tx.To != nil {
		to = p.tx.To.Hex()
	}
	pairs := [][2]string{
		{"Network", name},
		{"From", p.tx.From.Hex()},
		{"To", to},
		{"Value", chain.FormatUnits(p.tx.Value, decimals) + " " + symbol},
		{"Gas limit", fmt.Sprintf("%d", p.tx.Gas)},
		{"Gas price", chain.FormatGwei(p.tx.GasPrice) + " gwei"},
	}
	return KeyValueBlock("Review transaction", pairs)
}

// RunProgress executes req on e while rendering progress. A provider
// configured with PromptConfirm asks for signatures inside the view.
func RunProgress(ctx context.Context, e *engine.Engine, req engine.Request, title string, opts ...tea.ProgramOption) (*engine.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewProgress(title, e.Registry(), cancel), opts...)
	unsubscribe := e.Subscribe(func(t engine.Transition) { prog.Send(transitionMsg(t)) })
	defer unsubscribe()

	promptCtx := withProgram(ctx, prog)
	go func() {
		res, err := e.Execute(promptCtx, req)
		prog.Send(finishedMsg{res: res, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	return final.(Progress).Result()
}

type programKey struct{}

func withProgram(ctx context.Context, p *tea.Program) context.Context {
	return context.WithValue(ctx, programKey{}, p)
}

// PromptConfirm is a provider.ConfirmFunc. Inside RunProgress it asks
// through the progress view; elsewhere it falls back to fallback.
func PromptConfirm(fallback provider.ConfirmFunc) provider.ConfirmFunc {
	return func(ctx context.Context, chainID int64, tx provider.TxParams) error {
		p, ok := ctx.Value(programKey{}).(*tea.Program)
		if !ok {
			if fallback == nil {
				return nil
			}
			return fallback(ctx, chainID, tx)
		}
		reply := make(chan error, 1)
		p.Send(confirmMsg{chainID: chainID, tx: tx, reply: reply})
		select {
		case err := <-reply:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
