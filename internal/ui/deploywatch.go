package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chainforge/evmdeploy/internal/deploy"
)

// WatchStatusMsg carries a monitor snapshot into the watch model.
type WatchStatusMsg struct {
	Status deploy.TxStatus
}

// WatchErrMsg reports a monitoring failure.
type WatchErrMsg struct {
	Err error
}

// WatchModel is the Bubble Tea model for a live confirmation watch on one
// transaction hash.
type WatchModel struct {
	TxHash      string
	Network     string
	Target      uint64 // confirmation threshold
	ExplorerURL string

	Status   deploy.TxStatus
	Err      error
	Frame    int
	Quitting bool
	Done     bool
}

type watchTickMsg struct{}

func watchSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m WatchModel) Init() tea.Cmd { return watchSpinTick() }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case watchTickMsg:
		m.Frame = (m.Frame + 1) % len(spinnerFrames)
		return m, watchSpinTick()

	case WatchStatusMsg:
		m.Status = msg.Status
		if terminalState(msg.Status.State) {
			m.Done = true
			return m, tea.Quit
		}

	case WatchErrMsg:
		m.Err = msg.Err
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m WatchModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := spinnerFrames[m.Frame]

	title := fmt.Sprintf("⛓  Deployment Watch  ·  %s  ·  %s",
		TruncateAddr(m.TxHash), m.Network)
	sb.WriteString(StyleTitle.Render(title) + "\n")

	if m.Err != nil {
		sb.WriteString(StyleError.Render("✗ "+m.Err.Error()) + "\n")
		return sb.String()
	}

	switch m.Status.State {
	case deploy.StatePending, "":
		sb.WriteString(StyleInfo.Render(fmt.Sprintf("%s waiting for the transaction to be mined…", spin)) + "\n")

	case deploy.StateConfirming:
		sb.WriteString(StyleInfo.Render(fmt.Sprintf("%s confirming  %d/%d", spin, m.Status.Confirmations, m.Target)) + "\n")
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  mined in block #%d", m.Status.BlockNumber)) + "\n")

	case deploy.StateConfirmed:
		sb.WriteString(StyleSuccess.Render(fmt.Sprintf("✓ confirmed with %d confirmation(s)", m.Status.Confirmations)) + "\n")
		if m.Status.ContractAddress != "" {
			sb.WriteString(StyleMeta.Render("  contract ") + StyleAddress.Render(m.Status.ContractAddress) + "\n")
		}
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  block #%d · gas used %d", m.Status.BlockNumber, m.Status.GasUsed)) + "\n")

	case deploy.StateFailed:
		sb.WriteString(StyleError.Render("✗ transaction reverted on-chain") + "\n")

	case deploy.StateTimedOut:
		sb.WriteString(StyleWarning.Render("⚠ confirmation deadline expired; the transaction may still confirm") + "\n")

	case deploy.StateError:
		sb.WriteString(StyleError.Render("✗ "+m.Status.Message) + "\n")
	}

	if m.ExplorerURL != "" {
		sb.WriteString(StyleMeta.Render("  "+m.ExplorerURL) + "\n")
	}

	if !m.Done {
		sb.WriteString("\n" + StyleMeta.Render("[ q ] quit") + "\n")
	}

	return sb.String()
}

func terminalState(s deploy.TxState) bool {
	switch s {
	case deploy.StateConfirmed, deploy.StateFailed, deploy.StateError, deploy.StateTimedOut:
		return true
	}
	return false
}
