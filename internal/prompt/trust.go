package prompt

import (
	"fmt"
	"strings"

	"ghclient/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

// TrustModel asks whether to accept a certificate that failed verification.
// Anything but an explicit yes declines.
type TrustModel struct {
	host     string
	accepted bool
	answered bool
	width    int
	logger   *logging.AppLogger
}

func NewTrustModel(host string, logger *logging.AppLogger) *TrustModel {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &TrustModel{host: host, width: 80, logger: logger}
}

func (m *TrustModel) Init() tea.Cmd { return nil }

func (m *TrustModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.logger.LogMessage(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch strings.ToLower(msg.String()) {
		case "y":
			m.accepted = true
		case "n", "enter", "esc", "ctrl+c":
			m.accepted = false
		default:
			return m, nil
		}
		m.answered = true
		m.logger.LogUserAction("certificate_trust", fmt.Sprintf("%s accepted=%t", m.host, m.accepted))
		return m, tea.Quit
	}
	return m, nil
}

func (m *TrustModel) View() string {
	if m.answered {
		return ""
	}
	text := fmt.Sprintf("The certificate presented by %s could not be verified. "+
		"Accepting it disables certificate checks for this host until ghclient exits.", m.host)

	var b strings.Builder
	b.WriteString(WarningStyle.Render("Untrusted server certificate"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(wordwrap.String(text, max(m.width-4, 20))))
	b.WriteString("\n")
	b.WriteString(FocusedLabelStyle.Render(fmt.Sprintf("Trust %s? [y/N]", m.host)))
	return b.String()
}

// Accepted reports the user's answer.
func (m *TrustModel) Accepted() bool { return m.accepted }
