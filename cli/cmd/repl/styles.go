package repl

import "github.com/charmbracelet/lipgloss"

// Terminal colors use the 16-color ANSI palette so the REPL follows the
// user's theme.
var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	echoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// Candidate bar.
	candidateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))

	// Signature hint.
	hintNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	hintParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
