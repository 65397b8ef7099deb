package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // confirmed, succeeded
	ColorWarning   = lipgloss.Color("#FFB800") // prompts, degraded values
	ColorError     = lipgloss.Color("#FF4444")
	ColorAddress   = lipgloss.Color("#00B4D8") // addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF")
	ColorMeta      = lipgloss.Color("#555555")
	ColorBorder    = lipgloss.Color("#1E3A5F")
	ColorChain     = lipgloss.Color("#9B5DE5")
	ColorHighlight = lipgloss.Color("#F15BB5")
	ColorInfo      = lipgloss.Color("#4EA8DE")
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)
)

// Banner is printed by the bare root command.
func Banner() string {
	name := StyleChain.Render("w3pilot")
	tagline := StyleMeta.Render("multichain transactions with policy-driven gas")
	return name + "  " + tagline + "\n"
}

func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

func Err(msg string) string { return StyleError.Render("✗ " + msg) }

func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint renders remediation text, e.g. a faucet link.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

func Addr(a string) string { return StyleAddress.Render(a) }

func Val(v string) string { return StyleValue.Render(v) }

func Meta(m string) string { return StyleMeta.Render(m) }

func ChainName(c string) string { return StyleChain.Render(c) }

// TruncateAddr shortens an address or hash for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
