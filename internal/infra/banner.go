package infra

import (
	"fmt"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with mode-specific notes.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Hub.Mode)
	version := cfg.App.Version

	color := ColorGreen
	modeDesc := "AUTHORITATIVE HUB"

	switch mode {
	case "MOCK":
		color = ColorYellow
		modeDesc = "MOCK (IN-MEMORY, SINGLE PROCESS)"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#  ElectroWallet Hub v%-10s                          #%s\n", color, version, ColorReset)
	fmt.Printf("%s#  Mode: %-48s #%s\n", color, modeDesc, ColorReset)
	fmt.Printf("%s#  All balances are simulated play money.                 #%s\n", color, ColorReset)
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
