package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/mdapply/cli"
	"github.com/sokinpui/mdapply/internal/tui"
	"github.com/sokinpui/mdapply/internal/ui"
	"github.com/sokinpui/mdapply/mdapply"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}

	app, err := mdapply.New(cfg)
	if err != nil {
		ui.Error("Failed to initialize application: %v", err)
		os.Exit(1)
	}

	p := tea.NewProgram(tui.New(app))
	if _, err := p.Run(); err != nil {
		ui.Error("Error running program: %v", err)
		os.Exit(1)
	}
}
