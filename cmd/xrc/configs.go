package main

import (
	"log/slog"
	"os"

	"github.com/signadot/xmlreconcile/batch"

	"github.com/scott-cotton/cli"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Color   bool   `cli:"name=color desc='color output (default: when writing to a terminal)'"`
	Config  string `cli:"name=config desc='project file (default ./xrc.yaml)'"`
	Verbose bool   `cli:"name=v aliases=verbose desc='debug logging'"`

	Main *cli.Command
}

// colors reports whether output to f is colored: as given by -color, or
// when f is a terminal.
func (cfg *MainConfig) colors(f *os.File) bool {
	on := cfg.Color
	colorSet := false
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		colorSet = opt.Value != nil
		break
	}
	if !colorSet {
		on = isatty.IsTerminal(f.Fd())
	}
	color.NoColor = !on
	return on
}

func (cfg *MainConfig) project() (*batch.Project, error) {
	if cfg.Config != "" {
		return batch.OpenProject(cfg.Config)
	}
	return batch.LoadProject(".")
}

func (cfg *MainConfig) log() *slog.Logger {
	return newLog(cfg.Verbose)
}

type ApplyConfig struct {
	*MainConfig
	Rules  string `cli:"name=rules aliases=r desc='rule sets or files, comma separated'"`
	DryRun bool   `cli:"name=n aliases=dry-run desc='report changes without writing'"`
	Diff   bool   `cli:"name=diff desc='print a unified diff of each changed document'"`
	Backup string `cli:"name=backup desc='backup suffix (default .bak)'"`

	Apply *cli.Command
}

type RulesConfig struct {
	*MainConfig

	Rules *cli.Command
}

type CheckConfig struct {
	*MainConfig
	Rules string `cli:"name=rules aliases=r desc='rule sets whose selector is counted'"`

	Check *cli.Command
}
