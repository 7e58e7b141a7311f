package main

import (
	"fmt"
	"os"

	"github.com/signadot/xmlreconcile/locate"

	"github.com/scott-cotton/cli"
)

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		cfg.Check.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	proj, err := cfg.project()
	if err != nil {
		return err
	}
	tab, err := proj.Table(cfg.Rules)
	if err != nil {
		return err
	}
	targets, err := proj.Expand(args)
	if err != nil {
		return err
	}
	log := cfg.log()
	failed := false
	for _, path := range targets {
		n, err := checkFile(path, *tab.Select)
		if err != nil {
			failed = true
			log.Error("check failed", "path", path, "error", err)
			continue
		}
		fmt.Fprintf(cc.Out, "%s: %d %s\n", path, n, tab.Select)
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func checkFile(path string, sel locate.Selector) (int, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if err := locate.WellFormed(d); err != nil {
		return 0, err
	}
	frags, err := locate.Locate(d, sel)
	if err != nil {
		return 0, err
	}
	return len(frags), nil
}
