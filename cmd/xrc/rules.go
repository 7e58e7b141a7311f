package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/signadot/xmlreconcile/rule"

	"github.com/scott-cotton/cli"
)

func rules(cfg *RulesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Rules.Parse(cc, args)
	if err != nil {
		cfg.Rules.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	switch len(args) {
	case 0:
		tw := tabwriter.NewWriter(cc.Out, 0, 4, 2, ' ', 0)
		for _, name := range rule.Names() {
			t := rule.Lookup(name)
			fmt.Fprintf(tw, "%s\t%s\n", name, t.Description)
		}
		return tw.Flush()
	case 1:
	default:
		return fmt.Errorf("%w: rules takes at most one selector, got %v", cli.ErrUsage, args)
	}
	proj, err := cfg.project()
	if err != nil {
		return err
	}
	t, err := proj.Table(args[0])
	if err != nil {
		return err
	}
	d, err := rule.Marshal(t)
	if err != nil {
		return err
	}
	_, err = cc.Out.Write(d)
	return err
}
