package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "xrc").
		WithSynopsis("xrc [opts] command [opts]").
		WithDescription("xrc reconciles the child elements of XML fragments with rule tables.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return xrcMain(cfg, cc, args)
		}).
		WithSubs(
			ApplyCommand(cfg),
			RulesCommand(cfg),
			CheckCommand(cfg))
}

func ApplyCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ApplyConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Apply, "apply").
		WithAliases("a").
		WithSynopsis("apply [-rules sel] [-n] [-diff] [-backup sfx] [files]").
		WithDescription(applyDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return apply(cfg, cc, args)
		})
}

const applyDescription = `apply reconciles documents with a rule table.

Files may be paths or glob patterns. Without files, the targets of the
project file are used, or else

  solution/Other/Customizations.xml
  solution/Tables/*/Entity.xml

The rule selector is a comma separated list of built-in rule set names
(see 'xrc rules') and rule table files. Later entries take precedence.
The default is the project's selector, or 'dataverse'.

For every change a line

  <document>.<field-id>: <element> = <value>

is printed to standard output, followed by a summary on standard error.
Each changed document is backed up next to itself before it is replaced.
An existing backup is kept, so it holds the document as it was before the
first run. Tables with a drop condition remove whole fragments; the line
for such a fragment is '<document>.<field-id> dropped'.
The exit code is 1 when any document was rejected.`

func RulesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RulesConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Rules, "rules").
		WithAliases("r").
		WithSynopsis("rules [selector]").
		WithDescription("list built-in rule sets, or print the composed table of a selector").
		WithRun(func(cc *cli.Context, args []string) error {
			return rules(cfg, cc, args)
		})
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithAliases("c").
		WithSynopsis("check [-rules sel] [files]").
		WithDescription("check documents are well formed and count the fragments a table selects").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}
