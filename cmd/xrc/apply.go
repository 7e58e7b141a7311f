package main

import (
	"os"

	"github.com/signadot/xmlreconcile/batch"
	"github.com/signadot/xmlreconcile/libdiff"

	"github.com/scott-cotton/cli"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		cfg.Apply.Usage(cc, err)
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
	backup := proj.Backup()
	if cfg.Backup != "" {
		backup = cfg.Backup
	}
	log := cfg.log()
	log.Debug("apply", "rules", tab.Name, "targets", len(targets), "dryRun", cfg.DryRun)
	rep := batch.Run(&batch.Config{
		Targets:      targets,
		Table:        tab,
		DryRun:       cfg.DryRun,
		BackupSuffix: backup,
		Log:          log,
	})
	if cfg.Diff {
		var dc *libdiff.Colors
		if cfg.colors(os.Stdout) {
			dc = libdiff.NewColors()
		}
		if err := rep.WriteDiff(cc.Out, dc); err != nil {
			return err
		}
	}
	if err := rep.WriteLines(cc.Out); err != nil {
		return err
	}
	var sc *batch.Colors
	if cfg.colors(os.Stderr) {
		sc = batch.NewColors()
	}
	if err := rep.WriteSummary(os.Stderr, sc); err != nil {
		return err
	}
	if rep.Failed() {
		return cli.ExitCodeErr(1)
	}
	return nil
}
