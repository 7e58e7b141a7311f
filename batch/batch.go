// Package batch drives locating, reconciling and rewriting over a set of
// documents and reports on the outcome of each.
package batch

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/signadot/xmlreconcile/locate"
	"github.com/signadot/xmlreconcile/reconcile"
	"github.com/signadot/xmlreconcile/rewrite"
	"github.com/signadot/xmlreconcile/rule"
)

var ErrNoTable = errors.New("no rule table")

type Config struct {
	// Targets are document paths, already expanded.
	Targets []string
	Table   *rule.Table
	// DryRun stops each document at Validated.
	DryRun bool
	// BackupSuffix names the backup written next to each document; empty
	// means rewrite.DefaultBackupSuffix.
	BackupSuffix string
	Log          *slog.Logger
}

// DocResult is what happened to one document.
type DocResult struct {
	Path  string
	Name  string
	State State
	// fragment counts
	Found      int
	Modified   int
	Dropped    int
	Skipped    int
	Unresolved int

	Changes  []reconcile.Change
	Warnings []*reconcile.UnresolvedRule
	Err      error

	// Before and After hold the document around a validated rewrite.
	Before []byte
	After  []byte
}

// Run processes every target in order. It never stops early: a rejected
// document is recorded and the next one is tried.
func Run(cfg *Config) *Report {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	rep := &Report{DryRun: cfg.DryRun}
	var tabErr error
	switch {
	case cfg.Table == nil:
		tabErr = ErrNoTable
	case !cfg.Table.Compiled():
		tabErr = cfg.Table.Compile()
	}
	for _, path := range cfg.Targets {
		d := &DocResult{Path: path, Name: DocName(path)}
		if tabErr != nil {
			d.reject(tabErr)
		} else {
			process(cfg, d, log)
		}
		if d.State == Rejected {
			log.Warn("rejected", "path", path, "error", d.Err)
		} else {
			log.Debug("done", "path", path, "state", d.State, "found", d.Found, "modified", d.Modified)
		}
		rep.Docs = append(rep.Docs, d)
	}
	return rep
}

func (d *DocResult) reject(err error) {
	d.State = Rejected
	d.Err = err
}

func process(cfg *Config, d *DocResult, log *slog.Logger) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		d.reject(err)
		return
	}
	frags, err := locate.Locate(data, *cfg.Table.Select)
	if err != nil {
		d.reject(err)
		return
	}
	d.Found = len(frags)
	d.State = Located
	log.Debug("located", "path", d.Path, "found", d.Found, "select", cfg.Table.Select.String())

	var repls []rewrite.Replacement
	for i := range frags {
		res, err := reconcile.Reconcile(frags[i], cfg.Table)
		if err != nil {
			d.reject(err)
			return
		}
		d.Warnings = append(d.Warnings, res.Unresolved...)
		if len(res.Unresolved) != 0 {
			d.Unresolved++
		}
		if res.Dropped {
			d.Dropped++
			d.Changes = append(d.Changes, res.Changes...)
			repls = append(repls, rewrite.Drop(data, frags[i]))
			continue
		}
		if !res.Modified() {
			if len(res.Unresolved) == 0 {
				d.Skipped++
			}
			continue
		}
		d.Modified++
		d.Changes = append(d.Changes, res.Changes...)
		repls = append(repls, rewrite.Replacement{Fragment: frags[i], Text: res.Text})
	}
	d.State = Reconciled
	if len(repls) == 0 {
		d.State = Validated
		return
	}
	out, err := rewrite.Rewrite(data, repls)
	if err != nil {
		d.reject(err)
		return
	}
	d.State = Validated
	d.Before, d.After = data, out
	if cfg.DryRun {
		return
	}
	if err := rewrite.Commit(d.Path, data, out, rewrite.BackupSuffix(cfg.BackupSuffix)); err != nil {
		d.reject(err)
		return
	}
	d.State = Written
}

// DocName is the document part of report lines: the table directory for an
// Entity.xml, else the base name without extension.
func DocName(path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(base, "Entity.xml") {
		if dir := filepath.Base(filepath.Dir(path)); dir != "." && dir != string(filepath.Separator) {
			return dir
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
