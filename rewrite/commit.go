package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/creachadair/atomicfile"
	"github.com/signadot/xmlreconcile/debug"
)

// Commit replaces the document at path with data. orig must be what path
// held when it was read; the file is left alone when it no longer does. The
// original bytes are written to the backup path first, unless a backup
// already exists there, then data replaces path through a temporary file
// and a rename.
func Commit(path string, orig, data []byte, opts ...CommitOption) error {
	o := &commitOpts{backupSuffix: DefaultBackupSuffix, mode: 0o644}
	for _, opt := range opts {
		opt(o)
	}
	if o.backupSuffix == "" {
		o.backupSuffix = DefaultBackupSuffix
	}
	cur, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cur = nil
	case err != nil:
		return err
	}
	if !bytes.Equal(cur, orig) {
		return fmt.Errorf("%w: %s", ErrChangedOnDisk, path)
	}
	mode := o.mode
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if cur != nil {
		if err := backup(path+o.backupSuffix, orig, mode); err != nil {
			return fmt.Errorf("could not write backup: %w", err)
		}
	}
	if err := writeFile(path, data, mode); err != nil {
		return err
	}
	if debug.Rewrite() {
		debug.Logf("wrote %s (%d bytes)\n", path, len(data))
	}
	return nil
}

// backup keeps the first backup of a document: the bytes before any run
// changed it.
func backup(path string, data []byte, mode fs.FileMode) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		if debug.Rewrite() {
			debug.Logf("keeping backup %s\n", path)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	if debug.Rewrite() {
		debug.Logf("backup %s\n", path)
	}
	return writeFile(path, data, mode)
}

func writeFile(path string, data []byte, mode fs.FileMode) error {
	f, err := atomicfile.New(path, mode)
	if err != nil {
		return err
	}
	defer f.Cancel()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Close()
}
