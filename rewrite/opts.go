package rewrite

import "io/fs"

// DefaultBackupSuffix is appended to a document path to name its backup.
const DefaultBackupSuffix = ".bak"

type commitOpts struct {
	backupSuffix string
	mode         fs.FileMode
}

type CommitOption func(*commitOpts)

// BackupSuffix sets the backup suffix; the empty string keeps the default.
func BackupSuffix(s string) CommitOption {
	return func(o *commitOpts) { o.backupSuffix = s }
}

// Mode sets the file mode used when path does not exist yet.
func Mode(m fs.FileMode) CommitOption {
	return func(o *commitOpts) { o.mode = m }
}
