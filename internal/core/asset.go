package core

import "github.com/quasar/launchercore/internal/hashutil"

// Asset is a remote-to-local binding: the unit an Index Processor emits
// from validate and the Download Engine consumes. Not persisted; created
// fresh on every validation pass.
type Asset struct {
	ID        string
	URL       string
	Size      int64
	Algorithm hashutil.Algorithm
	Hash      string // lower-case hex digest
	Path      string // absolute local path
}

// IsValid reports whether Path already holds content matching Hash under
// Algorithm. An Asset with no Hash is never considered valid by this
// check; the caller decides whether that's grounds to (re)download.
func (a Asset) IsValid() bool {
	if a.Hash == "" {
		return false
	}
	return hashutil.Matches(a.Path, a.Algorithm, a.Hash)
}
