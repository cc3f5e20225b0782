/*
	Package ustar is a read-only accessor for archives in the POSIX ustar
	tape-archive format.

	It validates archive structural integrity, resolves entries by path
	(chasing symbolic-link chains), classifies entry types, enumerates
	the direct children of a directory, and streams file content with
	offset support -- all against any seekable byte source the caller
	hands in.  It never writes, and it builds no index: every lookup is
	a forward scan of the fixed-size header blocks.

	The layer packages (codec, tape, resolve, stream) are usable on their
	own; this package binds them over one owned cursor into the surface
	most callers want.
*/
package ustar

import (
	"io"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/resolve"
	"go.polydawn.net/ustar/stream"
	"go.polydawn.net/ustar/tape"
)

/*
	Archive is a handle binding one seekable byte source.

	The source is externally owned: opening and closing it is the
	caller's business, and this handle never mutates its contents --
	only its read position.  Operations on one Archive must not be
	invoked concurrently without external locking; every call is a
	sequence of seeks and reads against the one shared position.
*/
type Archive struct {
	cursor *tape.Cursor
}

func New(src io.ReadSeeker) *Archive {
	return &Archive{tape.NewCursor(src)}
}

// Check validates every header in the archive and returns the count of
// entries stored before the end marker.  Fail-fast on the first corrupt
// header; see api.CheckCode for the canonical integer mapping.
func (a *Archive) Check() (int, error) {
	return tape.CheckArchive(a.cursor)
}

// Stat returns the entry stored at path, without chasing symlinks:
// a symlink entry comes back as itself.
func (a *Archive) Stat(path string) (*api.Entry, error) {
	step, err := resolve.Find(a.cursor, path)
	if err != nil {
		return nil, err
	}
	entry := step.Header.Entry()
	return &entry, nil
}

// Resolve returns the final non-link entry reached from path, chasing
// symlink chains (bounded; cyclic chains fail with api.ErrLinkCycle).
func (a *Archive) Resolve(path string) (*api.Entry, error) {
	step, err := resolve.Resolve(a.cursor, path)
	if err != nil {
		return nil, err
	}
	entry := step.Header.Entry()
	return &entry, nil
}

// IsDir reports whether an entry exists at path and is a directory.
// Absence is false, not an error; symlinks are not chased.
func (a *Archive) IsDir(path string) (bool, error) {
	return resolve.IsDir(a.cursor, path)
}

// IsFile reports whether an entry exists at path and is a regular file.
func (a *Archive) IsFile(path string) (bool, error) {
	return resolve.IsFile(a.cursor, path)
}

// IsSymlink reports whether an entry exists at path and is a symlink.
func (a *Archive) IsSymlink(path string) (bool, error) {
	return resolve.IsSymlink(a.cursor, path)
}

// List enumerates the direct children of the directory at path, in
// storage order.  found is the true child count; the slice is capped at
// limit entries when limit > 0.
func (a *Archive) List(path string, limit int) (children []string, found int, err error) {
	return resolve.List(a.cursor, path, limit)
}

// Read streams content of the regular file reached from path (through
// symlinks) into dest, starting at offset.  Returns bytes written and
// bytes still unread after them; see stream.Read for the full contract.
func (a *Archive) Read(path string, dest []byte, offset int64) (n int, remaining int64, err error) {
	return stream.Read(a.cursor, path, dest, offset)
}
