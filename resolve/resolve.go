/*
	Path lookup over an archive: finding headers by name, chasing symlink
	chains to their final target, classifying entries, and listing the
	direct children of a directory.

	Every lookup is a forward linear scan from the archive start -- the
	format has no index, and this library builds none.  The first stored
	entry matching a path wins; later duplicates are shadowed.  That is a
	deliberate contract, not an accident of scan order.
*/
package resolve

import (
	"io"
	"strings"

	. "github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/tape"
)

// Symlink chains longer than this are declared cyclic.  Same bound the
// kernel uses for ELOOP; nobody nests links 40 deep on purpose.
const maxLinkHops = 40

/*
	Find scans for the first entry whose name matches path and returns the
	walker step it was found at.  Symlinks are NOT chased; the raw matched
	header comes back.

	Matching is exact up to cosmetics: a leading "./" and a trailing slash
	on either side are ignored, so querying "dir" finds the stored entry
	"dir/", and querying "foo" never finds "foobar".

	A miss is category api.ErrNotFound.
*/
func Find(c *tape.Cursor, path string) (_ *tape.Step, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	w, err := tape.NewWalker(c)
	if err != nil {
		return nil, err
	}
	want := normalize(path)
	for {
		step, err := w.Next()
		if err == io.EOF {
			return nil, Errorf(api.ErrNotFound, "no entry %q in archive", path)
		}
		if err != nil {
			return nil, err
		}
		if normalize(step.Header.EffectiveName()) == want {
			return step, nil
		}
	}
}

/*
	Resolve is Find plus symlink chasing: while the matched entry is a
	symlink, the search restarts with its linkname as the new path, until
	a non-link entry comes back.

	Linknames are used verbatim as archive paths; no rebasing against the
	link's own directory happens.

	Chains are bounded: a cyclic or absurdly deep chain fails with
	category api.ErrLinkCycle instead of spinning forever.
*/
func Resolve(c *tape.Cursor, path string) (_ *tape.Step, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	for hop := 0; hop <= maxLinkHops; hop++ {
		step, err := Find(c, path)
		if err != nil {
			return nil, err
		}
		if step.Header.Type() != api.Type_Symlink {
			return step, nil
		}
		path = step.Header.Linkname
	}
	return nil, Errorf(api.ErrLinkCycle, "symlink chain at %q exceeded %d hops", path, maxLinkHops)
}

// IsDir reports whether an entry at path exists and is a directory.
// The raw header is examined; a symlink pointing at a directory is a
// symlink, not a directory.  Absence is false, not an error.
func IsDir(c *tape.Cursor, path string) (bool, error) {
	return typeIs(c, path, api.Type_Dir)
}

// IsFile reports whether an entry at path exists and is a regular file.
func IsFile(c *tape.Cursor, path string) (bool, error) {
	return typeIs(c, path, api.Type_File)
}

// IsSymlink reports whether an entry at path exists and is a symlink.
func IsSymlink(c *tape.Cursor, path string) (bool, error) {
	return typeIs(c, path, api.Type_Symlink)
}

func typeIs(c *tape.Cursor, path string, t api.Type) (_ bool, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	step, err := Find(c, path)
	if err != nil {
		if api.CategoryForError(err) == api.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return step.Header.Type() == t, nil
}

/*
	List returns the names of entries that are direct children of the
	directory at dirPath: exactly one path segment below it, in archive
	storage order.  Subdirectory children keep their trailing slash;
	nothing below them is ever included.

	dirPath itself is resolved through symlinks first; if the final target
	is not a directory the listing fails with category api.ErrWrongType
	(or api.ErrNotFound if nothing matches at all).

	found is the true number of children present.  When limit > 0 the
	returned slice is capped at limit entries; found still reports the
	full count, so truncation is visible to the caller.
*/
func List(c *tape.Cursor, dirPath string, limit int) (children []string, found int, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	dirStep, err := Resolve(c, dirPath)
	if err != nil {
		return nil, 0, err
	}
	if dirStep.Header.Type() != api.Type_Dir {
		return nil, 0, Errorf(api.ErrWrongType, "entry %q is not a directory", dirPath)
	}
	prefix := normalize(dirStep.Header.EffectiveName())
	if prefix != "" {
		prefix += "/"
	}
	w, err := tape.NewWalker(c)
	if err != nil {
		return nil, 0, err
	}
	for {
		step, err := w.Next()
		if err == io.EOF {
			return children, found, nil
		}
		if err != nil {
			return nil, 0, err
		}
		name := step.Header.EffectiveName()
		if !isImmediateChild(prefix, name) {
			continue
		}
		found++
		if limit <= 0 || len(children) < limit {
			children = append(children, name)
		}
	}
}

func isImmediateChild(dirPrefix, name string) bool {
	n := normalize(name)
	if !strings.HasPrefix(n, dirPrefix) {
		return false
	}
	rest := n[len(dirPrefix):]
	return rest != "" && !strings.Contains(rest, "/")
}

// normalize strips the cosmetic parts of a path for matching: an optional
// leading "./" and an optional trailing slash.
func normalize(p string) string {
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}
