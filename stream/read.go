/*
	Content reading: streaming the bytes of a regular file entry out of
	the archive, from an arbitrary offset, in caller-sized chunks.
*/
package stream

import (
	. "github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/resolve"
	"go.polydawn.net/ustar/tape"
)

/*
	Read resolves path (chasing symlink chains) and reads up to len(dest)
	bytes of the final entry's content starting at offset.

	Returns the number of bytes written into dest and the number of
	content bytes still unread after them: zero remaining means the whole
	tail was delivered, positive means dest was too small and a follow-up
	call at offset+n picks up where this one stopped.

	When resolution passes through symlinks, all offset math is done
	against the final resolved entry -- a link has no content of its own.

	Failure categories: api.ErrNotFound if nothing matches the path,
	api.ErrWrongType if the final entry is a directory or other non-file,
	api.ErrBadOffset if offset exceeds the entry's size.  An offset exactly
	equal to the size is a valid zero-length read, not an error.
*/
func Read(c *tape.Cursor, path string, dest []byte, offset int64) (n int, remaining int64, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	step, err := resolve.Resolve(c, path)
	if err != nil {
		return 0, 0, err
	}
	hdr := step.Header
	if hdr.Type() != api.Type_File {
		return 0, 0, Errorf(api.ErrWrongType, "entry %q is not a regular file", hdr.EffectiveName())
	}
	if offset < 0 || offset > hdr.Size {
		return 0, 0, Errorf(api.ErrBadOffset, "offset %d out of range for entry %q of size %d", offset, hdr.EffectiveName(), hdr.Size)
	}
	tail := hdr.Size - offset
	n = len(dest)
	if int64(n) > tail {
		n = int(tail)
	}
	if n > 0 {
		if err := c.SeekTo(step.ContentPos + offset); err != nil {
			return 0, 0, err
		}
		if err := c.ReadFull(dest[:n]); err != nil {
			return 0, 0, err
		}
	}
	return n, tail - int64(n), nil
}
