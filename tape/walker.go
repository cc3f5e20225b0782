package tape

import (
	"io"

	. "github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/codec"
)

// Step is one header the walker has passed over, along with where its
// content lives.  Raw is kept so callers who care about integrity can run
// codec.Validate without a second read.
type Step struct {
	Raw        codec.Block
	Header     *codec.Header
	HeaderPos  int64 // byte offset of the header block itself
	ContentPos int64 // byte offset where content blocks begin
}

/*
	Walker advances header-by-header through an archive from its start.

	Each Next checks for the end marker, reads one header block, and skips
	the padded span its content occupies, leaving the cursor parked at the
	following header.  The end of the archive is reported as io.EOF; any
	bytes after the end marker are never looked at.
*/
type Walker struct {
	cursor *Cursor
	pos    int64 // offset of the next unread header block
	done   bool
}

func NewWalker(c *Cursor) (*Walker, error) {
	if err := c.Rewind(); err != nil {
		return nil, err
	}
	return &Walker{cursor: c}, nil
}

func (w *Walker) Next() (*Step, error) {
	if w.done {
		return nil, io.EOF
	}
	end, err := w.cursor.AtEndMarker()
	if err != nil {
		return nil, err
	}
	if end {
		w.done = true
		return nil, io.EOF
	}
	step := &Step{HeaderPos: w.pos}
	if err := w.cursor.ReadBlock(&step.Raw); err != nil {
		return nil, err
	}
	step.Header = codec.Parse(&step.Raw)
	step.ContentPos = step.HeaderPos + codec.BlockSize
	footprint := ContentFootprint(step.Header.Size)
	if err := w.cursor.Skip(footprint); err != nil {
		return nil, err
	}
	w.pos = step.ContentPos + footprint
	return step, nil
}

// ContentFootprint is the padded span content of the given length occupies
// on tape: its size rounded up to a whole number of 512-byte blocks.
// The format pads the final block even when size lands mid-block, so the
// walker must always advance by this amount, never by size itself.
func ContentFootprint(size int64) int64 {
	return (size + codec.BlockSize - 1) / codec.BlockSize * codec.BlockSize
}

/*
	CheckArchive scans the whole archive from the start, validating every
	header, and returns the count of non-terminal headers found before the
	end marker.

	The scan fails fast: the first header failing validation aborts it,
	and the error's category tells which of the three checks (magic,
	version, checksum -- in that precedence) went wrong.  Headers before
	the offending one are unaffected by corruption after them.
*/
func CheckArchive(c *Cursor) (_ int, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	w, err := NewWalker(c)
	if err != nil {
		return 0, err
	}
	count := 0
	for {
		step, err := w.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, err
		}
		if err := codec.Validate(&step.Raw); err != nil {
			return 0, err
		}
		count++
	}
}
