/*
	Cursor and walker over a seekable byte source containing a ustar
	archive.

	The read position of the underlying source is mutable shared state;
	owning it in an explicit Cursor value keeps that hazard visible in
	every signature that touches it.  Do not interleave operations on the
	same Cursor from multiple goroutines without locking around it.
*/
package tape

import (
	"io"

	. "github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/codec"
)

type Cursor struct {
	r io.ReadSeeker
}

func NewCursor(r io.ReadSeeker) *Cursor {
	return &Cursor{r}
}

func (c *Cursor) Rewind() error {
	if _, err := c.r.Seek(0, io.SeekStart); err != nil {
		return Errorf(api.ErrIO, "byte source seek failed: %s", err)
	}
	return nil
}

func (c *Cursor) SeekTo(pos int64) error {
	if _, err := c.r.Seek(pos, io.SeekStart); err != nil {
		return Errorf(api.ErrIO, "byte source seek failed: %s", err)
	}
	return nil
}

func (c *Cursor) Skip(n int64) error {
	if _, err := c.r.Seek(n, io.SeekCurrent); err != nil {
		return Errorf(api.ErrIO, "byte source seek failed: %s", err)
	}
	return nil
}

// ReadBlock fills one 512-byte block from the current position.
// Hitting EOF mid-archive means the source is truncated; that surfaces as
// an I/O category error, never as a silent short block.
func (c *Cursor) ReadBlock(b *codec.Block) error {
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return Errorf(api.ErrIO, "byte source read failed: %s", err)
	}
	return nil
}

// ReadFull fills p from the current position, erroring on short reads.
func (c *Cursor) ReadFull(p []byte) error {
	if _, err := io.ReadFull(c.r, p); err != nil {
		return Errorf(api.ErrIO, "byte source read failed: %s", err)
	}
	return nil
}

/*
	AtEndMarker peeks at the next two blocks and reports whether they are
	the archive's end marker (two all-zero 512-byte blocks).

	A source that simply ends here also counts as the end: strictly the
	format demands the full trailer, but a truncated trailer of zeros is
	unambiguous and rejecting it helps nobody.

	The prior read position is always restored before returning; from the
	caller's perspective this is a read-only question.
*/
func (c *Cursor) AtEndMarker() (_ bool, err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	var buf [2 * codec.BlockSize]byte
	n, err := io.ReadFull(c.r, buf[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, Errorf(api.ErrIO, "byte source read failed: %s", err)
	}
	if n > 0 {
		if _, err := c.r.Seek(int64(-n), io.SeekCurrent); err != nil {
			return false, Errorf(api.ErrIO, "byte source seek failed: %s", err)
		}
	}
	for _, b := range buf[:n] {
		if b != 0 {
			return false, nil
		}
	}
	return true, nil
}
