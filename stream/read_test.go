package stream

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/tape"
	"go.polydawn.net/ustar/testutil"
)

func TestRead(t *testing.T) {
	// A body spanning multiple content blocks, with a neighbor entry after
	// it: reads must respect block padding without bleeding into it.
	bigBody := []byte(strings.Repeat("0123456789", 70)) // 700 bytes, pads to 1024
	fixture := []testutil.FixtureEntry{
		{Name: "small", Type: api.Type_File, Body: []byte("abcdef")},
		{Name: "big", Type: api.Type_File, Body: bigBody},
		{Name: "after", Type: api.Type_File, Body: []byte("neighbor")},
		{Name: "dir/", Type: api.Type_Dir},
	}
	cursorFor := func() *tape.Cursor {
		return tape.NewCursor(bytes.NewReader(testutil.BuildArchive(fixture)))
	}

	Convey("Content reading:", t, func() {
		Convey("a whole file reads in one call", func() {
			dest := make([]byte, 64)
			n, remaining, err := Read(cursorFor(), "small", dest, 0)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 6)
			So(remaining, ShouldEqual, 0)
			So(string(dest[:n]), ShouldEqual, "abcdef")
		})
		Convey("a file after a multi-block neighbor reads cleanly", func() {
			dest := make([]byte, 64)
			n, remaining, err := Read(cursorFor(), "after", dest, 0)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 0)
			So(string(dest[:n]), ShouldEqual, "neighbor")
		})
		Convey("offsets land mid-content", func() {
			dest := make([]byte, 3)
			n, remaining, err := Read(cursorFor(), "small", dest, 2)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
			So(remaining, ShouldEqual, 1)
			So(string(dest[:n]), ShouldEqual, "cde")
		})
		Convey("an offset equal to the size is a valid empty read", func() {
			dest := make([]byte, 8)
			n, remaining, err := Read(cursorFor(), "small", dest, 6)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
			So(remaining, ShouldEqual, 0)
		})
		Convey("an offset past the size is out of range", func() {
			dest := make([]byte, 8)
			_, _, err := Read(cursorFor(), "small", dest, 7)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrBadOffset)
		})
		Convey("chunked reads concatenate to the full content", func() {
			cursor := cursorFor()
			var assembled []byte
			dest := make([]byte, 256) // smaller than the 700-byte body
			offset := int64(0)
			for {
				n, remaining, err := Read(cursor, "big", dest, offset)
				So(err, ShouldBeNil)
				assembled = append(assembled, dest[:n]...)
				offset += int64(n)
				if remaining == 0 {
					break
				}
			}
			So(assembled, ShouldResemble, bigBody)

			full := make([]byte, len(bigBody))
			n, remaining, err := Read(cursorFor(), "big", full, 0)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, len(bigBody))
			So(remaining, ShouldEqual, 0)
			So(assembled, ShouldResemble, full)
		})
		Convey("a directory is not readable", func() {
			_, _, err := Read(cursorFor(), "dir/", make([]byte, 8), 0)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrWrongType)
		})
		Convey("an absent path is not found", func() {
			_, _, err := Read(cursorFor(), "ghost", make([]byte, 8), 0)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrNotFound)
		})
	})
}

func TestReadThroughLinks(t *testing.T) {
	Convey("Content reading through symlink chains:", t, func() {
		cursor := tape.NewCursor(bytes.NewReader(testutil.BuildArchive(testutil.FixtureLinks)))

		Convey("a chain of links yields the final file's content", func() {
			dest := make([]byte, 64)
			n, remaining, err := Read(cursor, "linklink", dest, 0)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 0)
			So(string(dest[:n]), ShouldEqual, "the real content")
		})
		Convey("offset math uses the final entry's size, not the link's", func() {
			// A link entry's own size is zero; if offsets were checked
			// against it, any nonzero offset would be rejected.
			dest := make([]byte, 64)
			n, remaining, err := Read(cursor, "link", dest, 9)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 0)
			So(string(dest[:n]), ShouldEqual, "content")
		})
		Convey("a cyclic chain is diagnosed, not spun on", func() {
			_, _, err := Read(cursor, "ouro", make([]byte, 8), 0)
			So(err, errcat.ErrorShouldHaveCategory, api.ErrLinkCycle)
		})
	})
}
