package tape

import (
	"bytes"
	"io"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
	"go.polydawn.net/ustar/codec"
	"go.polydawn.net/ustar/testutil"
)

func TestContentFootprint(t *testing.T) {
	Convey("Content footprint rounding suite:", t, func() {
		for _, tr := range []struct {
			size      int64
			footprint int64
		}{
			{0, 0},
			{1, 512},
			{511, 512},
			{512, 512},
			{513, 1024},
			{1024, 1024},
			{1025, 1536},
		} {
			So(ContentFootprint(tr.size), ShouldEqual, tr.footprint)
		}
	})
}

func TestWalker(t *testing.T) {
	Convey("Walking a well-formed archive:", t, func() {
		archive := testutil.BuildArchive(testutil.FixtureTree)
		cursor := NewCursor(bytes.NewReader(archive))

		Convey("steps come back in storage order with correct positions", func() {
			w, err := NewWalker(cursor)
			So(err, ShouldBeNil)
			var names []string
			var lastContentPos int64
			for {
				step, err := w.Next()
				if err == io.EOF {
					break
				}
				So(err, ShouldBeNil)
				So(step.ContentPos, ShouldEqual, step.HeaderPos+codec.BlockSize)
				names = append(names, step.Header.EffectiveName())
				lastContentPos = step.ContentPos
			}
			So(names, ShouldResemble, []string{"dir/", "dir/a", "dir/b", "dir/c/", "dir/c/d", "dir/e/"})
			So(lastContentPos, ShouldBeGreaterThan, 0)
		})
		Convey("walking twice from the same cursor works (walker rewinds)", func() {
			for i := 0; i < 2; i++ {
				w, err := NewWalker(cursor)
				So(err, ShouldBeNil)
				step, err := w.Next()
				So(err, ShouldBeNil)
				So(step.Header.EffectiveName(), ShouldEqual, "dir/")
			}
		})
	})
}

func TestAtEndMarker(t *testing.T) {
	Convey("End marker detection:", t, func() {
		archive := testutil.BuildArchive(testutil.FixtureTree)

		Convey("the archive start is not the end", func() {
			cursor := NewCursor(bytes.NewReader(archive))
			end, err := cursor.AtEndMarker()
			So(err, ShouldBeNil)
			So(end, ShouldBeFalse)
		})
		Convey("the peek restores the read position", func() {
			cursor := NewCursor(bytes.NewReader(archive))
			_, err := cursor.AtEndMarker()
			So(err, ShouldBeNil)
			var b codec.Block
			So(cursor.ReadBlock(&b), ShouldBeNil)
			So(codec.Parse(&b).EffectiveName(), ShouldEqual, "dir/")
		})
		Convey("the trailer is the end", func() {
			cursor := NewCursor(bytes.NewReader(archive))
			So(cursor.SeekTo(int64(len(archive))-2*codec.BlockSize), ShouldBeNil)
			end, err := cursor.AtEndMarker()
			So(err, ShouldBeNil)
			So(end, ShouldBeTrue)
		})
		Convey("a bare EOF counts as the end", func() {
			cursor := NewCursor(bytes.NewReader(archive))
			So(cursor.SeekTo(int64(len(archive))), ShouldBeNil)
			end, err := cursor.AtEndMarker()
			So(err, ShouldBeNil)
			So(end, ShouldBeTrue)
		})
	})
}

func TestCheckArchive(t *testing.T) {
	Convey("Whole-archive validation:", t, func() {
		archive := testutil.BuildArchive(testutil.FixtureTree)

		Convey("a valid archive counts its entries", func() {
			count, err := CheckArchive(NewCursor(bytes.NewReader(archive)))
			So(err, ShouldBeNil)
			So(count, ShouldEqual, len(testutil.FixtureTree))
		})
		Convey("an archive of nothing but a trailer counts zero", func() {
			empty := testutil.BuildArchive(nil)
			count, err := CheckArchive(NewCursor(bytes.NewReader(empty)))
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 0)
		})
		Convey("trailing garbage after the end marker is ignored", func() {
			withJunk := append(append([]byte{}, archive...), bytes.Repeat([]byte("junk"), 300)...)
			count, err := CheckArchive(NewCursor(bytes.NewReader(withJunk)))
			So(err, ShouldBeNil)
			So(count, ShouldEqual, len(testutil.FixtureTree))
		})
		Convey("a corrupt checksum fails fast with the right category", func() {
			mangled := testutil.CorruptChecksum(archive, "dir/b")
			_, err := CheckArchive(NewCursor(bytes.NewReader(mangled)))
			So(err, errcat.ErrorShouldHaveCategory, api.ErrBadChecksum)
		})
		Convey("corruption after an entry doesn't affect reading the ones before it", func() {
			mangled := testutil.CorruptChecksum(archive, "dir/b")
			cursor := NewCursor(bytes.NewReader(mangled))
			w, err := NewWalker(cursor)
			So(err, ShouldBeNil)
			step, err := w.Next()
			So(err, ShouldBeNil)
			So(codec.Validate(&step.Raw), ShouldBeNil)
			step, err = w.Next()
			So(err, ShouldBeNil)
			So(codec.Validate(&step.Raw), ShouldBeNil)
			So(step.Header.EffectiveName(), ShouldEqual, "dir/a")
		})
		Convey("a corrupt magic beats everything downstream", func() {
			mangled := testutil.CorruptMagic(archive, "dir/")
			_, err := CheckArchive(NewCursor(bytes.NewReader(mangled)))
			So(err, errcat.ErrorShouldHaveCategory, api.ErrBadMagic)
		})
		Convey("a corrupt version is its own diagnosis", func() {
			mangled := testutil.CorruptVersion(archive, "dir/c/d")
			_, err := CheckArchive(NewCursor(bytes.NewReader(mangled)))
			So(err, errcat.ErrorShouldHaveCategory, api.ErrBadVersion)
		})
	})
}
