package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	billy "gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"go.polydawn.net/ustar/api"
)

type FixtureEntry struct {
	Name     string
	Type     api.Type
	Body     []byte
	Linkname string
}

// Because golang's time.Time zero value causes Nonsense to occur.
var defaultTime = time.Date(1990, 1, 14, 12, 30, 0, 0, time.UTC)

// A directory with two files, a populated subdirectory, and an empty one.
// The canonical listing fixture: listing "dir/" must yield exactly
// a, b, c/, e/ -- and never c/d.
var FixtureTree = []FixtureEntry{
	{Name: "dir/", Type: api.Type_Dir},
	{Name: "dir/a", Type: api.Type_File, Body: []byte("aaa")},
	{Name: "dir/b", Type: api.Type_File, Body: []byte("bbbb")},
	{Name: "dir/c/", Type: api.Type_Dir},
	{Name: "dir/c/d", Type: api.Type_File, Body: []byte("ddddd")},
	{Name: "dir/e/", Type: api.Type_Dir},
}

// Symlink chains: one hop, two hops, and a two-link cycle.
var FixtureLinks = []FixtureEntry{
	{Name: "file", Type: api.Type_File, Body: []byte("the real content")},
	{Name: "link", Type: api.Type_Symlink, Linkname: "file"},
	{Name: "linklink", Type: api.Type_Symlink, Linkname: "link"},
	{Name: "ouro", Type: api.Type_Symlink, Linkname: "boros"},
	{Name: "boros", Type: api.Type_Symlink, Linkname: "ouro"},
}

/*
	BuildArchive serializes fixture entries into ustar archive bytes,
	trailer included, via the stdlib tar writer pinned to FormatUSTAR.

	Using the stdlib as the generator means our reader is continuously
	tested against an independent implementation of the format rather
	than against its own serialization habits.
*/
func BuildArchive(entries []FixtureEntry) []byte {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Format:  tar.FormatUSTAR,
			Name:    e.Name,
			ModTime: defaultTime,
		}
		switch e.Type {
		case api.Type_Dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		case api.Type_Symlink:
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Linkname
			hdr.Mode = 0777
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Mode = 0644
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			panic(fmt.Errorf("fixture assembly: %s", err))
		}
		if len(e.Body) > 0 {
			if _, err := tw.Write(e.Body); err != nil {
				panic(fmt.Errorf("fixture assembly: %s", err))
			}
		}
	}
	if err := tw.Close(); err != nil {
		panic(fmt.Errorf("fixture assembly: %s", err))
	}
	return buf.Bytes()
}

// WithArchiveFile materializes archive bytes as a seekable file on an
// in-memory billy filesystem and hands it to fn, rewound to the start.
func WithArchiveFile(archive []byte, fn func(billy.File)) {
	memFs := memfs.New()
	f, err := memFs.Create("fixture.tar")
	if err != nil {
		panic(fmt.Errorf("fixture assembly: %s", err))
	}
	defer f.Close()
	if _, err := f.Write(archive); err != nil {
		panic(fmt.Errorf("fixture assembly: %s", err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		panic(fmt.Errorf("fixture assembly: %s", err))
	}
	fn(f)
}

/*
	Corruption helpers.  Each returns a mangled copy, leaving the
	original fixture bytes reusable.  The target header is located by
	walking the raw blocks, so corruption after entry N never touches
	entries before it.
*/

func CorruptMagic(archive []byte, name string) []byte {
	out := clone(archive)
	out[headerOffset(out, name)+257] = 'U'
	return out
}

func CorruptVersion(archive []byte, name string) []byte {
	out := clone(archive)
	out[headerOffset(out, name)+263] = '9'
	return out
}

func CorruptChecksum(archive []byte, name string) []byte {
	out := clone(archive)
	// Flip the last stored digit; stays an octal digit either way.
	pos := headerOffset(out, name) + 148 + 5
	if out[pos] == '7' {
		out[pos] = '6'
	} else {
		out[pos] = '7'
	}
	return out
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// headerOffset walks raw blocks to find the header for the named entry.
// Independent of the library under test on purpose: it reparses the size
// field by hand to hop over content blocks.
func headerOffset(archive []byte, name string) int {
	off := 0
	for off+512 <= len(archive) {
		block := archive[off : off+512]
		storedName := block[0:100]
		if i := bytes.IndexByte(storedName, 0); i >= 0 {
			storedName = storedName[:i]
		}
		if string(storedName) == "" {
			break
		}
		if string(storedName) == name {
			return off
		}
		size, err := strconv.ParseInt(string(bytes.Trim(block[124:136], " \x00")), 8, 64)
		if err != nil {
			panic(fmt.Errorf("fixture corruption: unparseable size in %q", storedName))
		}
		off += 512 + int((size+511)/512)*512
	}
	panic(fmt.Errorf("fixture corruption: no header named %q", name))
}
