/*
	Codec for the fixed 512-byte header blocks of the POSIX ustar
	interchange format.

	Everything in this package is pure: blocks in, structs out.
	No I/O happens here; feeding blocks in the right order is the
	tape package's problem.
*/
package codec

import (
	"bytes"
	"time"

	. "github.com/warpfork/go-errcat"

	"go.polydawn.net/ustar/api"
)

const BlockSize = 512

type Block [BlockSize]byte

func (b *Block) IsZero() bool {
	return *b == zeroBlock
}

var zeroBlock Block

// Field layout of a ustar header block.
const (
	posName     = 0
	lenName     = 100
	posMode     = 100
	lenMode     = 8
	posUid      = 108
	lenUid      = 8
	posGid      = 116
	lenGid      = 8
	posSize     = 124
	lenSize     = 12
	posMtime    = 136
	lenMtime    = 12
	posChksum   = 148
	lenChksum   = 8
	posTypeflag = 156
	posLinkname = 157
	lenLinkname = 100
	posMagic    = 257
	lenMagic    = 6
	posVersion  = 263
	lenVersion  = 2
	posUname    = 265
	lenUname    = 32
	posGname    = 297
	lenGname    = 32
	posDevmajor = 329
	lenDevmajor = 8
	posDevminor = 337
	lenDevminor = 8
	posPrefix   = 345
	lenPrefix   = 155
)

const (
	Magic   = "ustar\x00"
	Version = "00"
)

// Typeflag values.  The format defines more (fifo, char/block dev, hardlink,
// contiguous); we only name the ones this library discriminates on.
const (
	TypeflagReg     = byte('0')
	TypeflagRegA    = byte(0) // Old archivers wrote NUL for regular files.
	TypeflagSymlink = byte('2')
	TypeflagDir     = byte('5')
)

// Header is the decoded view of one block.  Numeric fields that fail octal
// parsing decode as zero; Parse never rejects a block -- that's Validate's
// job, and it only guards the fields the format guards (magic, version,
// checksum).
type Header struct {
	Name     string
	Mode     int64
	Uid      int
	Gid      int
	Size     int64
	Mtime    time.Time
	Checksum int64
	Typeflag byte
	Linkname string
	Uname    string
	Gname    string
	Devmajor int64
	Devminor int64
	Prefix   string
}

func Parse(b *Block) *Header {
	h := &Header{
		Name:     nulTerminated(b[posName : posName+lenName]),
		Typeflag: b[posTypeflag],
		Linkname: nulTerminated(b[posLinkname : posLinkname+lenLinkname]),
		Uname:    nulTerminated(b[posUname : posUname+lenUname]),
		Gname:    nulTerminated(b[posGname : posGname+lenGname]),
		Prefix:   nulTerminated(b[posPrefix : posPrefix+lenPrefix]),
	}
	h.Mode, _ = parseOctal(b[posMode : posMode+lenMode])
	uid, _ := parseOctal(b[posUid : posUid+lenUid])
	gid, _ := parseOctal(b[posGid : posGid+lenGid])
	h.Uid, h.Gid = int(uid), int(gid)
	h.Size, _ = parseOctal(b[posSize : posSize+lenSize])
	mtime, _ := parseOctal(b[posMtime : posMtime+lenMtime])
	h.Mtime = time.Unix(mtime, 0).UTC()
	h.Checksum, _ = parseOctal(b[posChksum : posChksum+lenChksum])
	h.Devmajor, _ = parseOctal(b[posDevmajor : posDevmajor+lenDevmajor])
	h.Devminor, _ = parseOctal(b[posDevminor : posDevminor+lenDevminor])
	return h
}

// EffectiveName returns the full entry path: the prefix field joined in
// front of the name field when present.
func (h *Header) EffectiveName() string {
	if h.Prefix == "" {
		return h.Name
	}
	return h.Prefix + "/" + h.Name
}

func (h *Header) Type() api.Type {
	switch h.Typeflag {
	case TypeflagReg, TypeflagRegA:
		return api.Type_File
	case TypeflagDir:
		return api.Type_Dir
	case TypeflagSymlink:
		return api.Type_Symlink
	default:
		return api.Type_Other
	}
}

func (h *Header) Entry() api.Entry {
	return api.Entry{
		Name:     h.EffectiveName(),
		Type:     h.Type(),
		Size:     h.Size,
		Linkname: h.Linkname,
		Mode:     h.Mode,
		Uid:      h.Uid,
		Gid:      h.Gid,
		Mtime:    h.Mtime,
	}
}

/*
	Validate checks the three fields the format guards, in canonical
	precedence order: magic, then version, then checksum.  The first
	failure wins and aborts -- callers scanning a whole archive get a
	deterministic diagnosis no matter how mangled the rest of the block is.
*/
func Validate(b *Block) error {
	if string(b[posMagic:posMagic+lenMagic]) != Magic {
		return Errorf(api.ErrBadMagic, "corrupt header: magic is %q, not %q", b[posMagic:posMagic+lenMagic], Magic)
	}
	if string(b[posVersion:posVersion+lenVersion]) != Version {
		return Errorf(api.ErrBadVersion, "corrupt header: version is %q, not %q", b[posVersion:posVersion+lenVersion], Version)
	}
	stored, ok := parseOctal(b[posChksum : posChksum+lenChksum])
	unsigned, signed := Checksum(b)
	if !ok || (stored != unsigned && stored != signed) {
		return Errorf(api.ErrBadChecksum, "corrupt header: stored checksum %d does not match computed %d", stored, unsigned)
	}
	return nil
}

// nulTerminated interprets a fixed-width field as a string ending at the
// first NUL (or the field boundary, whichever comes first).
func nulTerminated(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
