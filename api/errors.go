package api

import (
	"github.com/warpfork/go-errcat"
)

type ErrorCategory string
type ExitCode int
type ReturnCode int

const (
	ExitSuccess                     = ExitCode(0)
	ExitUsage, ErrUsage             = ExitCode(1), ErrorCategory("ustar-usage-error")          // Indicates some piece of user input to a command was invalid and unrunnable.
	ExitPanic                       = ExitCode(2)                                              // Placeholder.  We don't use this.  '2' happens when golang exits due to panic.
	ExitBadMagic, ErrBadMagic       = ExitCode(3), ErrorCategory("ustar-bad-magic")            // A header's magic field is not "ustar"+NUL -- the stream is corrupt or not a ustar archive at all.
	ExitBadVersion, ErrBadVersion   = ExitCode(4), ErrorCategory("ustar-bad-version")          // A header's version field is not "00".
	ExitBadChecksum, ErrBadChecksum = ExitCode(5), ErrorCategory("ustar-bad-checksum")         // A header's stored checksum does not match the computed sum of its bytes.
	ExitNotFound, ErrNotFound       = ExitCode(6), ErrorCategory("ustar-not-found")            // No entry in the archive matches the requested path.
	ExitWrongType, ErrWrongType     = ExitCode(7), ErrorCategory("ustar-wrong-type")           // An entry was found but its typeflag doesn't match the requested operation (e.g. read of a directory, list of a file).
	ExitBadOffset, ErrBadOffset     = ExitCode(8), ErrorCategory("ustar-offset-out-of-range")  // A read offset exceeds the entry's content length.
	ExitLinkCycle, ErrLinkCycle     = ExitCode(9), ErrorCategory("ustar-link-cycle")           // Symlink resolution exceeded the hop bound; the chain is cyclic or absurdly deep.
	ExitIO, ErrIO                   = ExitCode(10), ErrorCategory("ustar-io-error")            // The byte source itself failed (seek or read error).  Distinct from all format and lookup categories.
	ExitUnknown, ErrInternal        = ExitCode(120), ErrorCategory("ustar-internal-error")     // Grab bag for unexpected errors.  Never intentional.
)

// ExitCodeForError translates an error category into the process exit code
// the CLI should terminate with.  Nil means success.
func ExitCodeForError(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	return exitCodeMap[CategoryForError(err)]
}

var exitCodeMap = map[ErrorCategory]ExitCode{
	ErrUsage:       ExitUsage,
	ErrBadMagic:    ExitBadMagic,
	ErrBadVersion:  ExitBadVersion,
	ErrBadChecksum: ExitBadChecksum,
	ErrNotFound:    ExitNotFound,
	ErrWrongType:   ExitWrongType,
	ErrBadOffset:   ExitBadOffset,
	ErrLinkCycle:   ExitLinkCycle,
	ErrIO:          ExitIO,
	ErrInternal:    ExitUnknown,
}

// CategoryForError extracts the category from an error, coercing
// uncategorized errors to ErrInternal.
func CategoryForError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategory("")
	}
	if cat, ok := errcat.Category(err).(ErrorCategory); ok {
		return cat
	}
	return ErrInternal
}

/*
	Canonical integer return codes.

	The C-flavored contract this library descends from reported every outcome
	as one int per operation.  Callers claiming bit-for-bit compatibility with
	that contract can map our categorized errors back onto those ints with the
	funcs below.  Note the code spaces overlap between operations (-1 means
	"bad magic" to a check and "not a file" to a read); that's why the mapping
	is per-operation.
*/
const (
	CodeOK          = ReturnCode(0)
	CodeBadMagic    = ReturnCode(-1)
	CodeBadVersion  = ReturnCode(-2)
	CodeBadChecksum = ReturnCode(-3)
	CodeNotFile     = ReturnCode(-1)
	CodeBadOffset   = ReturnCode(-2)
)

// CheckCode maps the outcome of a whole-archive validation onto the canonical
// code space: a nonnegative header count, or -1/-2/-3 for the first bad
// magic/version/checksum encountered.
func CheckCode(count int, err error) ReturnCode {
	switch CategoryForError(err) {
	case ErrorCategory(""):
		return ReturnCode(count)
	case ErrBadMagic:
		return CodeBadMagic
	case ErrBadVersion:
		return CodeBadVersion
	case ErrBadChecksum:
		return CodeBadChecksum
	default:
		return CodeBadMagic
	}
}

// QueryCode maps an existence/type query onto the canonical code space:
// nonzero for found, zero for not-found-or-wrong-type.
func QueryCode(found bool) ReturnCode {
	if found {
		return ReturnCode(1)
	}
	return CodeOK
}

// ListCode maps a directory listing onto the canonical code space: the count
// of entries found, or zero when the path doesn't name a directory.
func ListCode(found int, err error) ReturnCode {
	if err != nil {
		return CodeOK
	}
	return ReturnCode(found)
}

// ReadCode maps a content read onto the canonical code space: zero for a
// complete read, a positive remainder for a partial one, -1 for
// not-found-or-not-a-file, -2 for an out-of-range offset.
func ReadCode(remaining int64, err error) ReturnCode {
	switch CategoryForError(err) {
	case ErrorCategory(""):
		return ReturnCode(remaining)
	case ErrBadOffset:
		return CodeBadOffset
	default:
		return CodeNotFile
	}
}
