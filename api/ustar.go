package api

/*
	This file is all serializable types used to describe
	entries found in a ustar archive.
*/

import (
	"time"

	"github.com/polydawn/refmt/obj/atlas"
)

/*
	Entry kind discriminators.

	These are a collapse of the ustar typeflag byte: the format distinguishes
	more kinds (fifos, devices, hardlinks), but an accessor that only reads
	file content needs to know "can I read it", "can I list it", and
	"do I chase it" -- everything else is Type_Other.
*/
type Type string

const (
	Type_File    Type = "f"
	Type_Dir     Type = "d"
	Type_Symlink Type = "l"
	Type_Other   Type = "?"
)

/*
	The caller-facing projection of one archive header.

	Name is the effective path of the entry: the ustar prefix field, when
	present, is already joined in front of the name field.  Directory names
	keep their trailing slash exactly as stored.

	Linkname is only meaningful when Type is Type_Symlink.
*/
type Entry struct {
	Name     string
	Type     Type
	Size     int64
	Linkname string `refmt:",omitempty"`
	Mode     int64
	Uid      int
	Gid      int
	Mtime    time.Time
}

var Entry_AtlasEntry = atlas.BuildEntry(Entry{}).StructMap().Autogenerate().Complete()

var Type_AtlasEntry = atlas.BuildEntry(Type("")).Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(
		func(x Type) (string, error) {
			return string(x), nil
		})).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(
		func(x string) (Type, error) {
			return Type(x), nil
		})).
	Complete()

var time_AtlasEntry = atlas.BuildEntry(time.Time{}).Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(
		func(x time.Time) (string, error) {
			return x.UTC().Format(time.RFC3339), nil
		})).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(
		func(x string) (time.Time, error) {
			return time.Parse(time.RFC3339, x)
		})).
	Complete()

var Atlas = atlas.MustBuild(
	Entry_AtlasEntry,
	Type_AtlasEntry,
	time_AtlasEntry,
)
