package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/src-d/go-billy.v4/osfs"

	"go.polydawn.net/ustar"
	"go.polydawn.net/ustar/api"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
)

type baseCLI struct {
	Format   string // Output api format, eg. json
	CheckCLI struct {
		Archive string // Archive file path
	}
	StatCLI struct {
		Archive string
		Path    string // Entry path inside the archive
		Follow  bool   // Chase symlink chains to the final target
	}
	LsCLI struct {
		Archive string
		Path    string
		Limit   int // Max children to print (0 = all)
	}
	CatCLI struct {
		Archive string
		Path    string
		Offset  int64 // Content byte offset to start from
		Limit   int64 // Max content bytes to emit (0 = all)
	}
}

func main() {
	os.Exit(int(Main(os.Args, os.Stdin, os.Stdout, os.Stderr)))
}

func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) api.ExitCode {
	cli := baseCLI{}

	app := kingpin.New("ustar", "Read-only ustar archive inspection")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("format", "Output api format").
		Default(FmtDumb).
		EnumVar(&cli.Format, FmtJson, FmtDumb)

	appCheck := app.Command("check", "validate every header and count the archive's entries")
	appCheck.Arg("archive", "Archive file").
		Required().
		StringVar(&cli.CheckCLI.Archive)

	appStat := app.Command("stat", "describe the entry at a path")
	appStat.Arg("archive", "Archive file").
		Required().
		StringVar(&cli.StatCLI.Archive)
	appStat.Arg("path", "Entry path").
		Required().
		StringVar(&cli.StatCLI.Path)
	appStat.Flag("follow", "Chase symlink chains to the final target").
		BoolVar(&cli.StatCLI.Follow)

	appLs := app.Command("ls", "list the direct children of a directory")
	appLs.Arg("archive", "Archive file").
		Required().
		StringVar(&cli.LsCLI.Archive)
	appLs.Arg("path", "Directory path").
		Required().
		StringVar(&cli.LsCLI.Path)
	appLs.Flag("limit", "Max children to return (0 = all)").
		IntVar(&cli.LsCLI.Limit)

	appCat := app.Command("cat", "stream a file's content to stdout")
	appCat.Arg("archive", "Archive file").
		Required().
		StringVar(&cli.CatCLI.Archive)
	appCat.Arg("path", "File path").
		Required().
		StringVar(&cli.CatCLI.Path)
	appCat.Flag("offset", "Content byte offset to start from").
		Int64Var(&cli.CatCLI.Offset)
	appCat.Flag("limit", "Max content bytes to emit (0 = all)").
		Int64Var(&cli.CatCLI.Limit)

	var termErr error
	app.Terminate(func(status int) {
		termErr = fmt.Errorf("parsing error: %d\n", status)
	})
	cmd, err := app.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return api.ExitUsage
	}
	if termErr != nil {
		fmt.Fprintln(stderr, termErr)
		return api.ExitUsage
	}

	switch cmd {
	case appCheck.FullCommand():
		err = executeCheck(cli, stdout)
	case appStat.FullCommand():
		err = executeStat(cli, stdout)
	case appLs.FullCommand():
		err = executeLs(cli, stdout)
	case appCat.FullCommand():
		err = executeCat(cli, stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
	}
	return api.ExitCodeForError(err)
}

// withArchive opens an archive file through a billy filesystem and binds
// it to an accessor for the duration of fn.
func withArchive(path string, fn func(*ustar.Archive) error) (err error) {
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))
	abs, err := filepath.Abs(path)
	if err != nil {
		return Errorf(api.ErrUsage, "unusable archive path: %s", err)
	}
	afs := osfs.New("/")
	f, err := afs.Open(abs)
	if err != nil {
		return Errorf(api.ErrIO, "cannot open archive: %s", err)
	}
	defer f.Close()
	return fn(ustar.New(f))
}

func executeCheck(cli baseCLI, stdout io.Writer) error {
	return withArchive(cli.CheckCLI.Archive, func(a *ustar.Archive) error {
		count, err := a.Check()
		if err != nil {
			return err
		}
		switch cli.Format {
		case FmtJson:
			return emitJson(stdout, map[string]int{"entries": count})
		default:
			fmt.Fprintln(stdout, count)
			return nil
		}
	})
}

func executeStat(cli baseCLI, stdout io.Writer) error {
	return withArchive(cli.StatCLI.Archive, func(a *ustar.Archive) error {
		var entry *api.Entry
		var err error
		if cli.StatCLI.Follow {
			entry, err = a.Resolve(cli.StatCLI.Path)
		} else {
			entry, err = a.Stat(cli.StatCLI.Path)
		}
		if err != nil {
			return err
		}
		switch cli.Format {
		case FmtJson:
			return emitJson(stdout, entry)
		default:
			fmt.Fprintf(stdout, "%s\t%d\t%s", entry.Type, entry.Size, entry.Name)
			if entry.Type == api.Type_Symlink {
				fmt.Fprintf(stdout, " -> %s", entry.Linkname)
			}
			fmt.Fprintln(stdout)
			return nil
		}
	})
}

func executeLs(cli baseCLI, stdout io.Writer) error {
	return withArchive(cli.LsCLI.Archive, func(a *ustar.Archive) error {
		children, found, err := a.List(cli.LsCLI.Path, cli.LsCLI.Limit)
		if err != nil {
			return err
		}
		switch cli.Format {
		case FmtJson:
			return emitJson(stdout, map[string]interface{}{
				"children": children,
				"found":    found,
			})
		default:
			for _, child := range children {
				fmt.Fprintln(stdout, child)
			}
			return nil
		}
	})
}

func executeCat(cli baseCLI, stdout io.Writer) error {
	return withArchive(cli.CatCLI.Archive, func(a *ustar.Archive) error {
		buf := make([]byte, 32*1024)
		offset := cli.CatCLI.Offset
		budget := cli.CatCLI.Limit
		for {
			dest := buf
			if budget > 0 && budget < int64(len(dest)) {
				dest = dest[:budget]
			}
			n, remaining, err := a.Read(cli.CatCLI.Path, dest, offset)
			if err != nil {
				return err
			}
			if n > 0 {
				if _, err := stdout.Write(dest[:n]); err != nil {
					return Errorf(api.ErrIO, "writing output: %s", err)
				}
				offset += int64(n)
				if budget > 0 {
					budget -= int64(n)
					if budget == 0 {
						return nil
					}
				}
			}
			if remaining == 0 {
				return nil
			}
		}
	})
}

func emitJson(stdout io.Writer, v interface{}) error {
	marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, api.Atlas)
	if err := marshaller.Marshal(v); err != nil {
		return Errorf(api.ErrInternal, "serializing output: %s", err)
	}
	fmt.Fprintln(stdout)
	return nil
}
