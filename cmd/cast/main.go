// Command cast is the CLI surface described in §6: compress, decompress
// (optionally over a row range in an INDEXED container), and verify.
// The core package does not parse flags itself; this is the only
// consumer of os.Args.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	cast "github.com/AndreaLVR/CAST"
	"github.com/AndreaLVR/CAST/internal/runctl"
)

const (
	exitSuccess    = 0
	exitUsage      = 2
	exitIOError    = 3
	exitIntegrity  = 4
	exitCodecError = 5
	exitCancelled  = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsage
	}

	switch args[0] {
	case "compress":
		return runCompress(args[1:])
	case "decompress":
		return runDecompress(args[1:])
	case "verify":
		return runVerify(args[1:])
	default:
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cast <compress|decompress|verify> [flags] <input> <output>")
}

func runCompress(args []string) int {
	fs := flag.NewFlagSet("compress", flag.ContinueOnError)
	mode := fs.String("mode", "auto", "coder backend: auto, native, 7zip")
	chunkSize := fs.Int64("chunk-size", 0, "target block size in bytes (0 = default)")
	dictSize := fs.Int("dict-size", 0, "LZMA2 dictionary size in bytes (0 = default)")
	indexed := fs.Bool("indexed", false, "write a footer index enabling row-range random access")
	verify := fs.Bool("verify", false, "verify the reverse path immediately after compression")
	multithread := fs.Int("multithread", 1, "number of block-level worker lanes")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		usage()
		return exitUsage
	}

	in, out, code := openPair(fs.Arg(0), fs.Arg(1))
	if code != exitSuccess {
		return code
	}
	defer in.Close()
	defer out.Close()

	cfg := &cast.ContainerConfig{
		Block:    &cast.BlockConfig{TargetBlockBytes: *chunkSize},
		Coder:    coderMode(*mode),
		DictSize: *dictSize,
		Threads:  *multithread,
		Indexed:  *indexed,
		Verify:   *verify,
	}

	ctx, stop := runctl.WithInterrupt(context.Background())
	defer stop()

	if err := cast.NewCompressor(out, cfg).Compress(ctx, in); err != nil {
		return reportErr(err)
	}
	return exitSuccess
}

func runDecompress(args []string) int {
	fs := flag.NewFlagSet("decompress", flag.ContinueOnError)
	mode := fs.String("mode", "auto", "coder backend: auto, native, 7zip")
	rows := fs.String("rows", "", "row range lo..hi (requires an INDEXED container)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		usage()
		return exitUsage
	}

	cfg := &cast.ContainerConfig{Coder: coderMode(*mode)}
	d := cast.NewDecompressor(cfg)

	ctx, stop := runctl.WithInterrupt(context.Background())
	defer stop()

	if *rows != "" {
		lo, hi, err := parseRange(*rows)
		if err != nil {
			log.Print(err)
			return exitUsage
		}
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			log.Print(err)
			return exitIOError
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			log.Print(err)
			return exitIOError
		}
		out, outCode := createOut(fs.Arg(1))
		if outCode != exitSuccess {
			return outCode
		}
		defer out.Close()

		if err := d.DecompressRange(ctx, f, info.Size(), out, cast.RowRange{Lo: lo, Hi: hi}); err != nil {
			return reportErr(err)
		}
		return exitSuccess
	}

	in, out, code := openPair(fs.Arg(0), fs.Arg(1))
	if code != exitSuccess {
		return code
	}
	defer in.Close()
	defer out.Close()

	if err := d.Decompress(ctx, in, out); err != nil {
		return reportErr(err)
	}
	return exitSuccess
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	mode := fs.String("mode", "auto", "coder backend: auto, native, 7zip")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		usage()
		return exitUsage
	}

	in, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Print(err)
		return exitIOError
	}
	defer in.Close()

	cfg := &cast.ContainerConfig{Coder: coderMode(*mode)}
	ctx, stop := runctl.WithInterrupt(context.Background())
	defer stop()

	if err := cast.NewDecompressor(cfg).Verify(ctx, in); err != nil {
		return reportErr(err)
	}
	return exitSuccess
}

func coderMode(s string) cast.CoderMode {
	switch s {
	case "native":
		return cast.CoderNative
	case "7zip":
		return cast.CoderExternal
	default:
		return cast.CoderAuto
	}
}

func parseRange(s string) (lo, hi int64, err error) {
	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("cast: -rows wants lo..hi, got %q", s)
	}
	lo, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	hi, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func openPair(inPath, outPath string) (*os.File, *os.File, int) {
	in, err := os.Open(inPath)
	if err != nil {
		log.Print(err)
		return nil, nil, exitIOError
	}
	out, code := createOut(outPath)
	if code != exitSuccess {
		in.Close()
		return nil, nil, code
	}
	return in, out, exitSuccess
}

func createOut(path string) (*os.File, int) {
	out, err := os.Create(path)
	if err != nil {
		log.Print(err)
		return nil, exitIOError
	}
	return out, exitSuccess
}

// reportErr prints a single line naming the error kind, block index (if
// any), and optional byte offset (§7), and maps it to the matching exit
// code.
func reportErr(err error) int {
	log.Print(err)
	switch {
	case errors.Is(err, cast.ErrCancelled):
		return exitCancelled
	case errors.Is(err, cast.ErrIntegrityFail):
		return exitIntegrity
	case errors.Is(err, cast.ErrRangeOutOfBounds):
		return exitUsage
	case errors.Is(err, cast.ErrCodecEncode), errors.Is(err, cast.ErrCodecDecode):
		return exitCodecError
	case errors.Is(err, cast.ErrContainerMalformed), errors.Is(err, cast.ErrInputMalformed):
		return exitIntegrity
	default:
		return exitIOError
	}
}
