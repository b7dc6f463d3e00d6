package coder

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

var (
	sevenZip     string
	sevenZipOnce sync.Once
)

// sevenZipPath resolves the external 7-Zip binary once: $SEVEN_ZIP_PATH if
// set, otherwise whatever "7z" or "7zz" is on PATH.
func sevenZipPath() string {
	sevenZipOnce.Do(func() {
		if p := os.Getenv("SEVEN_ZIP_PATH"); p != "" {
			sevenZip = p
			return
		}
		for _, name := range []string{"7zz", "7z"} {
			if p, err := exec.LookPath(name); err == nil {
				sevenZip = p
				return
			}
		}
	})
	return sevenZip
}

// CanExternal reports whether an external 7-Zip binary is available.
func CanExternal() bool {
	return sevenZipPath() != ""
}

// External shells out to 7-Zip's LZMA2 codec in xz format (`7z a -txz
// -si -so -m0=lzma2`) for environments where linking a native LZMA2
// implementation isn't desirable. It is the Codec selected by CoderExternal.
type External struct{}

func (External) Encode(plaintext []byte, dictSize, threads int) ([]byte, error) {
	bin := sevenZipPath()
	if bin == "" {
		return nil, fmt.Errorf("%w: no external 7-Zip binary found (set SEVEN_ZIP_PATH)", ErrEncode)
	}
	args := []string{
		"a", "-txz", "-si", "-so",
		"-m0=lzma2", fmt.Sprintf("-mx=9"),
		fmt.Sprintf("-md=%dm", dictSize>>20),
	}
	if threads > 0 {
		args = append(args, fmt.Sprintf("-mmt=%d", threads))
	}
	out, err := run(bin, args, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

func (External) Decode(compressed []byte) ([]byte, error) {
	bin := sevenZipPath()
	if bin == "" {
		return nil, fmt.Errorf("%w: no external 7-Zip binary found (set SEVEN_ZIP_PATH)", ErrDecode)
	}
	out, err := run(bin, []string{"e", "-txz", "-si", "-so"}, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

func run(bin string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.Command(bin, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", bin, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
