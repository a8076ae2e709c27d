// Reads and writes the files exchanged by the wotscript tool.
//
// Every file starts with the 8 byte encoding of the parameters of the
// instance it belongs to, followed by the payload: a public key set,
// a witness or a compiled program.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/nightlyone/lockfile"

	"github.com/bwesterb/go-wotscript"
)

const headerSize = 8

// Returned (wrapped) by Write if another process is writing the same file.
var ErrLocked = errors.New("locked by another process")

// Writes buf to path.  The file is written next to path first and then
// moved into place while holding the lock file path.lock.
func Write(path string, buf []byte) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("could not turn %s into an absolute path: %w", path, err)
	}

	lockFilePath := absPath + ".lock"
	flock, err := lockfile.New(lockFilePath)
	if err != nil {
		return fmt.Errorf("failed to create lockfile %s: %w", lockFilePath, err)
	}
	err = flock.TryLock()
	if _, ok := err.(interface {
		Temporary() bool
	}); ok {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	defer flock.Unlock()

	tmpPath := absPath + ".tmp"
	if err = os.WriteFile(tmpPath, buf, 0644); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Returns a copy of the contents of the file at path, which is read by
// mapping it into memory.
func Read(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		// empty files can't be mapped
		return []byte{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}
	defer m.Unmap()

	ret := make([]byte, len(m))
	copy(ret, m)
	return ret, nil
}

// Writes payload to path, prefixed by the parameters of ctx.
func WriteFor(path string, ctx *wotscript.Context, payload []byte) error {
	params := ctx.Params()
	header, _ := params.MarshalBinary()
	return Write(path, append(header, payload...))
}

// Reads a file written by WriteFor.  Returns a context for the parameters
// in its header and the payload.
func ReadFor(path string) (*wotscript.Context, []byte, error) {
	buf, err := Read(path)
	if err != nil {
		return nil, nil, err
	}
	if len(buf) < headerSize {
		return nil, nil, fmt.Errorf("%s is too short", path)
	}
	var params wotscript.Params
	if err = params.UnmarshalBinary(buf[:headerSize]); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	ctx, err := wotscript.NewContext(params)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return ctx, buf[headerSize:], nil
}
