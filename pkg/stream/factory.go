package stream

import (
	"io"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
)

// Stdio is the path that stands for standard input or standard output.
const Stdio = "-"

// Factory opens the byte streams behind path-based readers and writers.
type Factory interface {
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)

	// Create opens path for writing, truncating it. With atomic set the
	// data only replaces path when the returned writer is closed.
	Create(path string, atomic bool) (io.WriteCloser, error)
}

// FileFactory opens files on the local file system. Stdio maps to
// os.Stdin and os.Stdout, which are never closed.
type FileFactory struct{}

// NewFileFactory creates a new file factory
func NewFileFactory() *FileFactory {
	return &FileFactory{}
}

// Open opens a file for reading
func (f *FileFactory) Open(path string) (io.ReadCloser, error) {
	if path == Stdio {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(filepath.Clean(path))
}

// Create opens a file for writing, creating parent directories as needed
func (f *FileFactory) Create(path string, atomic bool) (io.WriteCloser, error) {
	if path == Stdio {
		return nopWriteCloser{os.Stdout}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	if atomic {
		return createAtomic(path)
	}
	return os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// aborter is implemented by outputs that can discard what was written.
type aborter interface {
	Abort() error
}

// atomicFile writes to a hidden temporary file next to its target and
// renames it over the target on Close.
type atomicFile struct {
	*os.File
	target string
	done   bool
}

func createAtomic(path string) (*atomicFile, error) {
	dir, base := filepath.Split(filepath.Clean(path))
	tmp := filepath.Join(dir, "."+base+"."+ksuid.New().String()+".tmp")

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &atomicFile{File: file, target: path}, nil
}

// Close syncs the temporary file and renames it over the target.
func (a *atomicFile) Close() error {
	if a.done {
		return nil
	}
	a.done = true

	if err := a.File.Sync(); err != nil {
		a.discard()
		return err
	}
	if err := a.File.Close(); err != nil {
		os.Remove(a.File.Name())
		return err
	}
	if err := os.Rename(a.File.Name(), a.target); err != nil {
		os.Remove(a.File.Name())
		return err
	}
	return nil
}

// Abort removes the temporary file and leaves the target untouched.
func (a *atomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	return a.discard()
}

func (a *atomicFile) discard() error {
	closeErr := a.File.Close()
	if err := os.Remove(a.File.Name()); err != nil {
		return err
	}
	return closeErr
}
