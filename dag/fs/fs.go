// Package fs provides filesystem helpers for feeding the DAG builder from
// sources other than a plain fs.FS, e.g. an explicit list of OS paths.
package fs

import (
	"io/fs"
	"os"
)

// Opener is implemented by directory entries that know how to open
// themselves, bypassing the surrounding filesystem.
type Opener interface {
	Open() (fs.File, error)
}

// OsEntry is a directory entry backed by a path on the OS filesystem.
type OsEntry struct {
	Path     string
	FileInfo fs.FileInfo
}

var _ fs.DirEntry = (*OsEntry)(nil)
var _ Opener = (*OsEntry)(nil)

func (e *OsEntry) Open() (fs.File, error) {
	return os.Open(e.Path)
}

func (e *OsEntry) Name() string {
	return e.FileInfo.Name()
}

func (e *OsEntry) IsDir() bool {
	return e.FileInfo.IsDir()
}

func (e *OsEntry) Type() fs.FileMode {
	return e.FileInfo.Mode().Type()
}

func (e *OsEntry) Info() (fs.FileInfo, error) {
	return e.FileInfo, nil
}

// OsFs is an fs.FS over the OS filesystem rooted at the process working
// directory. Names are passed to os.Open unchanged.
type OsFs struct{}

func (f *OsFs) Open(name string) (fs.File, error) {
	return os.Open(name)
}
