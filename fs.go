package collate

import (
	"io/fs"
	"path"
	"time"
)

// FS returns a read-only fs.FS over the indexed resources.
//
// Names follow fs.ValidPath, so only resources packed from relative paths
// are reachable. Opened files are collated Readers and also implement
// io.Seeker. Directories are not modeled: Open(".") and opening a directory
// return fs.ErrNotExist, so fs.WalkDir and fstest.TestFS do not apply. Use
// Accessor.List and Accessor.ListRecursive to enumerate resources.
func (a *Accessor) FS() fs.FS {
	return resourceFS{a: a}
}

type resourceFS struct {
	a *Accessor
}

// Interface compliance.
var (
	_ fs.FS         = resourceFS{}
	_ fs.StatFS     = resourceFS{}
	_ fs.ReadFileFS = resourceFS{}
	_ fs.File       = (*resourceFile)(nil)
)

// Open implements fs.FS.
func (rfs resourceFS) Open(name string) (fs.File, error) {
	loc, err := rfs.lookup("open", name)
	if err != nil {
		return nil, err
	}
	r, err := OpenReader(FromUnix(name), rfs.a)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &resourceFile{Reader: r, info: resourceInfo{name: path.Base(name), size: loc.Size}}, nil
}

// Stat implements fs.StatFS.
func (rfs resourceFS) Stat(name string) (fs.FileInfo, error) {
	loc, err := rfs.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return resourceInfo{name: path.Base(name), size: loc.Size}, nil
}

// ReadFile implements fs.ReadFileFS.
func (rfs resourceFS) ReadFile(name string) ([]byte, error) {
	if _, err := rfs.lookup("read", name); err != nil {
		return nil, err
	}
	data, err := ReadResource(FromUnix(name), rfs.a)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (rfs resourceFS) lookup(op, name string) (ResourceLocation, error) {
	if !fs.ValidPath(name) {
		return ResourceLocation{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	loc, err := rfs.a.Resource(FromUnix(name))
	if err != nil {
		return ResourceLocation{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return loc, nil
}

// resourceFile adapts a Reader to fs.File.
type resourceFile struct {
	*Reader
	info resourceInfo
}

func (f *resourceFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

// resourceInfo implements fs.FileInfo for an indexed resource.
type resourceInfo struct {
	name string
	size int64
}

func (fi resourceInfo) Name() string       { return fi.name }
func (fi resourceInfo) Size() int64        { return fi.size }
func (fi resourceInfo) Mode() fs.FileMode  { return 0o444 }
func (fi resourceInfo) ModTime() time.Time { return time.Time{} }
func (fi resourceInfo) IsDir() bool        { return false }
func (fi resourceInfo) Sys() any           { return nil }
