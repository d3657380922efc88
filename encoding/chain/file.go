package chain

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// File is a chain file opened for reading.  It is a LineReader; wrap it
// with NewScanner or pass it to ReadAll.
type File struct {
	LineReader
	ctx  context.Context
	path string
	in   file.File
	gz   *gzip.Reader
}

// Open opens the chain file at path, which may name any scheme registered
// with github.com/grailbio/base/file.  Files ending in ".gz" are
// decompressed.  The caller must Close the result.
func Open(ctx context.Context, path string) (*File, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	f := &File{ctx: ctx, path: path, in: in}
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if f.gz, err = gzip.NewReader(reader); err != nil {
			_ = in.Close(ctx)
			return nil, errors.E(err, path)
		}
		reader = f.gz
	}
	f.LineReader = NewLineReader(reader)
	return f, nil
}

// Path returns the path given to Open.
func (f *File) Path() string { return f.path }

// LineNumber returns the number of the line most recently read.
func (f *File) LineNumber() int { return f.LineReader.(lineNumberer).LineNumber() }

// Close releases the file.
func (f *File) Close() error {
	var err error
	if f.gz != nil {
		err = f.gz.Close()
	}
	if cerr := f.in.Close(f.ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ReadPath reads every chain in the file at path.
func ReadPath(ctx context.Context, path string) (chains []Chain, err error) {
	f, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if chains, err = ReadAll(f); err != nil {
		return nil, errors.E(err, path)
	}
	return chains, nil
}
