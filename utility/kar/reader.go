// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pierrec/lz4"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if num, err := r.ReadAt(prefix, 0); num < len(prefix) {
		if err == nil || err == io.EOF {
			err = ErrFileFormat
		}
		return nil, err
	}
	if !bytes.Equal(prefix[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToInt64(prefix[MagicLength:])
	if err != nil || headerSize <= 0 || headerSize > MaxHeaderSize {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, int64(len(prefix))); int64(num) < headerSize {
		if err == nil || err == io.EOF {
			err = ErrFileFormat
		}
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}

	dataOffset := int64(len(prefix)) + headerSize
	if err := header.validate(sizeOf(r) - dataOffset); err != nil {
		return nil, err
	}

	return &Archive{
		reader:     r,
		header:     header,
		dataOffset: dataOffset,
	}, nil
}

// validate checks every index entry lies within dataSize bytes of file
// data. A negative dataSize means the size of the reader is unknown and
// only the entries themselves are checked.
func (h *Header) validate(dataSize int64) error {
	for _, e := range h.Index {
		if e.Offset < 0 || e.Size < 0 || e.CompressedSize < 0 {
			return fmt.Errorf("%w: bad index entry %s", ErrFileFormat, e.Name)
		}
		if e.Offset > math.MaxInt64-e.CompressedSize {
			return fmt.Errorf("%w: bad index entry %s", ErrFileFormat, e.Name)
		}
		if dataSize >= 0 && e.Offset+e.CompressedSize > dataSize {
			return fmt.Errorf("%w: %s runs past the end of the archive", ErrFileFormat, e.Name)
		}
	}
	return nil
}

// sizeOf reports the size of readers that know it, or -1.
func sizeOf(r io.ReaderAt) int64 {
	switch v := r.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Len() int }:
		return int64(v.Len())
	case interface{ Stat() (os.FileInfo, error) }:
		if info, err := v.Stat(); err == nil {
			return info.Size()
		}
	}
	return -1
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
}

// Header returns the archive header, including its index.
func (a *Archive) Header() Header {
	return a.header
}

// List returns names of all files in the archive, in index order.
func (a *Archive) List() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// Has reports whether the archive contains a file with the given name.
func (a *Archive) Has(name string) bool {
	_, ok := a.header.Lookup(name)
	return ok
}

// maxPrealloc caps the buffer ReadAll reserves up front from the index size.
const maxPrealloc = 16 << 20

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, min(r.Size(), maxPrealloc)))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("kar: read %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Find is ReadAll under the name used by asset boxes.
func (a *Archive) Find(name string) ([]byte, error) {
	return a.ReadAll(name)
}

// FindString returns the contents of a file as a string.
func (a *Archive) FindString(name string) (string, error) {
	data, err := a.ReadAll(name)
	return string(data), err
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}

// Name returns the name of the file in the archive.
func (r *Reader) Name() string {
	return r.entry.Name
}

// Size returns the uncompressed size of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}
