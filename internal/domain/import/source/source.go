// Package source turns a user selection into a Descriptor: where the raw data
// lives and which format it is in. Nothing here reads file contents.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind identifies where a descriptor's payload comes from.
type Kind string

const (
	KindURL  Kind = "url"
	KindFile Kind = "file"
	KindText Kind = "text"
)

// Format identifies how the raw text is encoded.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var (
	ErrUnsupportedFormat = errors.New("the file must have a .csv or .json extension")
	ErrUnknownSelection  = errors.New("unknown data source")
	ErrInvalidDescriptor = errors.New("invalid source descriptor")
)

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromFilename derives the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

// FileHandle is an opaque reference to a user-provided file.
type FileHandle interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Descriptor describes one source. Exactly one of URL, File or Text is used,
// matching Kind. Treat it as immutable once built.
type Descriptor struct {
	Kind   Kind       `json:"kind"`
	Format Format     `json:"format"`
	URL    string     `json:"url,omitempty"`
	File   FileHandle `json:"-"`
	Text   string     `json:"-"`
}

// NewURL describes a remote file.
func NewURL(format Format, url string) *Descriptor {
	return &Descriptor{Kind: KindURL, Format: format, URL: url}
}

// NewFile describes a user file; the format comes from its extension.
func NewFile(file FileHandle) (*Descriptor, error) {
	format, err := FormatFromFilename(file.Name())
	if err != nil {
		return nil, err
	}
	return &Descriptor{Kind: KindFile, Format: format, File: file}, nil
}

// NewText describes literal text.
func NewText(format Format, text string) *Descriptor {
	return &Descriptor{Kind: KindText, Format: format, Text: text}
}

// Validate checks that the payload matches the kind and the format is known.
func (d *Descriptor) Validate() error {
	if d.Format != FormatCSV && d.Format != FormatJSON {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidDescriptor, d.Format)
	}
	switch d.Kind {
	case KindURL:
		if d.URL == "" || d.File != nil || d.Text != "" {
			return fmt.Errorf("%w: url source needs only a URL", ErrInvalidDescriptor)
		}
	case KindFile:
		if d.File == nil || d.URL != "" || d.Text != "" {
			return fmt.Errorf("%w: file source needs only a file handle", ErrInvalidDescriptor)
		}
	case KindText:
		if d.URL != "" || d.File != nil {
			return fmt.Errorf("%w: text source carries a URL or file", ErrInvalidDescriptor)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDescriptor, d.Kind)
	}
	return nil
}

// Name returns a short label for logs.
func (d *Descriptor) Name() string {
	switch d.Kind {
	case KindURL:
		return d.URL
	case KindFile:
		return d.File.Name()
	default:
		return "inline " + string(d.Format)
	}
}

// BytesFile is an in-memory FileHandle, used for uploads so nothing is written
// to disk.
type BytesFile struct {
	name string
	data []byte
}

// NewBytesFile wraps data under the given file name.
func NewBytesFile(name string, data []byte) *BytesFile {
	return &BytesFile{name: name, data: data}
}

func (f *BytesFile) Name() string { return f.name }

func (f *BytesFile) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
