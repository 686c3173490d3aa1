// Package decoder fetches the raw text behind a source descriptor.
package decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
)

// DefaultMaxBytes caps a single payload.
const DefaultMaxBytes int64 = 32 << 20

var (
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrNoObjectStore     = errors.New("object store not configured")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrFileRead          = errors.New("could not read file")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TransferError reports a failed remote read: either a non-2xx status or a
// transport failure (StatusCode 0, Err set).
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ObjectOpener reads objects from an S3-compatible store.
type ObjectOpener interface {
	OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Decoder resolves descriptors to text.
type Decoder struct {
	client   *http.Client
	objects  ObjectOpener
	maxBytes int64
	logger   *slog.Logger
}

// New creates a decoder using http.DefaultClient and no object store.
func New(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
		logger:   logger,
	}
}

// WithHTTPClient replaces the client used for http(s) sources.
func (d *Decoder) WithHTTPClient(client *http.Client) *Decoder {
	d.client = client
	return d
}

// WithObjectStore enables s3:// sources.
func (d *Decoder) WithObjectStore(objects ObjectOpener) *Decoder {
	d.objects = objects
	return d
}

// WithMaxBytes sets the payload cap. Zero or negative disables it.
func (d *Decoder) WithMaxBytes(n int64) *Decoder {
	d.maxBytes = n
	return d
}

// Decode returns the text for desc with any leading BOM removed.
// A cancelled ctx is returned as ctx.Err(), never as a TransferError.
func (d *Decoder) Decode(ctx context.Context, desc *source.Descriptor) (string, error) {
	if err := desc.Validate(); err != nil {
		return "", err
	}

	switch desc.Kind {
	case source.KindText:
		return strings.TrimPrefix(desc.Text, "\ufeff"), nil
	case source.KindFile:
		rc, err := desc.File.Open(ctx)
		if err != nil {
			return "", d.ctxErr(ctx, fmt.Errorf("%w %s: %w", ErrFileRead, desc.File.Name(), err))
		}
		defer rc.Close()
		data, err := d.readAll(ctx, rc)
		if err != nil {
			return "", d.ctxErr(ctx, fmt.Errorf("%w %s: %w", ErrFileRead, desc.File.Name(), err))
		}
		return decodeText(data), nil
	default:
		return d.fetch(ctx, desc.URL)
	}
}

func (d *Decoder) fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &TransferError{URL: rawURL, Err: err}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return d.fetchHTTP(ctx, rawURL)
	case "s3":
		return d.fetchObject(ctx, rawURL, u.Host, strings.TrimPrefix(u.Path, "/"))
	}
	return "", &TransferError{URL: rawURL, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
}

func (d *Decoder) fetchHTTP(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &TransferError{URL: rawURL, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", d.ctxErr(ctx, &TransferError{URL: rawURL, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("source fetch failed",
			slog.String("url", rawURL),
			slog.Int("status", resp.StatusCode))
		return "", &TransferError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := d.readAll(ctx, resp.Body)
	if err != nil {
		return "", d.ctxErr(ctx, &TransferError{URL: rawURL, Err: err})
	}
	return decodeText(data), nil
}

func (d *Decoder) fetchObject(ctx context.Context, rawURL, bucket, key string) (string, error) {
	if d.objects == nil {
		return "", &TransferError{URL: rawURL, Err: ErrNoObjectStore}
	}
	rc, err := d.objects.OpenObject(ctx, bucket, key)
	if err != nil {
		return "", d.ctxErr(ctx, &TransferError{URL: rawURL, Err: err})
	}
	defer rc.Close()

	data, err := d.readAll(ctx, rc)
	if err != nil {
		return "", d.ctxErr(ctx, &TransferError{URL: rawURL, Err: err})
	}
	return decodeText(data), nil
}

func (d *Decoder) readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	r = &ctxReader{ctx: ctx, r: r}
	if d.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrPayloadTooLarge, d.maxBytes)
	}
	return data, nil
}

// ctxErr prefers the context error so aborted reads never look like
// transfer failures.
func (d *Decoder) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// decodeText strips a UTF-8 BOM and falls back to Windows-1252 when the
// bytes are not valid UTF-8.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
