package service

import (
	"errors"
	"fmt"

	"github.com/FACorreiaa/coverage-reports/internal/domain/import/decoder"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/normalizer"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/parser"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
)

// User-facing load failure messages.
const (
	MsgDownloadFailed  = "could not download the data file"
	MsgFileRead        = "could not read the selected file"
	MsgTooLarge        = "the data file is too large"
	MsgMalformedJSON   = "could not parse the JSON file"
	MsgInvalidNumeric  = "invalid numeric values were found in the data"
	MsgUnknownSource   = "unknown data source"
	MsgUnknown         = "an unknown error occurred"
	msgMissingFieldFmt = "missing field %s in the data"
)

// Describe turns a load failure into the single message shown to users.
// Unrecognized errors get a generic message; the detail stays in the logs.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		transferErr *decoder.TransferError
		missingErr  *normalizer.MissingFieldError
	)
	switch {
	case errors.Is(err, decoder.ErrPayloadTooLarge):
		return MsgTooLarge
	case errors.As(err, &transferErr):
		return MsgDownloadFailed
	case errors.Is(err, decoder.ErrFileRead):
		return MsgFileRead
	case errors.Is(err, parser.ErrMalformedJSON):
		return MsgMalformedJSON
	case errors.As(err, &missingErr):
		return fmt.Sprintf(msgMissingFieldFmt, missingErr.Field)
	case errors.Is(err, normalizer.ErrInvalidNumeric):
		return MsgInvalidNumeric
	case errors.Is(err, source.ErrUnsupportedFormat):
		return source.ErrUnsupportedFormat.Error()
	case errors.Is(err, source.ErrUnknownSelection), errors.Is(err, source.ErrInvalidDescriptor):
		return MsgUnknownSource
	}
	return MsgUnknown
}
