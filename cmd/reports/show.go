package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/decoder"
	importservice "github.com/FACorreiaa/coverage-reports/internal/domain/import/service"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
	"github.com/FACorreiaa/coverage-reports/internal/domain/report/export"
	"github.com/FACorreiaa/coverage-reports/internal/domain/report/render"
	"github.com/FACorreiaa/coverage-reports/pkg/config"
	"github.com/FACorreiaa/coverage-reports/pkg/logger"
	"github.com/FACorreiaa/coverage-reports/pkg/storage"
)

var errNoSource = errors.New("one of --source, --file or --url is required")

// ShowCmd loads a source and prints the reports.
type ShowCmd struct {
	out        io.Writer
	preset     string
	file       string
	url        string
	format     string
	exportPath string
	exportKind string
}

// NewShowCmd builds the "show" command writing to out.
func NewShowCmd(out io.Writer) *cobra.Command {
	sc := &ShowCmd{out: out}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Load a source and print the reports",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.preset, "source", "", "Bundled sample to load (csv or json)")
	cmd.Flags().StringVar(&sc.file, "file", "", "Path to a local .csv or .json file")
	cmd.Flags().StringVar(&sc.url, "url", "", "http(s):// or s3:// location of a data file")
	cmd.Flags().StringVar(&sc.format, "format", "", "Format of --url when its extension does not say (csv or json)")
	cmd.Flags().StringVar(&sc.exportPath, "export", "", "Also write a report to this .csv or .xlsx file")
	cmd.Flags().StringVar(&sc.exportKind, "report", string(export.KindCompanies), "Report to export (companies or regions)")
	cmd.MarkFlagsMutuallyExclusive("source", "file", "url")

	return cmd
}

func (sc *ShowCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cfg.Logging, os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return err
	}
	desc, err := sc.descriptor(cfg, st)
	if err != nil {
		return err
	}

	dec := decoder.New(log).WithMaxBytes(cfg.Import.MaxBytes)
	if objects, ok := st.(decoder.ObjectOpener); ok {
		dec.WithObjectStore(objects)
	}
	svc := importservice.NewImportService(dec, log)
	defer svc.Close()

	records, err := svc.Load(ctx, desc)
	if err != nil {
		log.Error("load failed", slog.String("source", desc.Name()), slog.Any("error", err))
		return errors.New(importservice.Describe(err))
	}

	reporter, err := render.NewReporter(sc.out, cfg.Import.Currency)
	if err != nil {
		return err
	}
	if err := reporter.Handle(records); err != nil {
		return err
	}

	if sc.exportPath != "" {
		return sc.export(records)
	}
	return nil
}

func (sc *ShowCmd) descriptor(cfg *config.Config, st storage.Storage) (*source.Descriptor, error) {
	switch {
	case sc.preset != "":
		var name string
		switch source.Selection(strings.ToLower(sc.preset)) {
		case source.SelectionCSV:
			name = cfg.Samples.CSVName
		case source.SelectionJSON:
			name = cfg.Samples.JSONName
		default:
			return nil, fmt.Errorf("%w: %q", source.ErrUnknownSelection, sc.preset)
		}
		return source.NewFile(storage.NewHandle(st, name))

	case sc.file != "":
		if _, err := source.FormatFromFilename(sc.file); err != nil {
			return nil, err
		}
		if _, err := os.Stat(sc.file); err != nil {
			return nil, fmt.Errorf("%s: %w", importservice.MsgFileRead, err)
		}
		local, err := storage.NewLocalStorage(filepath.Dir(sc.file))
		if err != nil {
			return nil, err
		}
		return source.NewFile(storage.NewHandle(local, filepath.Base(sc.file)))

	case sc.url != "":
		format, err := sc.urlFormat()
		if err != nil {
			return nil, err
		}
		return source.NewURL(format, sc.url), nil
	}
	return nil, errNoSource
}

func (sc *ShowCmd) urlFormat() (source.Format, error) {
	if sc.format != "" {
		return source.ParseFormat(sc.format)
	}
	path := sc.url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return source.FormatFromFilename(path)
}

func (sc *ShowCmd) export(records []billing.ServiceRecord) error {
	format, err := export.FormatFromPath(sc.exportPath)
	if err != nil {
		return err
	}
	kind, err := export.ParseKind(sc.exportKind)
	if err != nil {
		return err
	}

	f, err := os.Create(sc.exportPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.Write(f, kind, format, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	fmt.Fprintf(sc.out, "\nExported %s report to %s\n", kind, sc.exportPath)
	return nil
}
