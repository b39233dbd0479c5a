package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guttosm/debpulse/internal/calendar"
	"github.com/guttosm/debpulse/internal/domain/models"
	"github.com/guttosm/debpulse/internal/fetcher"
	"github.com/guttosm/debpulse/internal/logger"
	"github.com/guttosm/debpulse/internal/output"
	"github.com/guttosm/debpulse/internal/table"
)

const stemDateLayout = "20060102"

// ErrNothingDownloaded is returned by Run when no file could be fetched.
var ErrNothingDownloaded = errors.New("no file was downloaded")

// Downloader fetches one URL into a local file.
type Downloader interface {
	Fetch(ctx context.Context, url, dest string) error
}

// PriceSink persists consolidated rows. The storage repository satisfies it.
type PriceSink interface {
	ReplacePricesForDate(date time.Time, rows []models.PriceRow) error
	UpsertIngestionLog(run models.IngestionRun) error
}

// Options configures a Processor.
//
// Fields:
//   - BaseURL, FilePrefix: remote file location (BaseURL + FilePrefix + yymmdd + ".txt").
//   - DownloadDir: where YYYYMMDD.txt files are saved; created if missing.
//   - OutputFile: consolidated CSV rows are appended to.
//   - HeaderPolicy: when the CSV column row is written.
//   - IsBusinessDay: day filter; nil means weekdays only.
type Options struct {
	BaseURL       string
	FilePrefix    string
	DownloadDir   string
	OutputFile    string
	HeaderPolicy  output.HeaderPolicy
	IsBusinessDay calendar.IsBusinessDay
}

// Processor runs the download → parse → consolidate → append batch.
// Every step runs sequentially.
type Processor struct {
	opts       Options
	downloader Downloader
	sink       PriceSink

	now      func() time.Time
	newRunID func() string
}

// NewProcessor builds a Processor and makes sure the download directory exists.
// sink may be nil, in which case rows only go to the output file.
func NewProcessor(opts Options, downloader Downloader, sink PriceSink) (*Processor, error) {
	if downloader == nil {
		return nil, errors.New("downloader is required")
	}
	if opts.HeaderPolicy == "" {
		opts.HeaderPolicy = output.HeaderOnCreate
	}
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	return &Processor{
		opts:       opts,
		downloader: downloader,
		sink:       sink,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}, nil
}

// Result summarizes one run.
type Result struct {
	RunID         string
	Dates         []time.Time
	Downloaded    []string
	Parsed        int
	Rows          int
	HeaderWritten bool
}

// DownloadFiles fetches the files of the last numDays business days and
// returns the local paths that were saved. A failed download is logged and
// skipped.
func (p *Processor) DownloadFiles(ctx context.Context, lg zerolog.Logger, numDays int) ([]time.Time, []string, error) {
	dates, err := calendar.LastNBusinessDays(numDays, p.now(), p.opts.IsBusinessDay)
	if err != nil {
		return nil, nil, err
	}

	var files []string
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return dates, files, err
		}
		url := fetcher.BuildURL(p.opts.BaseURL, p.opts.FilePrefix, d)
		dest := filepath.Join(p.opts.DownloadDir, fetcher.FileName(d))

		lg.Info().Str("date", d.Format("2006-01-02")).Str("url", url).Msg("downloading")
		if err := p.downloader.Fetch(ctx, url, dest); err != nil {
			lg.Error().Str("url", url).Err(err).Msg("download failed")
			continue
		}
		lg.Info().Str("file", dest).Msg("file saved")
		files = append(files, dest)
	}
	return dates, files, nil
}

// ProcessFiles parses each file and concatenates the resulting tables.
// Files that fail to parse are logged and excluded. It returns table.ErrNoData
// when no file could be parsed.
func (p *Processor) ProcessFiles(ctx context.Context, lg zerolog.Logger, files []string) (*table.Table, []*ParsedFile, error) {
	var (
		parsed []*ParsedFile
		tables []*table.Table
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		pf, err := ParseFile(ctx, f)
		if err != nil {
			lg.Error().Str("file", f).Err(err).Msg("parse failed")
			continue
		}
		lg.Debug().Str("file", f).Strs("header", pf.Header).Int("rows", pf.Table.Len()).Msg("file parsed")
		parsed = append(parsed, pf)
		tables = append(tables, pf.Table)
	}

	consolidated, err := table.Concat(tables...)
	if err != nil {
		return nil, nil, err
	}
	return consolidated, parsed, nil
}

// Run executes the whole batch for the last numDays business days.
//
// Outcomes:
//   - nil error: rows appended to OutputFile (and persisted when a sink is set).
//   - ErrNothingDownloaded: no file fetched; nothing written.
//   - table.ErrNoData: files fetched but none parsed; nothing written.
//   - any other error: unexpected failure, including a recovered panic.
func (p *Processor) Run(ctx context.Context, numDays int) (res Result, err error) {
	res.RunID = p.newRunID()
	lg := logger.WithRun(res.RunID)
	ctx = lg.WithContext(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil && !errors.Is(err, ErrNothingDownloaded) {
			lg.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("run failed")
		}
	}()

	lg.Info().Int("days", numDays).Str("output", p.opts.OutputFile).Msg("run start")

	dates, files, err := p.DownloadFiles(ctx, lg, numDays)
	res.Dates = dates
	res.Downloaded = files
	if err != nil {
		return res, fmt.Errorf("download: %w", err)
	}
	if len(files) == 0 {
		lg.Warn().Int("dates", len(dates)).Msg("no file was downloaded")
		return res, ErrNothingDownloaded
	}

	consolidated, parsed, err := p.ProcessFiles(ctx, lg, files)
	if err != nil {
		return res, fmt.Errorf("process files: %w", err)
	}
	res.Parsed = len(parsed)
	res.Rows = consolidated.Len()

	wrote, err := output.AppendCSV(p.opts.OutputFile, consolidated, p.opts.HeaderPolicy)
	if err != nil {
		return res, fmt.Errorf("write output: %w", err)
	}
	res.HeaderWritten = wrote
	lg.Info().Str("output", p.opts.OutputFile).Int("rows", res.Rows).Bool("header_written", wrote).Msg("csv appended")

	if p.sink != nil {
		if err := p.persist(lg, res.RunID, parsed); err != nil {
			return res, fmt.Errorf("persist: %w", err)
		}
	}

	lg.Info().Int("files", res.Parsed).Int("rows", res.Rows).Dur("elapsed", time.Since(start)).Msg("run completed")
	return res, nil
}

// persist stores every parsed file under its own date. It keeps going after a
// failed file and returns all failures joined.
func (p *Processor) persist(lg zerolog.Logger, runID string, parsed []*ParsedFile) error {
	var errs []error
	for _, pf := range parsed {
		day, err := time.Parse(stemDateLayout, pf.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("file %s: date from name: %w", pf.Path, err))
			continue
		}

		records := pf.Table.Records()
		rows := make([]models.PriceRow, 0, len(records))
		for i, rec := range records {
			rows = append(rows, models.PriceRow{FileDate: day, RowIndex: i, Fields: rec})
		}

		if err := p.sink.ReplacePricesForDate(day, rows); err != nil {
			errs = append(errs, fmt.Errorf("file %s: store rows: %w", pf.Path, err))
			continue
		}
		run := models.IngestionRun{FileDate: day, Filename: filepath.Base(pf.Path), RowCount: len(rows), RunID: runID}
		if err := p.sink.UpsertIngestionLog(run); err != nil {
			errs = append(errs, fmt.Errorf("file %s: ingestion log: %w", pf.Path, err))
			continue
		}
		lg.Info().Str("file", run.Filename).Int("rows", run.RowCount).Msg("rows persisted")
	}
	return errors.Join(errs...)
}
