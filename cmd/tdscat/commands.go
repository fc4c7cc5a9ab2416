package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/core/resultset"
	"github.com/ruslano69/tdtp-tds/pkg/core/wire"
	"github.com/ruslano69/tdtp-tds/pkg/processors"
	"github.com/ruslano69/tdtp-tds/pkg/security"
)

// addScanFlags registers output flags shared by read and query
func addScanFlags(cmd *cobra.Command, opts *scanOptions) {
	f := cmd.Flags()
	f.IntVar(&opts.Seek, "seek", 0, "Start at row N of every result set (0-based)")
	f.IntVar(&opts.Limit, "limit", 0, "Print at most N rows per result set (0 = all)")
	f.StringVarP(&opts.Format, "format", "f", "", "Output format: json, table")
	f.StringVar(&opts.XLSX, "xlsx", "", "Also export rows to an XLSX file")
	f.StringVar(&opts.Sheet, "sheet", "", "XLSX sheet name")
	f.BoolVar(&opts.Hash, "hash", false, "Print xxh3 fingerprint of every result set")
	f.BoolVar(&opts.Publish, "publish", false, "Send rows to the broker from config")
	f.StringSliceVar(&opts.Mask, "mask", nil, "Mask text columns (pattern chosen by column name)")
	f.StringSliceVar(&opts.Columns, "columns", nil, "Output only these columns, in this order")
}

// mergeScanOptions fills options that were not set by flags from the config
func (c *cli) mergeScanOptions(cmd *cobra.Command, opts scanOptions) scanOptions {
	out := c.cfg.Output
	flags := cmd.Flags()
	if !flags.Changed("format") {
		opts.Format = out.Format
	}
	if !flags.Changed("limit") {
		opts.Limit = out.Limit
	}
	if !flags.Changed("xlsx") {
		opts.XLSX = out.XLSX
	}
	if !flags.Changed("sheet") {
		opts.Sheet = out.Sheet
	}
	if !flags.Changed("hash") {
		opts.Hash = out.Hash
	}
	return opts
}

func (c *cli) newReadCmd() *cobra.Command {
	var opts scanOptions
	var charset string

	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Decode a captured TDS stream",
		Long: `Decode a captured TDS token stream. zstd-compressed captures are
detected by their magic bytes. Every result set is wrapped in a buffered
cursor, so --seek can address rows the stream delivered earlier.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts = c.mergeScanOptions(cmd, opts)
			if !cmd.Flags().Changed("charset") {
				charset = c.cfg.Output.Charset
			}

			s, err := newScanner(c.cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.connectBroker(ctx, c.cfg.Broker); err != nil {
				return err
			}

			err = readCapture(ctx, s, args[0], charset)
			s.report(ctx, c.cfg.ResultLog, args[0], err)
			return err
		},
	}
	addScanFlags(cmd, &opts)
	cmd.Flags().StringVar(&charset, "charset", "", "Code page of VARCHAR/CHAR/TEXT data, e.g. windows-1251")
	return cmd
}

// readCapture scans every result set of a capture file
func readCapture(ctx context.Context, s *scanner, path, charset string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	src, err := processors.OpenCapture(f)
	if err != nil {
		return err
	}
	defer src.Close()

	var opts []wire.Option
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return fmt.Errorf("unknown charset %q: %w", charset, err)
		}
		opts = append(opts, wire.WithCharset(enc))
	}

	r := wire.NewReader(src, opts...)
	for index := 0; ; index++ {
		fields, err := r.NextResult()
		if errors.Is(err, io.EOF) {
			log.Debug().Str("file", path).Int("result_sets", index).Msg("capture read")
			return nil
		}
		if err != nil {
			return fmt.Errorf("result %d: %w", index+1, err)
		}

		rs := resultset.NewBuffered(r, fields)
		err = s.Scan(ctx, index, rs)
		rs.Close()
		if err != nil {
			return err
		}
	}
}

func (c *cli) newQueryCmd() *cobra.Command {
	var opts scanOptions
	var allowWrite bool

	cmd := &cobra.Command{
		Use:   "query SQL...",
		Short: "Run queries against the configured database",
		Long: `Run one or more queries against the database from the config file and
decode the rows the same way read decodes a capture.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireDatabase(); err != nil {
				return err
			}
			ctx := cmd.Context()
			opts = c.mergeScanOptions(cmd, opts)

			s, err := newScanner(c.cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.connectBroker(ctx, c.cfg.Broker); err != nil {
				return err
			}

			err = c.runQueries(ctx, s, security.NewQueryPolicy(allowWrite), args)
			s.report(ctx, c.cfg.ResultLog, c.cfg.Database.Type, err)
			return err
		},
	}
	addScanFlags(cmd, &opts)
	cmd.Flags().BoolVar(&allowWrite, "allow-write", false, "Allow statements other than a single SELECT / WITH")
	return cmd
}

// checkQueries validates every query before any of them runs
func checkQueries(policy *security.QueryPolicy, queries []string) error {
	for index, q := range queries {
		if err := policy.Check(q); err != nil {
			return fmt.Errorf("query %d: %w", index+1, err)
		}
	}
	return nil
}

func (c *cli) runQueries(ctx context.Context, s *scanner, policy *security.QueryPolicy, queries []string) error {
	if err := checkQueries(policy, queries); err != nil {
		return err
	}
	a, err := adapters.New(ctx, c.cfg.Database.AdapterConfig())
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	for index, q := range queries {
		rs, err := adapters.Open(ctx, a, q)
		if err != nil {
			return fmt.Errorf("query %d: %w", index+1, err)
		}
		err = s.Scan(ctx, index, rs)
		rs.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) newCaptureCmd() *cobra.Command {
	var (
		out        string
		compress   bool
		level      int
		allowWrite bool
	)

	cmd := &cobra.Command{
		Use:   "capture SQL...",
		Short: "Write query results as a TDS stream",
		Long: `Run queries against the configured database and write their results as
a TDS token stream: one COLMETADATA / ROW... / DONE sequence per query.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireDatabase(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("compress") {
				compress = c.cfg.Output.Compress
			}
			if !cmd.Flags().Changed("level") {
				level = c.cfg.Output.CompressLevel
			}
			if err := checkQueries(security.NewQueryPolicy(allowWrite), args); err != nil {
				return err
			}
			return c.capture(cmd.Context(), out, compress, level, args)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().BoolVar(&compress, "compress", false, "Compress the stream with zstd")
	cmd.Flags().IntVar(&level, "level", processors.DefaultCompressionLevel, "zstd level, 1-22")
	cmd.Flags().BoolVar(&allowWrite, "allow-write", false, "Allow statements other than a single SELECT / WITH")
	cmd.MarkFlagRequired("out")
	return cmd
}

func (c *cli) capture(ctx context.Context, path string, compress bool, level int, queries []string) (err error) {
	a, err := adapters.New(ctx, c.cfg.Database.AdapterConfig())
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create capture: %w", err)
	}
	// a failed capture leaves no partial file behind
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close capture: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	start := time.Now()
	fileBytes := &processors.CountingWriter{W: f}
	streamBytes := fileBytes
	var zw io.WriteCloser
	if compress {
		if zw, err = processors.NewCaptureWriter(fileBytes, level); err != nil {
			return err
		}
		// released on every return; the success path closes it first and clears zw
		defer func() {
			if zw != nil {
				zw.Close()
			}
		}()
		streamBytes = &processors.CountingWriter{W: zw}
	}

	w := wire.NewWriter(streamBytes)
	rows := 0
	for index, q := range queries {
		n, err := captureQuery(ctx, a, w, q, index < len(queries)-1)
		if err != nil {
			return fmt.Errorf("query %d: %w", index+1, err)
		}
		rows += n
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	if zw != nil {
		cerr := zw.Close()
		zw = nil
		if cerr != nil {
			return fmt.Errorf("failed to finish compression: %w", cerr)
		}
	}

	event := log.Info().Str("file", path).Int("result_sets", len(queries)).Int("rows", rows)
	if compress {
		stats := processors.GetCompressionStats(streamBytes.N, fileBytes.N, time.Since(start))
		event = event.Int64("original_size", stats.OriginalSize).
			Int64("compressed_size", stats.CompressedSize).
			Float64("ratio", stats.Ratio)
	}
	event.Msg("capture written")
	return nil
}

// captureQuery writes one result set; more marks that another follows
func captureQuery(ctx context.Context, a adapters.Adapter, w *wire.Writer, query string, more bool) (int, error) {
	res, err := a.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	defer res.Close()

	fields := res.Fields()
	if err := w.WriteColMetadata(fields); err != nil {
		return 0, err
	}
	rows := 0
	for {
		rec, err := res.Fetch(fields)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, err
		}
		if err := w.WriteRow(rec); err != nil {
			return rows, fmt.Errorf("row %d: %w", rows, err)
		}
		rows++
	}
	return rows, w.WriteDone(more)
}

func (c *cli) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables of the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireDatabase(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := adapters.New(ctx, c.cfg.Database.AdapterConfig())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if v, err := a.GetDatabaseVersion(ctx); err == nil {
				log.Info().Str("type", a.GetDatabaseType()).Str("version", v).Msg("connected")
			}
			names, err := a.GetTableNames(ctx)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func (c *cli) newInitCmd() *cobra.Command {
	var dbType, out string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := CreateSampleConfig(dbType)
			if err != nil {
				return err
			}
			if err := SaveConfig(out, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbType, "type", "sqlite", "Database type: sqlite, postgres, mssql, mysql")
	cmd.Flags().StringVarP(&out, "out", "o", "tdscat.yaml", "Output file")
	return cmd
}
