package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/tdtp-tds/pkg/brokers"
	"github.com/ruslano69/tdtp-tds/pkg/core/resultset"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
	"github.com/ruslano69/tdtp-tds/pkg/processors"
	"github.com/ruslano69/tdtp-tds/pkg/resultlog"
	"github.com/ruslano69/tdtp-tds/pkg/retry"
	"github.com/ruslano69/tdtp-tds/pkg/xlsx"
)

// scanOptions are the output flags shared by read and query
type scanOptions struct {
	Seek    int
	Limit   int
	Format  string
	XLSX    string
	Sheet   string
	Hash    bool
	Publish bool
	Mask    []string
	Columns []string
}

// scanner renders result sets and feeds the configured sinks
type scanner struct {
	opts      scanOptions
	chain     *processors.Chain
	write     rowWriter
	out       io.Writer
	errOut    io.Writer
	publisher brokers.Publisher

	summary resultlog.ScanResult
}

func newScanner(cfg *Config, opts scanOptions, out, errOut io.Writer) (*scanner, error) {
	write, err := newRowWriter(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Seek < 0 || opts.Limit < 0 {
		return nil, fmt.Errorf("--seek and --limit must not be negative")
	}

	pm := NewProcessorManager()
	if err := pm.AddFromConfig(cfg.Processors); err != nil {
		return nil, err
	}
	pm.AddColumnFilter(opts.Columns)
	pm.AddMaskProcessor(opts.Mask)

	return &scanner{
		opts:    opts,
		chain:   pm.Chain(),
		write:   write,
		out:     out,
		errOut:  errOut,
		summary: resultlog.ScanResult{StartedAt: time.Now()},
	}, nil
}

// connectBroker opens the broker when publishing is requested
func (s *scanner) connectBroker(ctx context.Context, cfg BrokerConfig) error {
	if !s.opts.Publish && !cfg.Enabled {
		return nil
	}
	p, err := brokers.New(cfg.Config)
	if err != nil {
		return err
	}
	if cfg.Retry.Enabled {
		r, err := retry.NewRetryer(cfg.Retry)
		if err != nil {
			return err
		}
		r.OnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn().Err(err).Str("broker", cfg.Type).Int("attempt", attempt).Dur("delay", delay).Msg("broker call failed, retrying")
		})
		p = brokers.WithRetry(p, r)
	}
	if err := p.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", p.GetBrokerType(), err)
	}
	s.publisher = p
	return nil
}

// Scan renders one result set. index counts result sets from 0.
func (s *scanner) Scan(ctx context.Context, index int, rs resultset.ResultSet) error {
	if s.opts.Seek > 0 {
		if err := rs.Seek(s.opts.Seek); err != nil {
			return fmt.Errorf("result %d: %w", index+1, err)
		}
	}

	var rows []tds.Row
	for s.opts.Limit == 0 || len(rows) < s.opts.Limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, ok, err := rs.Next()
		if err != nil {
			return fmt.Errorf("result %d row %d: %w", index+1, s.opts.Seek+len(rows), err)
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}

	fields := rs.Fields()
	rows, err := s.chain.Process(ctx, fields, rows)
	if err != nil {
		return err
	}
	if fields, err = s.chain.OutputFields(fields); err != nil {
		return err
	}

	if index > 0 && s.opts.Format == "table" {
		fmt.Fprintln(s.out)
	}
	if err := s.write(s.out, fields, rows); err != nil {
		return err
	}

	sum := processors.FingerprintRows(rows)
	if s.opts.Hash {
		fmt.Fprintf(s.errOut, "result %d: %d rows xxh3 %s\n", index+1, len(rows), sum)
	}

	if s.opts.XLSX != "" {
		path := xlsxPath(s.opts.XLSX, index)
		if err := xlsx.ToXLSX(fields, rows, path, s.opts.Sheet); err != nil {
			return fmt.Errorf("failed to export %s: %w", path, err)
		}
		log.Info().Str("file", path).Int("rows", len(rows)).Msg("xlsx exported")
	}

	if s.publisher != nil {
		n, err := brokers.SendRows(ctx, s.publisher, fields, rows)
		if err != nil {
			return fmt.Errorf("failed to publish rows: %w", err)
		}
		log.Debug().Str("broker", s.publisher.GetBrokerType()).Int("messages", n).Msg("rows published")
	}

	s.summary.ResultSets++
	s.summary.Rows += len(rows)
	s.summary.Fingerprint = sum
	return nil
}

// Close releases the broker connection
func (s *scanner) Close() error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}

// report publishes the run summary to Redis when enabled
func (s *scanner) report(ctx context.Context, cfg resultlog.Config, source string, runErr error) {
	if !cfg.Enabled {
		return
	}
	s.summary.Source = source
	s.summary.Finish(time.Now(), runErr)

	p := resultlog.NewRedisPublisher(cfg)
	defer p.Close()
	if err := p.Publish(ctx, s.summary); err != nil {
		log.Warn().Err(err).Str("address", cfg.Address).Msg("failed to publish result log")
		return
	}
	log.Debug().Str("key", resultlog.StateKey(cfg.Name)).Msg("result log published")
}

// xlsxPath names the file of result set index; the first keeps the given name
func xlsxPath(path string, index int) string {
	if index == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), index+1, ext)
}
