package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// rowWriter renders one result set
type rowWriter func(w io.Writer, fields tds.Fields, rows []tds.Row) error

func newRowWriter(format string) (rowWriter, error) {
	switch format {
	case "json":
		return writeJSON, nil
	case "table":
		return writeTable, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: json, table)", format)
	}
}

// writeJSON writes one JSON object per row
func writeJSON(w io.Writer, _ tds.Fields, rows []tds.Row) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}
	return nil
}

// writeTable writes an aligned text table with a header row
func writeTable(w io.Writer, fields tds.Fields, rows []tds.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, f := range fields {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, f.Name)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, v := range row.Values() {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, v.String())
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintf(tw, "(%d rows)\n", len(rows))
	return tw.Flush()
}
