// Package report serializes a sweep report to a stable, parseable tabular
// artifact. Latencies are emitted as integer nanoseconds so a parse of the
// emitted file reproduces the in-process statistics exactly.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/litebench/litebench/internal/bench"
	liteerrors "github.com/litebench/litebench/internal/errors"
)

// Row is one report line: a swept RunConfig with its summary statistics.
type Row struct {
	Behavior    string `json:"behavior"`
	ThreadCount int    `json:"thread_count"`
	ScanCount   int    `json:"scan_count"`
	UpdateCount int    `json:"update_count"`
	SampleCount int    `json:"sample_count"`
	MeanNs      int64  `json:"mean_ns"`
	MedianNs    int64  `json:"median_ns"`
	P95Ns       int64  `json:"p95_ns"`
	P99Ns       int64  `json:"p99_ns"`
	RetryCount  int    `json:"retry_count"`
	FailCount   int    `json:"failure_count"`
	ElapsedNs   int64  `json:"elapsed_ns"`
}

// Document is the JSON report envelope.
type Document struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	SeedRows  int       `json:"seed_rows"`
	Results   []Row     `json:"results"`
}

var csvHeader = []string{
	"behavior", "thread_count", "scan_count", "update_count", "sample_count",
	"mean_ns", "median_ns", "p95_ns", "p99_ns", "retry_count", "failure_count",
	"elapsed_ns",
}

// Rows flattens a sweep report into report rows, preserving sweep order.
func Rows(rep *bench.SweepReport) []Row {
	rows := make([]Row, 0, len(rep.Results))
	for _, res := range rep.Results {
		rows = append(rows, Row{
			Behavior:    string(res.Config.Behavior),
			ThreadCount: res.Config.Threads,
			ScanCount:   res.Config.Scans,
			UpdateCount: res.Config.Updates,
			SampleCount: res.Stats.Count,
			MeanNs:      res.Stats.Mean.Nanoseconds(),
			MedianNs:    res.Stats.Median.Nanoseconds(),
			P95Ns:       res.Stats.P95.Nanoseconds(),
			P99Ns:       res.Stats.P99.Nanoseconds(),
			RetryCount:  res.Stats.Retries,
			FailCount:   res.Stats.Failures,
			ElapsedNs:   res.Elapsed.Nanoseconds(),
		})
	}
	return rows
}

// WriteFile writes the report to path, atomically: the content is written to
// a temp file in the destination directory and renamed into place, so a
// crash never leaves a half-written report. The format is JSON when the path
// ends in .json, CSV otherwise. A write failure is fatal for the benchmark.
func WriteFile(path string, rep *bench.SweepReport) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".litebench-report-*")
	if err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after successful rename

	if err := Write(tmp, path, rep); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "move report into place", err)
	}
	return nil
}

// Write serializes the report to w in the format implied by path's
// extension.
func Write(w io.Writer, path string, rep *bench.SweepReport) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return writeJSON(w, rep)
	}
	return writeCSV(w, rep)
}

func writeJSON(w io.Writer, rep *bench.SweepReport) error {
	doc := Document{
		RunID:     rep.RunID,
		CreatedAt: rep.CreatedAt,
		SeedRows:  rep.SeedRows,
		Results:   Rows(rep),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "encode JSON report", err)
	}
	return nil
}

func writeCSV(w io.Writer, rep *bench.SweepReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "write CSV header", err)
	}
	for _, r := range Rows(rep) {
		record := []string{
			r.Behavior,
			strconv.Itoa(r.ThreadCount),
			strconv.Itoa(r.ScanCount),
			strconv.Itoa(r.UpdateCount),
			strconv.Itoa(r.SampleCount),
			strconv.FormatInt(r.MeanNs, 10),
			strconv.FormatInt(r.MedianNs, 10),
			strconv.FormatInt(r.P95Ns, 10),
			strconv.FormatInt(r.P99Ns, 10),
			strconv.Itoa(r.RetryCount),
			strconv.Itoa(r.FailCount),
			strconv.FormatInt(r.ElapsedNs, 10),
		}
		if err := cw.Write(record); err != nil {
			return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "write CSV row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "flush CSV", err)
	}
	return nil
}

// ParseCSV reads back a CSV report. Round-tripping a report through
// writeCSV and ParseCSV reproduces identical per-column values.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed, "read CSV", err)
	}
	if len(records) == 0 {
		return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed, "empty report", nil)
	}
	if len(records[0]) != len(csvHeader) {
		return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed,
			fmt.Sprintf("header has %d columns, want %d", len(records[0]), len(csvHeader)), nil)
	}
	for i, name := range csvHeader {
		if records[0][i] != name {
			return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed,
				fmt.Sprintf("header column %d is %q, want %q", i, records[0][i], name), nil)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRecord(rec)
		if err != nil {
			return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed,
				fmt.Sprintf("row %d", i+1), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string) (Row, error) {
	if len(rec) != len(csvHeader) {
		return Row{}, fmt.Errorf("record has %d columns, want %d", len(rec), len(csvHeader))
	}

	ints := make([]int64, len(rec))
	for i := 1; i < len(rec); i++ {
		n, err := strconv.ParseInt(rec[i], 10, 64)
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", csvHeader[i], err)
		}
		ints[i] = n
	}

	return Row{
		Behavior:    rec[0],
		ThreadCount: int(ints[1]),
		ScanCount:   int(ints[2]),
		UpdateCount: int(ints[3]),
		SampleCount: int(ints[4]),
		MeanNs:      ints[5],
		MedianNs:    ints[6],
		P95Ns:       ints[7],
		P99Ns:       ints[8],
		RetryCount:  int(ints[9]),
		FailCount:   int(ints[10]),
		ElapsedNs:   ints[11],
	}, nil
}
