package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/litebench/litebench/internal/bench"
	liteerrors "github.com/litebench/litebench/internal/errors"
)

// SampleRecord is one raw transaction sample tagged with its run cell, as
// written to the sample dump.
type SampleRecord struct {
	Behavior    string `json:"behavior"`
	ThreadCount int    `json:"thread_count"`
	ScanCount   int    `json:"scan_count"`
	UpdateCount int    `json:"update_count"`
	DurationNs  int64  `json:"duration_ns"`
	Status      string `json:"status"`
	Retries     int    `json:"retries"`
	Reason      string `json:"reason,omitempty"`
}

// WriteSamples dumps every raw transaction sample of the sweep as
// snappy-compressed JSONL, one record per line in sweep and worker order.
// The dump is meant for offline analysis beyond the summary statistics. Like
// WriteFile, the dump is written to a temp file and renamed into place so a
// crash never leaves a truncated stream at the destination.
func WriteSamples(path string, rep *bench.SweepReport) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".litebench-samples-*")
	if err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after successful rename

	if err := writeSamples(tmp, rep); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "move sample dump into place", err)
	}
	return nil
}

func writeSamples(w io.Writer, rep *bench.SweepReport) error {
	sw := snappy.NewBufferedWriter(w)
	enc := json.NewEncoder(sw)

	for _, res := range rep.Results {
		for _, s := range res.Samples {
			rec := SampleRecord{
				Behavior:    string(res.Config.Behavior),
				ThreadCount: res.Config.Threads,
				ScanCount:   res.Config.Scans,
				UpdateCount: res.Config.Updates,
				DurationNs:  s.Duration.Nanoseconds(),
				Status:      string(s.Outcome.Status),
				Retries:     s.Outcome.Retries,
				Reason:      s.Outcome.Reason,
			}
			if err := enc.Encode(rec); err != nil {
				return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "encode sample", err)
			}
		}
	}

	if err := sw.Close(); err != nil {
		return liteerrors.NewReportError(liteerrors.CodeWriteFailed, "flush sample dump", err)
	}
	return nil
}

// ReadSamples reads back a snappy-compressed sample dump.
func ReadSamples(path string) ([]SampleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed, "open sample dump", err)
	}
	defer f.Close()

	dec := json.NewDecoder(snappy.NewReader(f))

	var records []SampleRecord
	for {
		var rec SampleRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, liteerrors.NewReportError(liteerrors.CodeParseFailed, "decode sample", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
