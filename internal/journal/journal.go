// Package journal keeps a daily JSON-lines record of reconciliations and
// summarises each day into a CSV.
package journal

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"position-desk/internal/types"
)

var ist = time.FixedZone("IST", 19800)

// Entry is one reconciliation attempt.
type Entry struct {
	Time     string `json:"time"`
	Source   string `json:"source"`
	TraceID  string `json:"trace_id,omitempty"`
	Verdict  string `json:"verdict,omitempty"`
	Exposure string `json:"exposure,omitempty"`
	FXSum    string `json:"fx_sum,omitempty"`
	CESum    string `json:"ce_sum,omitempty"`
	PESum    string `json:"pe_sum,omitempty"`
	Rows     int    `json:"rows"`
	Error    string `json:"error,omitempty"`
}

// FromResult fills the figures of a successful reconciliation.
func FromResult(source string, res types.ReconResult) Entry {
	return Entry{
		Source:   source,
		Verdict:  res.Verdict.String(),
		Exposure: res.Exposure,
		FXSum:    res.FXSum.String(),
		CESum:    res.CESum.String(),
		PESum:    res.PESum.String(),
		Rows:     len(res.Positions.Rows),
	}
}

// Journal appends entries to <dir>/<YYYY-MM-DD>.txt (IST days).
// A nil *Journal discards everything.
type Journal struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func New(dir string) *Journal {
	if dir == "" {
		return nil
	}
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Dir() string {
	if j == nil {
		return ""
	}
	return j.dir
}

func (j *Journal) dayFile(t time.Time) string {
	return filepath.Join(j.dir, t.In(ist).Format("2006-01-02")+".txt")
}

func (j *Journal) Append(e Entry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().In(ist)
	e.Time = now.Format("2006-01-02 15:04:05")
	p := j.dayFile(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last modified more than retentionDays ago.
func (j *Journal) CompressOlder(retentionDays int) error {
	if j == nil || retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		return gzipFile(p)
	})
}

func gzipFile(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	closeErr := gw.Close()
	if err := out.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	if copyErr != nil || closeErr != nil {
		os.Remove(gz)
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
	in.Close()
	return os.Remove(p)
}
