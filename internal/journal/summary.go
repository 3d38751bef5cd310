package journal

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type sourceRow struct {
	Source     string
	Runs       int
	Matched    int
	Mismatched int
	Failed     int
}

func (j *Journal) summaryPath(t time.Time) string {
	return filepath.Join(j.dir, "eod", t.In(ist).Format("2006-01-02")+".csv")
}

// SummarizeDay counts the day's verdicts per source into <dir>/eod/<date>.csv.
// It returns "" when nothing was journaled that day.
func (j *Journal) SummarizeDay(t time.Time) (string, error) {
	if j == nil {
		return "", nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.dayFile(t))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows := map[string]*sourceRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		r := rows[e.Source]
		if r == nil {
			r = &sourceRow{Source: e.Source}
			rows[e.Source] = r
		}
		r.Runs++
		switch {
		case e.Error != "":
			r.Failed++
		case e.Verdict == "Matched":
			r.Matched++
		default:
			r.Mismatched++
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := j.summaryPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"source", "runs", "matched", "not_matched", "failed"}); err != nil {
		return "", err
	}
	var total sourceRow
	for _, k := range keys {
		r := rows[k]
		if err := w.Write([]string{r.Source, strconv.Itoa(r.Runs), strconv.Itoa(r.Matched), strconv.Itoa(r.Mismatched), strconv.Itoa(r.Failed)}); err != nil {
			return "", err
		}
		total.Runs += r.Runs
		total.Matched += r.Matched
		total.Mismatched += r.Mismatched
		total.Failed += r.Failed
	}
	w.Write([]string{"TOTAL", strconv.Itoa(total.Runs), strconv.Itoa(total.Matched), strconv.Itoa(total.Mismatched), strconv.Itoa(total.Failed)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, out.Close()
}

func (j *Journal) SummarizeToday() (string, error) {
	if j == nil {
		return "", nil
	}
	return j.SummarizeDay(j.now())
}

// ShouldSummarize reports whether the market has closed (15:40 IST) and
// today's summary has not been written yet.
func (j *Journal) ShouldSummarize() bool {
	if j == nil {
		return false
	}
	now := j.now().In(ist)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 15, 40, 0, 0, ist)
	if now.Before(cutoff) {
		return false
	}
	_, err := os.Stat(j.summaryPath(now))
	return errors.Is(err, os.ErrNotExist)
}
