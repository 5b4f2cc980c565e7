package downloader

import (
	"errors"
	"io"
	"time"

	"tubebridge/internal/progress"
	"tubebridge/internal/util/format"
)

const meterInterval = 250 * time.Millisecond

// Meter wraps a stream and reports download progress to a Reporter at most
// once per interval, plus once at EOF.
type Meter struct {
	r     io.Reader
	total int64
	read  int64

	jobID string
	rep   progress.Reporter
	now   func() time.Time
	every time.Duration

	start time.Time
	last  time.Time
}

// NewMeter returns a Meter over r. total <= 0 means the size is unknown.
func NewMeter(r io.Reader, total int64, jobID string, rep progress.Reporter) *Meter {
	if rep == nil {
		rep = progress.Nop{}
	}
	m := &Meter{r: r, total: total, jobID: jobID, rep: rep, now: time.Now, every: meterInterval}
	m.start = m.now()
	m.last = m.start
	return m
}

func (m *Meter) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.read += int64(n)
	now := m.now()
	if errors.Is(err, io.EOF) || now.Sub(m.last) >= m.every {
		m.last = now
		m.rep.Update(m.snapshot(now))
	}
	return n, err
}

func (m *Meter) snapshot(now time.Time) progress.Update {
	u := progress.Update{
		JobID:   m.jobID,
		Stage:   progress.StageDownloading,
		Percent: -1,
		Message: "Downloading",
	}
	read := m.read
	u.Bytes = &read
	if m.total > 0 {
		u.Percent = float64(m.read) * 100 / float64(m.total)
		if u.Percent > 100 {
			u.Percent = 100
		}
	}
	elapsed := now.Sub(m.start).Seconds()
	if elapsed <= 0 {
		return u
	}
	rate := float64(m.read) / elapsed
	speed := format.HumanizeRate(rate)
	u.Speed = &speed
	if m.total > m.read && rate > 0 {
		eta := time.Duration(float64(m.total-m.read)/rate) * time.Second
		u.ETA = &eta
	}
	return u
}
