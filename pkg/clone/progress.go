package clone

import (
	"regexp"
	"strconv"
)

var (
	receivingRe = regexp.MustCompile(`Receiving objects:\s+(\d+)%`)
	resolvingRe = regexp.MustCompile(`Resolving deltas:\s+(\d+)%`)
)

// progressWriter adapts the textual sideband progress messages a Git
// server streams during clone into a single monotonic 0-100 figure,
// delivered to onProgress no more often than the caller's sampling policy
// allows (enforced by the caller, not here).
type progressWriter struct {
	buf        []byte
	onProgress func(percent int)
	high       int
}

func newProgressWriter(onProgress func(percent int)) *progressWriter {
	return &progressWriter{onProgress: onProgress}
}

// Write implements io.Writer. Git progress is sent as a stream of \r- and
// \n-terminated status lines; we split on either and parse each complete
// line independently.
func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	start := 0
	for i, b := range w.buf {
		if b == '\r' || b == '\n' {
			w.parseLine(string(w.buf[start:i]))
			start = i + 1
		}
	}
	w.buf = w.buf[start:]

	return len(p), nil
}

func (w *progressWriter) parseLine(line string) {
	// Receiving objects covers the first 80 points of overall progress,
	// resolving deltas the remaining 20, mirroring git's own weighting of
	// the two phases for an ordinary clone.
	if m := receivingRe.FindStringSubmatch(line); m != nil {
		pct, err := strconv.Atoi(m[1])
		if err == nil {
			w.report(pct * 80 / 100)
		}
		return
	}
	if m := resolvingRe.FindStringSubmatch(line); m != nil {
		pct, err := strconv.Atoi(m[1])
		if err == nil {
			w.report(80 + pct*20/100)
		}
	}
}

func (w *progressWriter) report(percent int) {
	if percent > 100 {
		percent = 100
	}
	if percent < w.high {
		return
	}
	w.high = percent
	if w.onProgress != nil {
		w.onProgress(percent)
	}
}
