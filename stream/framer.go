package stream

import (
	"bytes"
	"slices"
)

// Delimiter separates records on the wire. A carriage return immediately
// before it is treated as part of the delimiter.
const Delimiter = '\n'

// Framer accumulates stream bytes and splits them into records.
//
// The zero value is ready to use.
type Framer struct {
	// pending holds bytes of the record currently being received.
	// It never contains Delimiter.
	pending []byte
	// records are the records completed by the most recent Feed.
	records []string
	// heartbeats counts the blank lines completed by the most recent Feed.
	heartbeats int
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends chunk to the pending tail and extracts every record it
// completes. Empty and whitespace-only lines are heartbeats and are dropped.
// The completed set from any previous call is replaced.
//
// Feed reports whether at least one record was completed.
func (f *Framer) Feed(chunk []byte) bool {
	f.records = f.records[:0]
	f.heartbeats = 0

	// The tail holds no delimiter, so only the new bytes need scanning.
	idx := bytes.IndexByte(chunk, Delimiter)
	if idx < 0 {
		f.pending = append(f.pending, chunk...)
		return false
	}

	// The first delimiter closes whatever was pending.
	f.pending = append(f.pending, chunk[:idx]...)
	f.emit(f.pending)
	rest := chunk[idx+1:]

	for {
		idx = bytes.IndexByte(rest, Delimiter)
		if idx < 0 {
			break
		}
		f.emit(rest[:idx])
		rest = rest[idx+1:]
	}

	// Whatever follows the last delimiter is the new tail. An empty
	// remainder means the chunk ended on a record boundary.
	f.pending = append(f.pending[:0], rest...)
	return len(f.records) > 0
}

// FeedString is Feed for text input.
func (f *Framer) FeedString(chunk string) bool {
	return f.Feed([]byte(chunk))
}

// Records returns the records completed by the most recent Feed, in arrival
// order. It does not modify the Framer and may be called any number of times.
func (f *Framer) Records() []string {
	if len(f.records) == 0 {
		return []string{}
	}
	return slices.Clone(f.records)
}

// Heartbeats returns the number of keep-alive lines completed by the most
// recent Feed. A blank chunk that does not end a line is not counted.
func (f *Framer) Heartbeats() int {
	return f.heartbeats
}

// Pending returns the number of buffered bytes not yet part of a record.
func (f *Framer) Pending() int {
	return len(f.pending)
}

// Reset discards the pending tail and the completed records.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
	f.records = f.records[:0]
	f.heartbeats = 0
}

// emit records line unless it is a heartbeat.
func (f *Framer) emit(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(bytes.TrimSpace(line)) == 0 {
		f.heartbeats++
		return
	}
	f.records = append(f.records, string(line))
}
