package mockstream

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/tweetkit/stream"
)

// Recording is the ordered list of records a Server replays.
type Recording struct {
	records []string
}

// NewRecording returns a recording of the given records.
func NewRecording(records ...string) *Recording {
	return &Recording{records: append([]string(nil), records...)}
}

// LoadRecording reads newline-delimited records from r. Blank lines are
// dropped and a final record without a terminator is kept.
func LoadRecording(r io.Reader) (*Recording, error) {
	framer := stream.NewFramer()
	rec := &Recording{}
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 && framer.Feed(buf[:n]) {
			rec.records = append(rec.records, framer.Records()...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mockstream: read recording: %w", err)
		}
	}
	if framer.Pending() > 0 && framer.FeedString("\n") {
		rec.records = append(rec.records, framer.Records()...)
	}
	return rec, nil
}

// LoadRecordingFile reads a recording from path.
func LoadRecordingFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mockstream: open recording: %w", err)
	}
	defer f.Close()
	return LoadRecording(f)
}

// Records returns a copy of the recorded records.
func (r *Recording) Records() []string {
	return append([]string(nil), r.records...)
}

// Len returns the number of records.
func (r *Recording) Len() int {
	return len(r.records)
}

// Encode renders the recording as a stream body: every record terminated
// by "\r\n", with a heartbeat line after every heartbeatEvery records.
func (r *Recording) Encode(heartbeatEvery int) []byte {
	var b bytes.Buffer
	for i, rec := range r.records {
		b.WriteString(rec)
		b.WriteString("\r\n")
		if heartbeatEvery > 0 && (i+1)%heartbeatEvery == 0 {
			b.WriteString("\r\n")
		}
	}
	return b.Bytes()
}
