package hashio

import (
	"fmt"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
)

// JSONRecord is the wire form of a record shared by the HTTP API and the
// browser build.
type JSONRecord struct {
	Frame     int     `json:"frame"`
	Quality   int     `json:"quality"`
	Hash      string  `json:"hash"`
	Timestamp float64 `json:"timestamp"`
}

func ToJSON(seq fingerprint.Sequence) []JSONRecord {
	out := make([]JSONRecord, len(seq))
	for i, rec := range seq {
		out[i] = JSONRecord{
			Frame:     rec.FrameIndex,
			Quality:   rec.Quality,
			Hash:      rec.Hash.String(),
			Timestamp: rec.Timestamp,
		}
	}
	return out
}

// FromJSON parses and validates records received from a client.
func FromJSON(records []JSONRecord) (fingerprint.Sequence, error) {
	seq := make(fingerprint.Sequence, len(records))
	for i, r := range records {
		h, err := fingerprint.ParseHash256(r.Hash)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		seq[i] = fingerprint.Record{
			Hash:       h,
			FrameIndex: r.Frame,
			Quality:    r.Quality,
			Timestamp:  r.Timestamp,
		}
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}
