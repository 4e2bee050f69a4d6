package hashio

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONRecordsRoundTrip(t *testing.T) {
	seq := sampleSequence(t)

	data, err := json.Marshal(ToJSON(seq))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"hash":"`+hashA+`"`) {
		t.Fatalf("expected hex hash in %s", data)
	}

	var records []JSONRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatal(err)
	}
	got, err := FromJSON(records)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if len(got) != len(seq) {
		t.Fatalf("expected %d records, got %d", len(seq), len(got))
	}
	for i := range seq {
		if got[i] != seq[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], seq[i])
		}
	}
}

func TestFromJSONRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []JSONRecord
	}{
		{"short hash", []JSONRecord{{Frame: 0, Quality: 50, Hash: "abc"}}},
		{"quality out of range", []JSONRecord{{Frame: 0, Quality: 101, Hash: hashA}}},
		{"frames out of order", []JSONRecord{
			{Frame: 5, Quality: 50, Hash: hashA, Timestamp: 1},
			{Frame: 2, Quality: 50, Hash: hashB, Timestamp: 2},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromJSON(tt.records); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
