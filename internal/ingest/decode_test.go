// v0
// internal/ingest/decode_test.go
package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeScan(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	cases := []struct {
		name       string
		raw        string
		wantErr    bool
		wantWeight float64
		weightSet  bool
		wantTS     time.Time
	}{
		{
			name:       "full payload rfc3339",
			raw:        `{"userId":"u1","qrCode":"PAPER_001","itemName":"Paper","category":"dry","weight":0.3,"unit":"kg","timestamp":"2024-06-01T08:30:00Z"}`,
			wantWeight: 0.3, weightSet: true, wantTS: ts,
		},
		{
			name:       "epoch millis number",
			raw:        `{"qrCode":"PAPER_001","weight":"250","unit":"g","timestamp":1717230600000}`,
			wantWeight: 250, weightSet: true, wantTS: ts,
		},
		{
			name:   "epoch millis string",
			raw:    `{"qrCode":"PAPER_001","timestamp":"1717230600000"}`,
			wantTS: ts,
		},
		{name: "no weight no timestamp", raw: `{"qrCode":"BATTERY_001","weight":null}`},
		{name: "missing qr", raw: `{"itemName":"Paper"}`, wantErr: true},
		{name: "bad json", raw: `{"qrCode":`, wantErr: true},
		{name: "bad weight", raw: `{"qrCode":"PAPER_001","weight":"heavy"}`, wantErr: true},
		{name: "infinite weight string", raw: `{"qrCode":"PAPER_001","weight":"Inf"}`, wantErr: true},
		{name: "infinity weight string", raw: `{"qrCode":"PAPER_001","weight":"-Infinity"}`, wantErr: true},
		{name: "nan weight string", raw: `{"qrCode":"PAPER_001","weight":"NaN"}`, wantErr: true},
		{name: "bad timestamp", raw: `{"qrCode":"PAPER_001","timestamp":"yesterday"}`, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeScan([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.WeightGiven != tc.weightSet || got.Event.Weight != tc.wantWeight {
				t.Fatalf("weight = %v (given %v), want %v (given %v)", got.Event.Weight, got.WeightGiven, tc.wantWeight, tc.weightSet)
			}
			if !got.Event.Timestamp.Equal(tc.wantTS) {
				t.Fatalf("timestamp = %v, want %v", got.Event.Timestamp, tc.wantTS)
			}
		})
	}
}
