// v0
// internal/ingest/decode.go
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed scan message")

// Payload is a decoded ingest message. WeightGiven is false when the device
// omitted the weight and the catalog default should apply.
type Payload struct {
	Event       scan.Event
	WeightGiven bool
}

// scanEnvelope mirrors the scan message sent by scanners and smart bins.
// Unknown fields are ignored.
type scanEnvelope struct {
	UserID    string          `json:"userId"`
	QRCode    string          `json:"qrCode"`
	ItemName  string          `json:"itemName"`
	Category  string          `json:"category"`
	Weight    json.RawMessage `json:"weight"`
	Unit      string          `json:"unit"`
	Timestamp json.RawMessage `json:"timestamp"`
	Impact    *scan.Impact    `json:"impact"`
}

// DecodeScan parses one message body. Semantic validation is left to the store.
func DecodeScan(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var env scanEnvelope
	if err := dec.Decode(&env); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(env.QRCode) == "" {
		return Payload{}, fmt.Errorf("%w: qrCode missing or empty", ErrMalformed)
	}

	weight, given, err := parseWeight(env.Weight)
	if err != nil {
		return Payload{}, err
	}
	ts, err := parseTimestamp(env.Timestamp)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		Event: scan.Event{
			UserID:    env.UserID,
			QRCode:    env.QRCode,
			ItemName:  env.ItemName,
			Category:  scan.Category(env.Category),
			Weight:    weight,
			Unit:      scan.Unit(env.Unit),
			Timestamp: ts,
			Impact:    env.Impact,
		},
		WeightGiven: given,
	}, nil
}

// parseWeight accepts JSON numbers and numeric strings. Absent or null weights
// are reported as not given.
func parseWeight(raw json.RawMessage) (float64, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		f, err := asNumber.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: weight %q", ErrMalformed, asNumber)
		}
		return f, true, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed := strings.TrimSpace(asString)
		if trimmed == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: weight %q", ErrMalformed, trimmed)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, fmt.Errorf("%w: weight %q is not finite", ErrMalformed, trimmed)
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("%w: weight format not recognized", ErrMalformed)
}

// parseTimestamp accepts RFC3339 strings and Unix milliseconds given as a
// number or string. A missing timestamp yields the zero time so the store
// assigns the server clock.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed := strings.TrimSpace(asString)
		if trimmed == "" {
			return time.Time{}, nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
			return ts.UTC(), nil
		}
		if millis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return time.UnixMilli(millis).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("%w: unsupported timestamp %q", ErrMalformed, trimmed)
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if millis, err := asNumber.Int64(); err == nil {
			return time.UnixMilli(millis).UTC(), nil
		}
		if f, err := asNumber.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp format not recognized", ErrMalformed)
}
