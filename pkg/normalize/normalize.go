// Package normalize converts vendor-specific raw log records into the
// canonical models.Event schema. All parsers here are tolerant:
// malformed lines are skipped and missing fields are defaulted, never
// surfaced as errors.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const (
	// DefaultSeverity is assigned when a source carries no severity.
	DefaultSeverity = "INFO"

	// selTimeLayout matches ipmitool sel elist date+time columns.
	selTimeLayout = "01/02/2006 15:04:05"
)

// Record is one raw log record plus the context needed to place it.
// Zero fields are filled in by Normalize.
type Record struct {
	Timestamp time.Time
	Host      string
	Vendor    models.Vendor
	Service   string
	Severity  string
	Message   string
}

// Normalize builds a canonical Event from a raw record, supplying
// defaults for anything the source left empty. It is total: the
// returned Event always has a timestamp, severity and service.
// defaultService labels events whose source carries no component tag.
func Normalize(r Record, defaultService string) models.Event {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	sev := r.Severity
	if sev == "" {
		sev = DefaultSeverity
	}
	svc := r.Service
	if svc == "" {
		svc = defaultService
	}
	return models.Event{
		Timestamp: ts,
		Host:      r.Host,
		Vendor:    r.Vendor,
		Service:   svc,
		Severity:  sev,
		Message:   r.Message,
	}
}

// DecodeRedfishEntry normalizes one member of a Redfish log-entries
// collection. Field priorities follow what the common vendor
// implementations actually populate:
//
//	timestamp: Created, DateTime, else collection time
//	message:   Message, OemRecordFormat, else the whole entry
//	severity:  Severity, EntryType, else INFO
//	component: SensorType, OriginOfCondition, else "log"
func DecodeRedfishEntry(entry map[string]any, host string, vendor models.Vendor) models.Event {
	var ts time.Time
	if raw, ok := stringField(entry, "Created", "DateTime"); ok {
		if parsed, ok := parseRedfishTime(raw); ok {
			ts = parsed
		}
	}

	msg, ok := stringField(entry, "Message", "OemRecordFormat")
	if !ok {
		msg = renderEntry(entry)
	}

	sev, _ := stringField(entry, "Severity", "EntryType")
	comp, _ := stringField(entry, "SensorType", "OriginOfCondition")

	return Normalize(Record{
		Timestamp: ts,
		Host:      host,
		Vendor:    vendor,
		Service:   comp,
		Severity:  sev,
		Message:   msg,
	}, "log")
}

// ParseSEL parses ipmitool "sel elist" output. Each line is a
// pipe-delimited record of at least five fields:
//
//	1 | 09/13/2024 | 12:34:56 | Critical | PSU1 input lost
//
// Lines with fewer fields are skipped. A line whose date or time does
// not parse keeps its severity and message but gets collection time.
func ParseSEL(text, host string, vendor models.Vendor) []models.Event {
	var events []models.Event
	for _, line := range strings.Split(text, "\n") {
		parts := splitFields(line)
		if len(parts) < 5 {
			continue
		}
		var ts time.Time
		if parsed, err := time.Parse(selTimeLayout, parts[1]+" "+parts[2]); err == nil {
			ts = parsed.UTC()
		}
		events = append(events, Normalize(Record{
			Timestamp: ts,
			Host:      host,
			Vendor:    vendor,
			Severity:  parts[3],
			Message:   parts[4],
		}, "ipmi"))
	}
	return events
}

// ParseSensors parses ipmitool "sensor" output into INFO events, one
// per reading. Each line needs at least a name and a reading column:
//
//	Fan1 | 3200 RPM | ...
func ParseSensors(text, host string, vendor models.Vendor) []models.Event {
	var events []models.Event
	for _, line := range strings.Split(text, "\n") {
		parts := splitFields(line)
		if len(parts) < 2 {
			continue
		}
		events = append(events, Normalize(Record{
			Host:    host,
			Vendor:  vendor,
			Message: fmt.Sprintf("%s: %s", parts[0], parts[1]),
		}, "sensor"))
	}
	return events
}

// splitFields splits a pipe-delimited line and trims each field.
func splitFields(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// stringField returns the first of the given keys that holds a
// non-empty string value. Non-string values are rendered rather than
// dropped; BMC firmware is not consistent about types.
func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case map[string]any, []any:
			// Structured values (e.g. OriginOfCondition is often an
			// object reference) are rendered as JSON.
			if b, err := json.Marshal(s); err == nil {
				return string(b), true
			}
		default:
			return fmt.Sprint(v), true
		}
	}
	return "", false
}

// parseRedfishTime parses an ISO-8601 timestamp. A trailing "Z" is the
// UTC offset "+00:00"; entries without any zone are taken as UTC.
func parseRedfishTime(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// renderEntry is the last-resort message for entries with no message
// field at all: the entry itself, as JSON.
func renderEntry(entry map[string]any) string {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprint(entry)
	}
	return string(b)
}
