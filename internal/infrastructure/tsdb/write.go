package tsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// maxErrorBody caps how much of a rejected write's response is kept.
const maxErrorBody = 512

// WritePoint writes one point with the given fields and no tags.
//
// The line carries no timestamp, so VictoriaMetrics stamps it on arrival.
// The call blocks until the server has answered.
//
// Example:
//
//	err := client.WritePoint(ctx, "power", map[string]any{"current": 163.5})
func (c *Client) WritePoint(ctx context.Context, measurement string, fields map[string]any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: point has no fields", ErrWriteFailed)
	}

	line := formatLineProtocol(measurement, fields)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.writeURL, strings.NewReader(line+"\n"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: HTTP %d: %s", ErrWriteFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// formatLineProtocol formats a point as an InfluxDB line protocol line
// without tags or timestamp.
//
// Format: measurement field1=val1,field2=val2
func formatLineProtocol(measurement string, fields map[string]any) string {
	var b strings.Builder

	// Measurement (escaped to prevent injection)
	b.WriteString(escapeMeasurement(measurement))

	// Fields (sorted for deterministic output)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte(' ')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeKey(k))
		b.WriteByte('=')
		writeFieldValue(&b, fields[k])
	}

	return b.String()
}

// writeFieldValue appends v in line protocol field syntax.
func writeFieldValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		b.WriteString(strconv.FormatFloat(float64(val), 'f', -1, 32))
	case int:
		b.WriteString(strconv.Itoa(val))
		b.WriteByte('i')
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
		b.WriteByte('i')
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		b.WriteString(strconv.Quote(val))
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

// escapeKey escapes special characters in field keys.
// Commas, equals signs, and spaces must be backslash-escaped.
// Newlines are stripped to prevent line protocol injection.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "=", "\\=")
	return s
}

// escapeMeasurement escapes special characters in measurement names.
// Newlines are stripped to prevent line protocol injection.
func escapeMeasurement(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	return s
}
