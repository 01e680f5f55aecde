package power

import (
	"regexp"
	"strconv"
	"strings"
)

// Measurement is the measurement name every point is written under.
const Measurement = "power"

// Field names a point's single value.
type Field string

// Fields a point can carry.
const (
	// FieldCurrent holds the instantaneous reading, written unconverted.
	FieldCurrent Field = "current"

	// FieldTotal holds cumulative energy in kilowatt units (input / 1000,
	// rounded to three decimals).
	FieldTotal Field = "total"
)

// currentMarker selects FieldCurrent when it appears anywhere in the topic.
const currentMarker = "current"

// totalDivisor converts the raw total reading to kilo units.
const totalDivisor = 1000.0

// numberPattern matches the first unsigned integer or decimal in a payload.
// There is no sign and no exponent: "-3" yields 3, "1e5" yields 1.
var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// Point is one single-field record for the time-series database.
//
// A Point carries exactly one field and no timestamp; the database assigns
// the ingestion time.
type Point struct {
	Measurement string
	Field       Field
	Value       float64
}

// Fields returns the point's field set as the map shape database clients take.
func (p Point) Fields() map[string]any {
	return map[string]any{string(p.Field): p.Value}
}

// ParseValue extracts the first number matching `\d+(\.\d+)?` from payload.
//
// It reports false when the payload holds no such number, or when the
// digits do not fit in a float64.
func ParseValue(payload []byte) (float64, bool) {
	match := numberPattern.Find(payload)
	if match == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(string(match), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Classify builds the point for a value received on topic.
//
// Topics containing "current" produce a FieldCurrent point with the raw
// value. All other topics produce a FieldTotal point with value / 1000
// rounded to three decimal places.
func Classify(topic string, value float64) Point {
	if strings.Contains(topic, currentMarker) {
		return Point{Measurement: Measurement, Field: FieldCurrent, Value: value}
	}
	return Point{Measurement: Measurement, Field: FieldTotal, Value: round3(value / totalDivisor)}
}

// FromMessage converts a bus message into at most one point.
// It reports false when the payload carries no number.
func FromMessage(topic string, payload []byte) (Point, bool) {
	value, ok := ParseValue(payload)
	if !ok {
		return Point{}, false
	}
	return Classify(topic, value), true
}

// round3 rounds to three decimals through the correctly rounded decimal
// form, so 1.2345 (stored as 1.23449999...) becomes 1.234.
func round3(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	if err != nil {
		return v
	}
	return r
}
