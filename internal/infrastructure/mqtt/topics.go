package mqtt

import "strings"

// Topic suffixes for power readings.
const (
	// TopicSuffixCurrent is the last topic level for instantaneous readings.
	TopicSuffixCurrent = "current"

	// TopicSuffixTotal is the last topic level for cumulative energy readings.
	TopicSuffixTotal = "total"
)

// Topics provides builders for power reading topics below a prefix.
// Using these helpers keeps publisher and subscriber topic names consistent.
//
//	topics := mqtt.Topics{}
//	topics.Current("resources/power") // "resources/power/current"
type Topics struct{}

// Current returns the topic for instantaneous power readings.
//
// Example: resources/power/current
func (Topics) Current(prefix string) string {
	return join(prefix, TopicSuffixCurrent)
}

// Total returns the topic for cumulative energy readings.
//
// Example: resources/power/total
func (Topics) Total(prefix string) string {
	return join(prefix, TopicSuffixTotal)
}

func join(prefix, level string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return level
	}
	return prefix + "/" + level
}
