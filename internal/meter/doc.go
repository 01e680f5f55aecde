// Package meter reads an SML smart meter and publishes its power readings.
//
// Each transport frame from the meter's optical head is decoded (see
// package sml) and current power and total energy are published, QoS 0 and
// not retained, as text the bridge can parse:
//
//	resources/power/current  "163.5 W"
//	resources/power/total    "12374148.4 Wh"
//
// Corrupt frames are skipped. A failed publish stops the reader.
package meter
