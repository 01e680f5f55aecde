// Package power turns raw power-meter bus messages into database points.
//
// A message is a topic and a free-text payload such as "163.5 W" or
// "12374148.4 Wh". The first unsigned number in the payload is the reading;
// the topic decides what it means:
//
//	resources/power/dev1/current  "12.5 A"  -> power current=12.5
//	resources/power/dev1/total    "4500 W"  -> power total=4.5
//	resources/power/dev1/total    "n/a"     -> (no point)
//
// Messages without a number are not errors. They produce no point.
package power
