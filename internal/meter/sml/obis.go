package sml

import "fmt"

// OBIS is a six-byte object identifier A-B:C.D.E*F.
type OBIS [6]byte

// Object identifiers (C.D.E) the power reader looks for.
const (
	// OBISTotalEnergy is the positive active energy register.
	OBISTotalEnergy = "1.8.0"

	// OBISCurrentPower is the instantaneous active power.
	OBISCurrentPower = "16.7.0"
)

// String formats the identifier as "A-B:C.D.E*F", e.g. "1-0:1.8.0*255".
func (o OBIS) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d*%d", o[0], o[1], o[2], o[3], o[4], o[5])
}

// Short formats the value group C.D.E, e.g. "16.7.0".
func (o OBIS) Short() string {
	return fmt.Sprintf("%d.%d.%d", o[2], o[3], o[4])
}

// parseOBIS reads an object name. Names shorter than five bytes cannot
// carry C.D.E and are rejected.
func parseOBIS(n Node) (OBIS, bool) {
	var o OBIS
	if n.Kind != KindOctetString || len(n.Bytes) < 5 || len(n.Bytes) > len(o) {
		return o, false
	}
	copy(o[:], n.Bytes)
	return o, true
}
