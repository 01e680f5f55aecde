package sml

import "bytes"

// Test encoders producing the TLV forms meters send.

func octet(b ...byte) []byte {
	return append([]byte{byte(len(b) + 1)}, b...)
}

func u8(v uint8) []byte { return []byte{0x62, v} }

func u16(v uint16) []byte { return []byte{0x63, byte(v >> 8), byte(v)} }

func u32(v uint32) []byte {
	return []byte{0x65, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func i8(v int8) []byte { return []byte{0x52, byte(v)} }

func i64(v int64) []byte {
	out := []byte{0x59}
	for shift := 56; shift >= 0; shift -= 8 {
		out = append(out, byte(v>>shift))
	}
	return out
}

func list(items ...[]byte) []byte {
	out := []byte{0x70 | byte(len(items))}
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

var absent = []byte{0x01}

// entry encodes a GetList.Res list entry.
func entry(name []byte, unit, scaler, value []byte) []byte {
	return list(octet(name...), absent, absent, unit, scaler, value, absent)
}

// message encodes a complete SML message with a zero CRC.
func message(txID byte, tag []byte, body []byte) []byte {
	return list(octet(txID), u8(0), u8(0), list(tag, body), u16(0), []byte{0x00})
}

// getListResponse builds a GetList.Res message around entries.
func getListResponse(entries ...[]byte) []byte {
	serverID := []byte{0x06, 0x45, 0x4d, 0x48, 0x01, 0x04, 0xc5, 0x6d, 0xa0, 0xba}
	body := list(
		absent,
		octet(serverID...),
		octet(0x01, 0x00, 0x62, 0x0a, 0xff, 0xff),
		absent,
		list(entries...),
		absent,
		absent,
	)
	return message(2, u32(TagGetListResponse), body)
}

// sampleFile is an open response, a GetList.Res carrying a device id,
// total energy 12374148.4 Wh and current power 163.5 W, and a close response.
func sampleFile() []byte {
	var buf bytes.Buffer
	buf.Write(message(1, u32(TagOpenResponse), list(absent, absent, octet(0x01), octet(0x02), absent, absent)))
	buf.Write(getListResponse(
		entry([]byte{129, 129, 199, 130, 3, 255}, absent, absent, octet('E', 'M', 'H')),
		entry([]byte{1, 0, 1, 8, 0, 255}, u8(uint8(UnitWattHour)), i8(-1), i64(123741484)),
		entry([]byte{1, 0, 1, 8, 1, 255}, u8(uint8(UnitWattHour)), i8(-1), i64(999)),
		entry([]byte{1, 0, 16, 7, 0, 255}, u8(uint8(UnitWatt)), i8(-1), i64(1635)),
	))
	buf.Write(message(3, u32(TagCloseResponse), list(absent)))
	return buf.Bytes()
}

// frame wraps body in transport escape sequences, padding and checksum.
func frame(body []byte) []byte {
	var escaped []byte
	for i := 0; i < len(body); i += 4 {
		end := i + 4
		if end > len(body) {
			end = len(body)
		}
		chunk := body[i:end]
		escaped = append(escaped, chunk...)
		if bytes.Equal(chunk, escapeSeq) {
			escaped = append(escaped, escapeSeq...)
		}
	}

	fill := (4 - len(body)%4) % 4
	for i := 0; i < fill; i++ {
		escaped = append(escaped, 0x00)
	}

	out := append([]byte{}, escapeSeq...)
	out = append(out, startSeq...)
	out = append(out, escaped...)
	out = append(out, escapeSeq...)
	out = append(out, endMarker, byte(fill))

	crc := Checksum(out)
	return append(out, byte(crc>>8), byte(crc))
}
