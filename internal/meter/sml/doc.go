// Package sml decodes the Smart Message Language spoken by German
// electricity meters on their optical interface.
//
// Decoding happens in three steps:
//
//	FrameReader.Next   transport frame -> SML file bytes (CRC-16/X-25 checked)
//	ParseFile          file bytes      -> []Message (TLV decoding)
//	ExtractReadings    messages        -> current power and total energy
//
// Only GetList.Res messages are inspected. Values are scaled by their
// scaler (value × 10^scaler) and carry the symbol of their DLMS unit code.
package sml
