package sml

import (
	"fmt"
	"math"
)

// Message body tags.
const (
	TagOpenResponse    uint32 = 0x00000101
	TagCloseResponse   uint32 = 0x00000201
	TagGetListResponse uint32 = 0x00000701
)

// Field positions within the SML structures.
const (
	messageFields    = 5 // transactionId, groupNo, abortOnError, body, crc16
	getListFields    = 5 // up to and including valList
	getListValList   = 4
	listEntryFields  = 6 // up to and including value
	listEntryName    = 0
	listEntryUnit    = 3
	listEntryScaler  = 4
	listEntryValue   = 5
	messageBodyItems = 2
)

// Message is one SML message of a file.
type Message struct {
	TransactionID []byte
	GroupNo       uint64
	AbortOnError  uint64
	Tag           uint32
	Body          Node
}

// Entry is one element of a GetList.Res value list.
type Entry struct {
	Name   OBIS
	Unit   Unit
	Scaler int8
	Value  Node
}

// Float returns value × 10^scaler for integer values.
func (e Entry) Float() (float64, bool) {
	v, ok := e.Value.Float()
	if !ok {
		return 0, false
	}
	return v * math.Pow10(int(e.Scaler)), true
}

// ParseFile decodes every message in an SML file (a frame body).
// Zero bytes between messages are skipped.
func ParseFile(data []byte) ([]Message, error) {
	d := &decoder{buf: data}

	var msgs []Message
	for d.pos < len(d.buf) {
		if d.buf[d.pos] == byteEndOfMessage {
			d.pos++
			continue
		}

		start := d.pos
		n, err := d.node(0)
		if err != nil {
			return msgs, err
		}

		msg, err := messageFromNode(n)
		if err != nil {
			return msgs, fmt.Errorf("message at offset %d: %w", start, err)
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

func messageFromNode(n Node) (Message, error) {
	if n.Kind != KindList || len(n.List) < messageFields {
		return Message{}, fmt.Errorf("%w: message is not a list of at least %d elements", ErrUnexpectedType, messageFields)
	}

	body := n.List[3]
	if body.Kind != KindList || len(body.List) != messageBodyItems {
		return Message{}, fmt.Errorf("%w: message body is not a tag/value pair", ErrUnexpectedType)
	}
	if body.List[0].Kind != KindUint {
		return Message{}, fmt.Errorf("%w: message body tag is not unsigned", ErrUnexpectedType)
	}

	return Message{
		TransactionID: n.List[0].Bytes,
		GroupNo:       n.List[1].Uint,
		AbortOnError:  n.List[2].Uint,
		Tag:           uint32(body.List[0].Uint),
		Body:          body.List[1],
	}, nil
}

// Entries returns the value list of a GetList.Res message. Other messages
// have no entries. Entries that are not lists or carry no object name are
// skipped.
func (m Message) Entries() ([]Entry, error) {
	if m.Tag != TagGetListResponse {
		return nil, nil
	}
	if m.Body.Kind != KindList || len(m.Body.List) < getListFields {
		return nil, fmt.Errorf("%w: GetList.Res body has %d fields", ErrUnexpectedType, len(m.Body.List))
	}

	valList := m.Body.List[getListValList]
	if valList.Kind != KindList {
		return nil, fmt.Errorf("%w: GetList.Res valList is not a list", ErrUnexpectedType)
	}

	entries := make([]Entry, 0, len(valList.List))
	for _, item := range valList.List {
		if item.Kind != KindList || len(item.List) < listEntryFields {
			continue
		}
		name, ok := parseOBIS(item.List[listEntryName])
		if !ok {
			continue
		}

		e := Entry{Name: name, Value: item.List[listEntryValue]}
		if u := item.List[listEntryUnit]; u.Kind == KindUint {
			e.Unit = Unit(u.Uint)
		}
		if s := item.List[listEntryScaler]; s.Kind == KindInt {
			e.Scaler = int8(s.Int)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
