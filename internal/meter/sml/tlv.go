package sml

import "fmt"

// Kind is the type of a decoded SML element.
type Kind uint8

// Element kinds.
const (
	KindOctetString Kind = iota
	KindBool
	KindInt
	KindUint
	KindList
	// KindAbsent marks an optional element that was not sent (0x01).
	KindAbsent
	// KindEndOfMessage marks the endOfSmlMsg byte (0x00).
	KindEndOfMessage
)

// TL type nibbles.
const (
	typeOctetString = 0x0
	typeBool        = 0x4
	typeInt         = 0x5
	typeUint        = 0x6
	typeList        = 0x7

	tlMore     = 0x80
	tlTypeMask = 0x70
	tlLenMask  = 0x0f

	byteEndOfMessage = 0x00
	byteAbsent       = 0x01

	maxDepth = 16

	// maxTLBytes caps a type-length field at four nibbles of length,
	// enough for any element of a 64 KiB frame.
	maxTLBytes = 4
)

// Node is one decoded TLV element.
type Node struct {
	Kind  Kind
	Bytes []byte
	Bool  bool
	Int   int64
	Uint  uint64
	List  []Node
}

// IsNumeric reports whether the node holds a signed or unsigned integer.
func (n Node) IsNumeric() bool {
	return n.Kind == KindInt || n.Kind == KindUint
}

// Float returns an integer node's value as float64.
func (n Node) Float() (float64, bool) {
	switch n.Kind {
	case KindInt:
		return float64(n.Int), true
	case KindUint:
		return float64(n.Uint), true
	default:
		return 0, false
	}
}

// decoder walks an SML file's TLV encoding.
type decoder struct {
	buf []byte
	pos int
}

// node decodes the element at the current position.
func (d *decoder) node(depth int) (Node, error) {
	if depth > maxDepth {
		return Node{}, fmt.Errorf("%w: nesting deeper than %d at offset %d", ErrMalformed, maxDepth, d.pos)
	}
	if d.pos >= len(d.buf) {
		return Node{}, fmt.Errorf("%w: truncated at offset %d", ErrMalformed, d.pos)
	}

	switch d.buf[d.pos] {
	case byteEndOfMessage:
		d.pos++
		return Node{Kind: KindEndOfMessage}, nil
	case byteAbsent:
		d.pos++
		return Node{Kind: KindAbsent}, nil
	}

	start := d.pos
	typ, length, err := d.readTL()
	if err != nil {
		return Node{}, err
	}

	if typ == typeList {
		// Every child takes at least one byte.
		if length > len(d.buf)-d.pos {
			return Node{}, fmt.Errorf("%w: list of %d at offset %d overruns buffer", ErrMalformed, length, start)
		}
		list := make([]Node, 0, length)
		for i := 0; i < length; i++ {
			child, err := d.node(depth + 1)
			if err != nil {
				return Node{}, err
			}
			list = append(list, child)
		}
		return Node{Kind: KindList, List: list}, nil
	}

	// For scalars the length counts the TL bytes as well.
	n := length - (d.pos - start)
	if n < 0 || n > len(d.buf)-d.pos {
		return Node{}, fmt.Errorf("%w: element at offset %d overruns buffer", ErrMalformed, start)
	}
	payload := d.buf[d.pos : d.pos+n]
	d.pos += n

	switch typ {
	case typeOctetString:
		return Node{Kind: KindOctetString, Bytes: payload}, nil
	case typeBool:
		if n != 1 {
			return Node{}, fmt.Errorf("%w: boolean of %d bytes at offset %d", ErrMalformed, n, start)
		}
		return Node{Kind: KindBool, Bool: payload[0] != 0}, nil
	case typeInt:
		v, err := decodeInt(payload)
		if err != nil {
			return Node{}, fmt.Errorf("%w at offset %d", err, start)
		}
		return Node{Kind: KindInt, Int: v}, nil
	case typeUint:
		v, err := decodeUint(payload)
		if err != nil {
			return Node{}, fmt.Errorf("%w at offset %d", err, start)
		}
		return Node{Kind: KindUint, Uint: v}, nil
	default:
		return Node{}, fmt.Errorf("%w: unknown type %#x at offset %d", ErrMalformed, typ, start)
	}
}

// readTL reads a type-length field, following continuation bytes.
func (d *decoder) readTL() (typ byte, length int, err error) {
	b := d.buf[d.pos]
	d.pos++

	typ = (b & tlTypeMask) >> 4
	length = int(b & tlLenMask)

	for tlBytes := 1; b&tlMore != 0; tlBytes++ {
		if tlBytes >= maxTLBytes {
			return 0, 0, fmt.Errorf("%w: length field longer than %d bytes", ErrMalformed, maxTLBytes)
		}
		if d.pos >= len(d.buf) {
			return 0, 0, fmt.Errorf("%w: truncated length field", ErrMalformed)
		}
		b = d.buf[d.pos]
		d.pos++
		length = length<<4 | int(b&tlLenMask)
	}

	return typ, length, nil
}

func decodeInt(p []byte) (int64, error) {
	if len(p) == 0 || len(p) > 8 {
		return 0, fmt.Errorf("%w: integer of %d bytes", ErrMalformed, len(p))
	}
	v := int64(int8(p[0]))
	for _, b := range p[1:] {
		v = v<<8 | int64(b)
	}
	return v, nil
}

func decodeUint(p []byte) (uint64, error) {
	if len(p) == 0 || len(p) > 8 {
		return 0, fmt.Errorf("%w: unsigned of %d bytes", ErrMalformed, len(p))
	}
	var v uint64
	for _, b := range p {
		v = v<<8 | uint64(b)
	}
	return v, nil
}
