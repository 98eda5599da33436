package protocol

// Direction is a client facing mask.
type Direction uint8

const (
	DirDown  Direction = 1
	DirLeft  Direction = 2
	DirUp    Direction = 4
	DirRight Direction = 8
)

// serverDirections maps the server's 0..8 facing values (south first,
// clockwise) to client masks.
var serverDirections = [...]Direction{
	DirDown,
	DirDown | DirLeft,
	DirLeft,
	DirUp | DirLeft,
	DirUp,
	DirUp | DirRight,
	DirRight,
	DirDown | DirRight,
	DirRight,
}

// FromServerDirection converts a server facing value. Unknown values map
// to 0 and ok is false.
func FromServerDirection(d uint8) (Direction, bool) {
	if int(d) >= len(serverDirections) {
		return 0, false
	}
	return serverDirections[d], true
}

// Position is a tile position with a facing.
type Position struct {
	X   uint16
	Y   uint16
	Dir uint8
}

// Coordinates is a decoded tile position whose facing has been converted
// to a client mask.
type Coordinates struct {
	X   uint16
	Y   uint16
	Dir Direction
}

// Move is a source/destination pair as sent in walk responses.
type Move struct {
	SrcX uint16
	SrcY uint16
	DstX uint16
	DstY uint16
}

// DecodePosition unpacks x (10 bits), y (10 bits) and direction (4 bits)
// from 3 bytes.
func DecodePosition(b [3]byte) Position {
	return Position{
		X:   uint16(b[0])<<2 | uint16(b[1])>>6,
		Y:   uint16(b[1]&0x3f)<<4 | uint16(b[2])>>4,
		Dir: b[2] & 0x0f,
	}
}

// EncodePosition is the inverse of DecodePosition.
func EncodePosition(p Position) [3]byte {
	return [3]byte{
		byte(p.X >> 2),
		byte(p.X<<6) | byte((p.Y>>4)&0x3f),
		byte(p.Y<<4) | p.Dir&0x0f,
	}
}

// DecodeMove unpacks two 10-bit coordinate pairs from 5 bytes.
func DecodeMove(b [5]byte) Move {
	return Move{
		SrcX: uint16(b[0])<<2 | uint16(b[1])>>6,
		SrcY: uint16(b[1]&0x3f)<<4 | uint16(b[2])>>4,
		DstX: uint16(b[2]&0x0f)<<6 | uint16(b[3])>>2,
		DstY: uint16(b[3]&0x03)<<8 | uint16(b[4]),
	}
}

// EncodeMove is the inverse of DecodeMove.
func EncodeMove(m Move) [5]byte {
	return [5]byte{
		byte(m.SrcX >> 2),
		byte(m.SrcX<<6) | byte((m.SrcY>>4)&0x3f),
		byte(m.SrcY<<4) | byte((m.DstX>>6)&0x0f),
		byte(m.DstX<<2) | byte((m.DstY>>8)&0x03),
		byte(m.DstY),
	}
}
