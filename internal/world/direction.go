package world

// Direction is one of the eight compass neighbors of a cell.
// Values run clockwise from north and double as mask bit positions.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// AllDirections lists the eight directions in bit order.
var AllDirections = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var directionOffsets = [8][2]int{
	North:     {-1, 0},
	NorthEast: {-1, 1},
	East:      {0, 1},
	SouthEast: {1, 1},
	South:     {1, 0},
	SouthWest: {1, -1},
	West:      {0, -1},
	NorthWest: {-1, -1},
}

var directionNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Offset returns the (row, col) delta to the neighbor in this direction.
// Rows grow southwards, columns eastwards.
func (d Direction) Offset() (dRow, dCol int) {
	o := directionOffsets[d&7]
	return o[0], o[1]
}

// Bit returns the mask bit for this direction
func (d Direction) Bit() Mask {
	return Mask(1) << (d & 7)
}

// Mirror returns the direction reflected across the north-south axis.
func (d Direction) Mirror() Direction {
	switch d {
	case NorthEast:
		return NorthWest
	case NorthWest:
		return NorthEast
	case East:
		return West
	case West:
		return East
	case SouthEast:
		return SouthWest
	case SouthWest:
		return SouthEast
	default:
		return d
	}
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d + 4) & 7
}

// IsDiagonal reports whether d is one of the four corner directions.
func (d Direction) IsDiagonal() bool {
	return d&1 == 1
}

func (d Direction) String() string {
	return directionNames[d&7]
}
