package maze

import (
	"fmt"
	"strings"
)

// Orientation selects the axis used first when joining two waypoints, and the
// axis of a dividing wall during bisection.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText encodes the orientation by name so stored genomes stay readable.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an orientation name.
func (o *Orientation) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("unknown orientation '%s'", text)
	}
	return nil
}

// Direction is a compass direction on the grid. North is +y.
type Direction int

const (
	None Direction = iota
	North
	East
	South
	West
)

// Directions lists the four cardinal directions in clockwise order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "none"
	}
}

// Delta returns the unit step taken when moving in direction d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	}
	return None
}

// OpeningLocation is the side of a subdivision a wall gene prefers to open.
type OpeningLocation int

const (
	OpenNorth OpeningLocation = iota
	OpenEast
	OpenSouth
	OpenWest
)

// Direction converts the opening side into the matching grid direction.
func (l OpeningLocation) Direction() Direction {
	switch l {
	case OpenNorth:
		return North
	case OpenEast:
		return East
	case OpenSouth:
		return South
	default:
		return West
	}
}

func (l OpeningLocation) String() string {
	return l.Direction().String()
}

func (l OpeningLocation) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *OpeningLocation) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "north":
		*l = OpenNorth
	case "east":
		*l = OpenEast
	case "south":
		*l = OpenSouth
	case "west":
		*l = OpenWest
	default:
		return fmt.Errorf("unknown opening location '%s'", text)
	}
	return nil
}

// Point is an integer grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the neighbouring point in direction d.
func (p Point) Step(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
