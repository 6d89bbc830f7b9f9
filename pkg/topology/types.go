package topology

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidViewport is returned by [Viewport.Validate] when the viewport
	// has non-positive width or height. Layout output cannot be normalized
	// into a degenerate rectangle, so this fails fast.
	ErrInvalidViewport = errors.New("viewport must have positive width and height")
)

// DeviceType is a closed enumeration of network equipment categories.
// Keeping the set closed (instead of free-form strings) lets layout and
// connection strategies branch on type without stringly-typed comparisons.
type DeviceType int

const (
	// DeviceUnknown is the zero value for devices with no declared type.
	DeviceUnknown DeviceType = iota
	// DeviceRouter marks layer-3 routing equipment. Routers are preferred
	// as roots by the hierarchical layout and as centers by the radial layout.
	DeviceRouter
	// DeviceSwitch marks layer-2 switching equipment.
	DeviceSwitch
	// DeviceFirewall marks filtering appliances.
	DeviceFirewall
	// DeviceServer marks servers and appliances that terminate traffic.
	DeviceServer
	// DeviceCloud marks external cloud or WAN endpoints.
	DeviceCloud
	// DeviceWorkstation marks end-user machines.
	DeviceWorkstation
)

// deviceTypeNames maps each DeviceType to its canonical wire name.
var deviceTypeNames = map[DeviceType]string{
	DeviceUnknown:     "unknown",
	DeviceRouter:      "router",
	DeviceSwitch:      "switch",
	DeviceFirewall:    "firewall",
	DeviceServer:      "server",
	DeviceCloud:       "cloud",
	DeviceWorkstation: "workstation",
}

// deviceTypesByName is the inverse of deviceTypeNames.
var deviceTypesByName = func() map[string]DeviceType {
	m := make(map[string]DeviceType, len(deviceTypeNames))
	for t, name := range deviceTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the canonical lowercase name of the device type.
func (t DeviceType) String() string {
	if name, ok := deviceTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseDeviceType converts a wire name ("router", "switch", ...) to a
// DeviceType. Unrecognized names map to DeviceUnknown and ok is false.
func ParseDeviceType(s string) (DeviceType, bool) {
	t, ok := deviceTypesByName[s]
	return t, ok
}

// PlacementPriority returns the grid-layout sort weight for the type.
// Infrastructure equipment sorts before endpoints so the top-left cells
// of a grid hold the devices an operator looks for first.
func (t DeviceType) PlacementPriority() int {
	switch t {
	case DeviceRouter:
		return 100
	case DeviceSwitch:
		return 90
	case DeviceFirewall:
		return 80
	case DeviceServer:
		return 70
	case DeviceCloud:
		return 60
	case DeviceWorkstation:
		return 50
	default:
		return 0
	}
}

// Point is a 2D position in canvas coordinates.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Add returns the componentwise sum of two points.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the componentwise difference of two points.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns the point multiplied by a scalar.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Norm returns the vector length of the point.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Device represents a piece of network equipment on the canvas.
//
// The zero value is not usable - ID must be set before adding to a Topology.
type Device struct {
	ID   string     // Unique identifier
	Name string     // Display name (defaults to ID)
	Type DeviceType // Equipment category
	Pos  Point      // Current canvas position
	Size Size       // Bounding box, used to keep normalized layouts inside the viewport
}

// DisplayName returns the name if set, otherwise the ID.
func (d *Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Size is the width and height of a device's bounding box.
type Size struct {
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Viewport is the rectangular region all laid-out positions must fit inside.
type Viewport struct {
	MinX float64 `json:"min_x" bson:"min_x"`
	MinY float64 `json:"min_y" bson:"min_y"`
	MaxX float64 `json:"max_x" bson:"max_x"`
	MaxY float64 `json:"max_y" bson:"max_y"`
}

// Width returns the horizontal extent of the viewport.
func (v Viewport) Width() float64 { return v.MaxX - v.MinX }

// Height returns the vertical extent of the viewport.
func (v Viewport) Height() float64 { return v.MaxY - v.MinY }

// Center returns the midpoint of the viewport.
func (v Viewport) Center() Point {
	return Point{X: (v.MinX + v.MaxX) / 2, Y: (v.MinY + v.MaxY) / 2}
}

// Contains reports whether the point lies inside the viewport (inclusive).
func (v Viewport) Contains(p Point) bool {
	return p.X >= v.MinX && p.X <= v.MaxX && p.Y >= v.MinY && p.Y <= v.MaxY
}

// Validate returns ErrInvalidViewport if the viewport is degenerate.
// Negative or zero dimensions are a precondition violation, not a case
// layout strategies are expected to absorb.
func (v Viewport) Validate() error {
	if v.Width() <= 0 || v.Height() <= 0 {
		return fmt.Errorf("%w: got %gx%g", ErrInvalidViewport, v.Width(), v.Height())
	}
	return nil
}
