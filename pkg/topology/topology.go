// Package topology defines the device/connection data model shared by the
// layout engine, connection strategist, storage backends, and API.
//
// A Topology holds devices (nodes) and connections (undirected edges) with
// adjacency indexes for degree and neighbor lookups. Connections are
// undirected: (A,B) and (B,A) are the same connection, and the container
// enforces that invariant at the single point where edges are added. Every
// caller - the connection strategist, the HTTP API, file import - goes
// through AddConnection, so the duplicate check cannot be bypassed.
package topology

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidDeviceID is returned by [Topology.AddDevice] when the device
	// ID is empty. All devices must have non-empty identifiers.
	ErrInvalidDeviceID = errors.New("device ID must not be empty")

	// ErrDuplicateDeviceID is returned by [Topology.AddDevice] when a device
	// with the same ID already exists. Device IDs must be unique.
	ErrDuplicateDeviceID = errors.New("duplicate device ID")

	// ErrUnknownDevice is returned by [Topology.AddConnection] when either
	// endpoint does not exist in the topology.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrSelfConnection is returned by [Topology.AddConnection] for an edge
	// from a device to itself. Self-loops carry no layout information and
	// are rejected at the container boundary.
	ErrSelfConnection = errors.New("connection endpoints must differ")

	// ErrDuplicateConnection is returned by [Topology.AddConnection] when a
	// connection between the two devices already exists in either
	// orientation. Connections are undirected, so (A,B) and (B,A) are the
	// same edge.
	ErrDuplicateConnection = errors.New("connection already exists")
)

// Connection is an undirected link between two devices.
//
// Connections are stored in canonical orientation (A before B
// lexicographically) so that the pair is comparable regardless of the order
// endpoints were supplied in.
type Connection struct {
	A string `json:"a" bson:"a"`
	B string `json:"b" bson:"b"`
}

// NewConnection returns the canonical orientation of the pair (a, b).
func NewConnection(a, b string) Connection {
	if b < a {
		a, b = b, a
	}
	return Connection{A: a, B: b}
}

// Other returns the endpoint opposite to id, or "" if id is not an endpoint.
func (c Connection) Other(id string) string {
	switch id {
	case c.A:
		return c.B
	case c.B:
		return c.A
	default:
		return ""
	}
}

// Topology is the in-memory device/connection graph.
//
// The zero value is not usable - use New. Topology is not safe for
// concurrent use without external synchronization; layout and connection
// proposals run synchronously on the caller's goroutine.
type Topology struct {
	devices     map[string]*Device
	order       []string // device IDs in insertion order
	connections []Connection
	edgeSet     map[Connection]struct{}
	adjacency   map[string][]string // deviceID -> neighbor IDs
}

// New creates an empty topology.
func New() *Topology {
	return &Topology{
		devices:   make(map[string]*Device),
		edgeSet:   make(map[Connection]struct{}),
		adjacency: make(map[string][]string),
	}
}

// AddDevice adds a device to the topology.
// Returns ErrInvalidDeviceID for an empty ID or ErrDuplicateDeviceID if a
// device with the same ID already exists.
func (t *Topology) AddDevice(d Device) error {
	if d.ID == "" {
		return ErrInvalidDeviceID
	}
	if _, exists := t.devices[d.ID]; exists {
		return ErrDuplicateDeviceID
	}
	dev := &d
	t.devices[dev.ID] = dev
	t.order = append(t.order, dev.ID)
	return nil
}

// AddConnection adds an undirected connection between two existing devices.
// The pair is canonicalized first, so both AddConnection(a, b) and
// AddConnection(b, a) refer to the same edge; the second call returns
// ErrDuplicateConnection. This is the duplicate-prevention contract every
// edge producer relies on.
func (t *Topology) AddConnection(a, b string) error {
	if _, ok := t.devices[a]; !ok {
		return ErrUnknownDevice
	}
	if _, ok := t.devices[b]; !ok {
		return ErrUnknownDevice
	}
	if a == b {
		return ErrSelfConnection
	}
	conn := NewConnection(a, b)
	if _, exists := t.edgeSet[conn]; exists {
		return ErrDuplicateConnection
	}
	t.edgeSet[conn] = struct{}{}
	t.connections = append(t.connections, conn)
	t.adjacency[conn.A] = append(t.adjacency[conn.A], conn.B)
	t.adjacency[conn.B] = append(t.adjacency[conn.B], conn.A)
	return nil
}

// Clone returns a deep copy of the topology. Device structs are copied, so
// position updates on the clone are not visible through the original.
func (t *Topology) Clone() *Topology {
	c := New()
	c.order = slices.Clone(t.order)
	c.connections = slices.Clone(t.connections)
	for id, d := range t.devices {
		dev := *d
		c.devices[id] = &dev
	}
	for conn := range t.edgeSet {
		c.edgeSet[conn] = struct{}{}
	}
	for id, neighbors := range t.adjacency {
		c.adjacency[id] = slices.Clone(neighbors)
	}
	return c
}

// HasConnection reports whether a connection exists between the two devices
// in either orientation.
func (t *Topology) HasConnection(a, b string) bool {
	_, ok := t.edgeSet[NewConnection(a, b)]
	return ok
}

// RemoveConnection removes the connection between a and b if it exists.
// No error is returned if the connection does not exist.
func (t *Topology) RemoveConnection(a, b string) {
	conn := NewConnection(a, b)
	if _, ok := t.edgeSet[conn]; !ok {
		return
	}
	delete(t.edgeSet, conn)
	t.connections = slices.DeleteFunc(t.connections, func(c Connection) bool { return c == conn })
	t.adjacency[conn.A] = slices.DeleteFunc(t.adjacency[conn.A], func(s string) bool { return s == conn.B })
	t.adjacency[conn.B] = slices.DeleteFunc(t.adjacency[conn.B], func(s string) bool { return s == conn.A })
}

// RemoveDevice removes a device and all connections touching it.
// No error is returned if the device does not exist.
func (t *Topology) RemoveDevice(id string) {
	if _, ok := t.devices[id]; !ok {
		return
	}
	for _, n := range slices.Clone(t.adjacency[id]) {
		t.RemoveConnection(id, n)
	}
	delete(t.devices, id)
	delete(t.adjacency, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
}

// Device returns the device with the given ID and true, or nil and false.
// The returned pointer refers to the actual device, so position updates
// through SetPosition are visible to other callers.
func (t *Topology) Device(id string) (*Device, bool) {
	d, ok := t.devices[id]
	return d, ok
}

// Devices returns all devices in insertion order.
// The returned slice contains pointers to the actual device structs.
func (t *Topology) Devices() []*Device {
	devices := make([]*Device, 0, len(t.order))
	for _, id := range t.order {
		devices = append(devices, t.devices[id])
	}
	return devices
}

// DeviceIDs returns all device IDs in sorted order.
// Layout strategies iterate this slice so numeric results do not depend on
// map iteration order.
func (t *Topology) DeviceIDs() []string {
	ids := slices.Clone(t.order)
	slices.Sort(ids)
	return ids
}

// Connections returns a copy of all connections in insertion order.
func (t *Topology) Connections() []Connection { return slices.Clone(t.connections) }

// Neighbors returns the IDs of devices connected to id.
// Returns nil if the device has no connections or doesn't exist. The
// returned slice should not be modified.
func (t *Topology) Neighbors(id string) []string { return t.adjacency[id] }

// Degree returns the number of connections touching the device.
func (t *Topology) Degree(id string) int { return len(t.adjacency[id]) }

// DeviceCount returns the number of devices.
func (t *Topology) DeviceCount() int { return len(t.devices) }

// ConnectionCount returns the number of connections.
func (t *Topology) ConnectionCount() int { return len(t.connections) }

// SetPosition updates the position of a device.
// Returns ErrUnknownDevice if the device does not exist.
func (t *Topology) SetPosition(id string, p Point) error {
	d, ok := t.devices[id]
	if !ok {
		return ErrUnknownDevice
	}
	d.Pos = p
	return nil
}

// ApplyPositions updates device positions from a layout result.
// Positions for unknown device IDs are ignored; the layout engine never
// invents devices, so a mismatch means the topology changed between the
// layout request and the apply.
func (t *Topology) ApplyPositions(positions map[string]Point) {
	for id, p := range positions {
		if d, ok := t.devices[id]; ok {
			d.Pos = p
		}
	}
}
