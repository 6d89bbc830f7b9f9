package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
)

// =============================================================================
// Document - Topology Serialization Format
// =============================================================================

// Document is the canonical serialization format for topologies.
// Used for API payloads, file import/export, and storage backends.
//
// The format is human-readable and designed for round-trip fidelity:
// import → layout → export → re-import produces identical structure.
type Document struct {
	Name        string           `json:"name,omitempty" bson:"name,omitempty"`
	Devices     []DeviceRecord   `json:"devices" bson:"devices"`
	Connections []Connection     `json:"connections" bson:"connections"`
	Viewport    *Viewport        `json:"viewport,omitempty" bson:"viewport,omitempty"`
	Positions   map[string]Point `json:"positions,omitempty" bson:"positions,omitempty"`
}

// DeviceRecord is the wire form of a Device.
type DeviceRecord struct {
	ID   string  `json:"id" bson:"id"`
	Name string  `json:"name,omitempty" bson:"name,omitempty"`
	Type string  `json:"type,omitempty" bson:"type,omitempty"`
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
	W    float64 `json:"w,omitempty" bson:"w,omitempty"`
	H    float64 `json:"h,omitempty" bson:"h,omitempty"`
}

// FromTopology converts a Topology to its serialization format.
// Devices are sorted by ID for deterministic output.
func FromTopology(t *Topology) Document {
	devices := t.Devices()
	slices.SortFunc(devices, func(a, b *Device) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	doc := Document{
		Devices:     make([]DeviceRecord, len(devices)),
		Connections: t.Connections(),
	}
	for i, d := range devices {
		doc.Devices[i] = DeviceRecord{
			ID:   d.ID,
			Name: d.Name,
			Type: d.Type.String(),
			X:    d.Pos.X,
			Y:    d.Pos.Y,
			W:    d.Size.W,
			H:    d.Size.H,
		}
	}
	return doc
}

// ToTopology converts a Document to a Topology.
// Devices without IDs are assigned fresh UUIDs. Device types that fail to
// parse map to DeviceUnknown rather than erroring, since documents may be
// produced by tools with a wider type vocabulary.
//
// Connection entries are deduplicated through AddConnection, so a document
// carrying both (A,B) and (B,A) loads as a single edge.
func ToTopology(doc Document) (*Topology, error) {
	t := New()
	for _, rec := range doc.Devices {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		typ, _ := ParseDeviceType(rec.Type)
		d := Device{
			ID:   id,
			Name: rec.Name,
			Type: typ,
			Pos:  Point{X: rec.X, Y: rec.Y},
			Size: Size{W: rec.W, H: rec.H},
		}
		if p, ok := doc.Positions[id]; ok {
			d.Pos = p
		}
		if err := t.AddDevice(d); err != nil {
			return nil, fmt.Errorf("add device %s: %w", id, err)
		}
	}
	for _, c := range doc.Connections {
		err := t.AddConnection(c.A, c.B)
		if errors.Is(err, ErrDuplicateConnection) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("add connection %s-%s: %w", c.A, c.B, err)
		}
	}
	return t, nil
}

// =============================================================================
// Topology Serialization API
// =============================================================================

// Marshal converts a Topology to pretty-printed JSON bytes.
func Marshal(t *Topology) ([]byte, error) {
	return json.MarshalIndent(FromTopology(t), "", "  ")
}

// Unmarshal decodes JSON bytes into a Topology.
func Unmarshal(data []byte) (*Topology, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	return ToTopology(doc)
}

// Write writes a Topology as JSON to an io.Writer.
func Write(t *Topology, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromTopology(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON topology from an io.Reader.
func Read(r io.Reader) (*Topology, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToTopology(doc)
}

// WriteFile writes a Topology to a JSON file with 0644 permissions.
func WriteFile(t *Topology, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(t, f)
}

// ReadFile reads a JSON file and returns the decoded Topology.
func ReadFile(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
