// Package protocol defines the wire messages that keep board colors
// consistent across viewers, and the strict JSON codec for them.
//
// The wire format is an externally tagged union:
//
//	{"Click":{"x":5,"y":5}}
//	{"ColorUpdate":{"entity":0,"r":0,"g":0,"b":0}}
//
// Field names and casing must match exactly. Anything else decodes to an
// error so the caller's drop-and-continue policy is an explicit code path,
// not an accidental fallthrough.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/gridsync/gridsync/internal/core/ecs"
)

var (
	ErrMalformed  = fmt.Errorf("protocol: malformed message")
	ErrUnknownTag = fmt.Errorf("protocol: unknown message tag")
)

// Message is the closed set of wire message kinds.
type Message interface {
	isMessage()
}

// Click reports a raw pointer click in board coordinates. It is
// informational; receivers that only track color state ignore it.
type Click struct {
	X uint
	Y uint
}

// ColorUpdate instructs the receiver to set the entity's color to exactly
// (R,G,B). Last writer wins; there is no version or timestamp comparison.
type ColorUpdate struct {
	Entity ecs.EntityID
	R      uint8
	G      uint8
	B      uint8
}

func (Click) isMessage()       {}
func (ColorUpdate) isMessage() {}

// Color returns the update's payload as a component value.
func (m ColorUpdate) Color() ecs.Color {
	return ecs.Color{R: m.R, G: m.G, B: m.B}
}

// NewColorUpdate builds the update announcing entity's new color.
func NewColorUpdate(entity ecs.EntityID, c ecs.Color) ColorUpdate {
	return ColorUpdate{Entity: entity, R: c.R, G: c.G, B: c.B}
}

type clickWire struct {
	X *uint `json:"x"`
	Y *uint `json:"y"`
}

type colorUpdateWire struct {
	Entity *uint32 `json:"entity"`
	R      *uint8  `json:"r"`
	G      *uint8  `json:"g"`
	B      *uint8  `json:"b"`
}

// Encode serializes a message into its tagged wire form.
func Encode(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case Click:
		x, y := msg.X, msg.Y
		return json.Marshal(map[string]clickWire{
			"Click": {X: &x, Y: &y},
		})
	case ColorUpdate:
		entity := uint32(msg.Entity)
		r, g, b := msg.R, msg.G, msg.B
		return json.Marshal(map[string]colorUpdateWire{
			"ColorUpdate": {Entity: &entity, R: &r, G: &g, B: &b},
		})
	default:
		return nil, fmt.Errorf("%w: unencodable type %T", ErrUnknownTag, m)
	}
}

// Decode parses a raw payload into exactly one message variant.
//
// The outcome is exhaustive: a well-formed Click or ColorUpdate, ErrUnknownTag
// for an unrecognized tag, or ErrMalformed for anything that is not a
// single-tag JSON object with completely and correctly typed fields.
func Decode(raw []byte) (Message, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one tag, got %d", ErrMalformed, len(tagged))
	}

	for tag, body := range tagged {
		switch tag {
		case "Click":
			var w clickWire
			if err := json.Unmarshal(body, &w); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if w.X == nil || w.Y == nil {
				return nil, fmt.Errorf("%w: Click missing fields", ErrMalformed)
			}
			return Click{X: *w.X, Y: *w.Y}, nil
		case "ColorUpdate":
			var w colorUpdateWire
			if err := json.Unmarshal(body, &w); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if w.Entity == nil || w.R == nil || w.G == nil || w.B == nil {
				return nil, fmt.Errorf("%w: ColorUpdate missing fields", ErrMalformed)
			}
			return ColorUpdate{
				Entity: ecs.EntityID(*w.Entity),
				R:      *w.R,
				G:      *w.G,
				B:      *w.B,
			}, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
		}
	}

	// len(tagged) == 1 guarantees the loop returned.
	return nil, ErrMalformed
}
