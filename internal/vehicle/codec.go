package vehicle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
)

// Event tags of the shared-memory layout.
const (
	tagNoOp uint32 = iota
	tagState
	tagInput
	tagField
)

// ErrImage reports a malformed shared image.
var ErrImage = errors.New("vehicle: malformed image")

// The wire types mirror the C layout of the shared image on a 64-bit
// little-endian host: size_t is 8 bytes, 4-byte symbols and the event tag are
// padded to 8.
type (
	wireConfigObject struct {
		Symbol   [4]byte
		_        [4]byte
		Box      [3]float64
		Position [3]float64
		Attitude [4]float64
	}
	wireConfig struct {
		Step    float64
		Symbol  [4]byte
		_       [4]byte
		Objects [NMax]wireConfigObject
	}
	wireEvent struct {
		Tag uint32
		_   [4]byte
		U   [7]float64
	}
	wireChange struct {
		Time    float64
		Objects [NMax]wireEvent
	}
	wireImage struct {
		Size   uint64
		Config wireConfig
		State  State
		Change wireChange
		Input  Input
		Output Output
		EM     EM
	}
)

// ImageSize is the byte length of a marshalled Vehicle.
var ImageSize = binary.Size(wireImage{})

func packEvent(e Event) (wireEvent, error) {
	var w wireEvent
	pack := func(tag uint32, s float64, a, b linalg.Vec) {
		w.Tag = tag
		w.U[0] = s
		copy(w.U[1:4], a[:])
		copy(w.U[4:7], b[:])
	}
	switch e := e.(type) {
	case nil, NoOp:
	case StateMerge:
		pack(tagState, e.Mass, e.Momentum, e.AngularMomentum)
	case InputMerge:
		pack(tagInput, e.MassFlow, e.Force, e.Torque)
	case FieldMerge:
		pack(tagField, e.Charge, e.ElectricDipole, e.MagneticDipole)
	default:
		return w, fmt.Errorf("%w: unknown event %T", ErrImage, e)
	}
	return w, nil
}

func unpackEvent(w wireEvent) (Event, error) {
	s := w.U[0]
	a := linalg.Vec{w.U[1], w.U[2], w.U[3]}
	b := linalg.Vec{w.U[4], w.U[5], w.U[6]}
	switch w.Tag {
	case tagNoOp:
		return NoOp{}, nil
	case tagState:
		return StateMerge{Mass: s, Momentum: a, AngularMomentum: b}, nil
	case tagInput:
		return InputMerge{MassFlow: s, Force: a, Torque: b}, nil
	case tagField:
		return FieldMerge{Charge: s, ElectricDipole: a, MagneticDipole: b}, nil
	}
	return nil, fmt.Errorf("%w: unknown event tag %d", ErrImage, w.Tag)
}

// MarshalBinary encodes v in the shared-memory layout.
func (v *Vehicle) MarshalBinary() ([]byte, error) {
	if err := dynamo.Capacity(v.Size); err != nil {
		return nil, err
	}
	img := wireImage{
		Size:   uint64(v.Size),
		State:  v.State,
		Input:  v.Input,
		Output: v.Output,
		EM:     v.EM,
	}
	img.Config.Step = v.Config.Clock.Step
	img.Config.Symbol = v.Config.System.Symbol
	for i, o := range v.Config.Objects {
		img.Config.Objects[i] = wireConfigObject{
			Symbol:   o.Symbol,
			Box:      o.Box,
			Position: o.Position,
			Attitude: o.Attitude,
		}
	}
	img.Change.Time = v.Change.Time
	for i, e := range v.Change.Objects {
		w, err := packEvent(e)
		if err != nil {
			return nil, err
		}
		img.Change.Objects[i] = w
	}

	buf := bytes.NewBuffer(make([]byte, 0, ImageSize))
	if err := binary.Write(buf, binary.LittleEndian, &img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the shared-memory layout into v. v is left
// untouched on error.
func (v *Vehicle) UnmarshalBinary(data []byte) error {
	if len(data) < ImageSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrImage, len(data), ImageSize)
	}
	var img wireImage
	if err := binary.Read(bytes.NewReader(data[:ImageSize]), binary.LittleEndian, &img); err != nil {
		return fmt.Errorf("%w: %v", ErrImage, err)
	}
	if img.Size > NMax {
		return fmt.Errorf("size %d: %w", img.Size, dynamo.ErrCapacity)
	}

	out := Vehicle{
		Size:   int(img.Size),
		State:  img.State,
		Input:  img.Input,
		Output: img.Output,
		EM:     img.EM,
	}
	out.Config.Clock.Step = img.Config.Step
	out.Config.System.Symbol = img.Config.Symbol
	for i, o := range img.Config.Objects {
		out.Config.Objects[i] = ConfigObject{
			Symbol:   o.Symbol,
			Box:      o.Box,
			Position: o.Position,
			Attitude: o.Attitude,
		}
	}
	out.Change.Time = img.Change.Time
	for i, w := range img.Change.Objects {
		e, err := unpackEvent(w)
		if err != nil {
			return err
		}
		out.Change.Objects[i] = e
	}
	*v = out
	return nil
}
