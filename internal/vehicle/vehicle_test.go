package vehicle

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/epicycle/internal/dynamo"
	"github.com/san-kum/epicycle/internal/linalg"
)

func sample(t *testing.T) *Vehicle {
	t.Helper()
	v, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	v.Config.Clock.Step = 0.5
	v.Config.System.Symbol = NewSymbol("SYS")
	v.Config.Objects[0] = ConfigObject{
		Symbol:   NewSymbol("BUS"),
		Box:      linalg.Diag{1, 2, 3},
		Position: linalg.Vec{0.1, 0.2, 0.3},
		Attitude: linalg.One(),
	}
	v.State.Clock = Clock{N: 7, T: 3.5}
	v.State.System.R = linalg.Vec{7e6, 0, 0}
	v.State.Objects[1].Mass = 42
	v.Change.Time = 4
	v.Change.Objects[0] = StateMerge{Mass: 1, Momentum: linalg.Vec{1, 0, 0}}
	v.Change.Objects[1] = FieldMerge{Charge: -2, MagneticDipole: linalg.Vec{0, 0, 5}}
	v.Output.Inertia = linalg.Identity()
	v.EM.System.B = linalg.Vec{1e-5, 0, 0}
	return v
}

func TestImageSize(t *testing.T) {
	if ImageSize != 5968 {
		t.Errorf("ImageSize = %d, want 5968", ImageSize)
	}
}

func TestImageRoundTrip(t *testing.T) {
	v := sample(t)
	data, err := v.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != ImageSize {
		t.Fatalf("len = %d, want %d", len(data), ImageSize)
	}

	var got Vehicle
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if got.Size != 2 || got.Config.System.Symbol.String() != "SYS" {
		t.Errorf("header = %d %q", got.Size, got.Config.System.Symbol)
	}
	if got.State != v.State || got.Output != v.Output || got.EM != v.EM {
		t.Error("state, output or EM changed across the round trip")
	}
	if _, ok := got.Change.Objects[0].(StateMerge); !ok {
		t.Errorf("slot 0 = %T, want StateMerge", got.Change.Objects[0])
	}
	if fm, ok := got.Change.Objects[1].(FieldMerge); !ok || fm.Charge != -2 {
		t.Errorf("slot 1 = %#v", got.Change.Objects[1])
	}
	if !IsNoOp(got.Change.Objects[2]) {
		t.Errorf("slot 2 = %T, want NoOp", got.Change.Objects[2])
	}
}

func TestImageLayout(t *testing.T) {
	data, err := sample(t).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	le := binary.LittleEndian
	if got := le.Uint64(data[0:]); got != 2 {
		t.Errorf("size = %d", got)
	}
	if got := math.Float64frombits(le.Uint64(data[8:])); got != 0.5 {
		t.Errorf("clock step = %v", got)
	}
	if string(data[16:19]) != "SYS" {
		t.Errorf("system symbol = %q", data[16:20])
	}
	// First object: symbol at 24, box after 4 bytes of padding.
	if string(data[24:27]) != "BUS" {
		t.Errorf("object symbol = %q", data[24:28])
	}
	if got := math.Float64frombits(le.Uint64(data[32:])); got != 1 {
		t.Errorf("box[0] = %v", got)
	}
	// State starts after the 8-byte size and the config block.
	st := 8 + 16 + NMax*88
	if got := le.Uint64(data[st:]); got != 7 {
		t.Errorf("clock n = %d", got)
	}
}

func TestImageRejects(t *testing.T) {
	data, err := sample(t).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	var v Vehicle
	if err := v.UnmarshalBinary(data[:100]); !errors.Is(err, ErrImage) {
		t.Errorf("short buffer: %v", err)
	}

	big := append([]byte(nil), data...)
	binary.LittleEndian.PutUint64(big, NMax+1)
	if err := v.UnmarshalBinary(big); !errors.Is(err, dynamo.ErrCapacity) {
		t.Errorf("oversize: %v", err)
	}

	bad := append([]byte(nil), data...)
	ch := 8 + 16 + NMax*88 + 16 + 104 + NMax*80 + 8
	binary.LittleEndian.PutUint32(bad[ch:], 9)
	if err := v.UnmarshalBinary(bad); !errors.Is(err, ErrImage) {
		t.Errorf("unknown tag: %v", err)
	}
	if v.Size != 0 {
		t.Errorf("failed decode wrote size %d", v.Size)
	}
}

func TestNewCapacity(t *testing.T) {
	if _, err := New(NMax + 1); !errors.Is(err, dynamo.ErrCapacity) {
		t.Errorf("New(NMax+1) = %v", err)
	}
}

func TestSystemStep(t *testing.T) {
	s := System{Q: linalg.One(), V: linalg.Vec{1, 0, 0}}
	k := System{R: s.V, Q: Rate(linalg.Vec{0, 0, math.Pi / 2}), V: linalg.Vec{0, 2, 0}}

	got := s.Step(1, k)
	if got.R != (linalg.Vec{1, 0, 0}) || got.V != (linalg.Vec{1, 2, 0}) {
		t.Errorf("Step = %+v", got)
	}
	// Rotating at π/2 for 1 s gives a quarter turn about z.
	want := linalg.Exp(linalg.Vec{0, 0, math.Pi / 4})
	for i := range want {
		if math.Abs(got.Q[i]-want[i]) > 1e-12 {
			t.Errorf("Q = %v, want %v", got.Q, want)
			break
		}
	}

	led := k.Lead(s, 2)
	if led.R != (linalg.Vec{1, 2, 0}) {
		t.Errorf("Lead R = %v", led.R)
	}
}

func TestSymbol(t *testing.T) {
	if got := NewSymbol("TOOLONG").String(); got != "TOOL" {
		t.Errorf("NewSymbol = %q", got)
	}
}
