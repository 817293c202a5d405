// Package history implements the baked-history artifact: the per-step
// collider poses a run emits, with a little-endian binary file format.
package history

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Rice-Rocket/sokudo/internal/solver"
)

const (
	magic   = "SKH"
	version = 1

	headerSize = 3 + 1 + 4 + 4 + 8 // magic, version, collider count, step count, dt
	recordSize = 4 + 10*8          // id, translate, rotation quaternion, scale
)

// FrameCollider is one collider's pose in one frame.
type FrameCollider struct {
	ID        uint32
	Translate mgl64.Vec3
	Rotate    mgl64.Quat
	Scale     mgl64.Vec3
}

// Frame holds all collider poses for one step, in collider order.
type Frame []FrameCollider

// History is a baked run: one frame per step, every frame covering the same
// collider set.
type History struct {
	Dt            float64
	ColliderCount int

	frames []Frame
}

// New returns an empty history for a world of colliderCount colliders
// stepped at dt.
func New(dt float64, colliderCount int) *History {
	return &History{Dt: dt, ColliderCount: colliderCount}
}

// FrameOf converts a world snapshot into a history frame.
func FrameOf(state solver.WorldState) Frame {
	frame := make(Frame, len(state.Colliders))
	for i, c := range state.Colliders {
		frame[i] = FrameCollider{
			ID:        uint32(c.ID),
			Translate: c.Transform.Translate,
			Rotate:    c.Transform.Rotate,
			Scale:     c.Transform.Scale,
		}
	}
	return frame
}

// Append adds a frame. The frame must cover exactly the history's collider
// count.
func (h *History) Append(frame Frame) error {
	if len(frame) != h.ColliderCount {
		return fmt.Errorf("history: frame has %d colliders, want %d", len(frame), h.ColliderCount)
	}
	h.frames = append(h.frames, frame)
	return nil
}

// Len returns the number of baked frames.
func (h *History) Len() int {
	return len(h.frames)
}

// Frame returns the frame for the given step index.
func (h *History) Frame(i int) Frame {
	return h.frames[i]
}

// Encode serializes the history to its binary form.
func (h *History) Encode() []byte {
	buf := make([]byte, 0, headerSize+len(h.frames)*h.ColliderCount*recordSize)

	buf = append(buf, magic...)
	buf = append(buf, version)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.ColliderCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(h.frames)))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(h.Dt))

	for _, frame := range h.frames {
		for _, c := range frame {
			buf = binary.LittleEndian.AppendUint32(buf, c.ID)
			buf = appendF64(buf, c.Translate[0], c.Translate[1], c.Translate[2])
			buf = appendF64(buf, c.Rotate.X(), c.Rotate.Y(), c.Rotate.Z(), c.Rotate.W)
			buf = appendF64(buf, c.Scale[0], c.Scale[1], c.Scale[2])
		}
	}

	return buf
}

// WriteFile bakes the history to disk.
func (h *History) WriteFile(path string) error {
	if err := os.WriteFile(path, h.Encode(), 0644); err != nil {
		return fmt.Errorf("history: write %s: %w", path, err)
	}
	return nil
}

// Decode parses a binary history. Malformed or truncated data is an error,
// never a panic.
func Decode(data []byte) (*History, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("history: truncated header: %d bytes", len(data))
	}
	if string(data[:3]) != magic {
		return nil, fmt.Errorf("history: bad magic %q", data[:3])
	}
	if data[3] != version {
		return nil, fmt.Errorf("history: unsupported version %d", data[3])
	}

	colliderCount := int(binary.LittleEndian.Uint32(data[4:]))
	stepCount := int(binary.LittleEndian.Uint32(data[8:]))
	dt := math.Float64frombits(binary.LittleEndian.Uint64(data[12:]))

	want := uint64(headerSize) + uint64(stepCount)*uint64(colliderCount)*recordSize
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("history: %d colliders × %d steps needs %d bytes, have %d", colliderCount, stepCount, want, len(data))
	}

	h := New(dt, colliderCount)
	r := &reader{data: data, off: headerSize}
	for s := 0; s < stepCount; s++ {
		frame := make(Frame, colliderCount)
		for i := range frame {
			frame[i] = FrameCollider{
				ID:        r.readU32(),
				Translate: mgl64.Vec3{r.readF64(), r.readF64(), r.readF64()},
			}
			x, y, z, w := r.readF64(), r.readF64(), r.readF64(), r.readF64()
			frame[i].Rotate = mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}
			frame[i].Scale = mgl64.Vec3{r.readF64(), r.readF64(), r.readF64()}
		}
		h.frames = append(h.frames, frame)
	}

	return h, nil
}

// ReadFile loads a baked history from disk.
func ReadFile(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", path, err)
	}
	return Decode(data)
}

func appendF64(buf []byte, vals ...float64) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

// reader is a bounds-checked cursor over decoded bytes. Length has been
// validated up front, so the guards only protect against internal misuse.
type reader struct {
	data []byte
	off  int
}

func (r *reader) readU32() uint32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) readF64() float64 {
	if r.off+8 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v
}
