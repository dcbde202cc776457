// Package replay captures per-step controller output and folds it into a
// digest so runs can be compared for determinism.
package replay

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locomotion/motion"
	"github.com/zeebo/xxh3"
)

// Frame is one captured step.
type Frame struct {
	Step     uint64
	State    motion.State
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

func (f Frame) String() string {
	return fmt.Sprintf("#%d %s pos=(%.3f, %.3f, %.3f) vel=(%.3f, %.3f, %.3f)",
		f.Step, f.State,
		f.Position.X(), f.Position.Y(), f.Position.Z(),
		f.Velocity.X(), f.Velocity.Y(), f.Velocity.Z())
}

// Recorder follows one controller. Call Capture after every world step.
type Recorder struct {
	ctrl        *motion.Controller
	frames      []Frame
	transitions []motion.Transition
	hasher      *xxh3.Hasher
	buf         []byte
	unsub       func()
	keepFrames  bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// DiscardFrames keeps only the digest and transitions.
func DiscardFrames() Option {
	return func(r *Recorder) {
		r.keepFrames = false
	}
}

func NewRecorder(ctrl *motion.Controller, opts ...Option) *Recorder {
	r := &Recorder{
		ctrl:       ctrl,
		hasher:     xxh3.New(),
		keepFrames: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.unsub = ctrl.OnStateChanged(r.onTransition)
	return r
}

func (r *Recorder) onTransition(tr motion.Transition) {
	r.transitions = append(r.transitions, tr)
	r.buf = r.buf[:0]
	r.buf = append(r.buf, 't', byte(tr.Previous), byte(tr.Current))
	r.buf = binary.LittleEndian.AppendUint64(r.buf, tr.Step)
	_, _ = r.hasher.Write(r.buf)
}

// Capture records the controller's current step.
func (r *Recorder) Capture() Frame {
	body := r.ctrl.Body()
	f := Frame{
		Step:     r.ctrl.Steps(),
		State:    r.ctrl.State(),
		Position: body.Position(),
		Velocity: body.Velocity(),
	}
	if r.keepFrames {
		r.frames = append(r.frames, f)
	}
	r.buf = encodeFrame(r.buf[:0], f)
	_, _ = r.hasher.Write(r.buf)
	return f
}

func (r *Recorder) Frames() []Frame { return r.frames }
func (r *Recorder) Transitions() []motion.Transition { return r.transitions }

// Digest is the running hash over every transition and captured frame.
func (r *Recorder) Digest() uint64 {
	return r.hasher.Sum64()
}

// Close stops listening for transitions.
func (r *Recorder) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

// Digest hashes a frame sequence on its own, without transitions.
func Digest(frames []Frame) uint64 {
	var buf []byte
	for _, f := range frames {
		buf = encodeFrame(buf, f)
	}
	return xxh3.Hash(buf)
}

func encodeFrame(buf []byte, f Frame) []byte {
	buf = append(buf, 'f', byte(f.State))
	buf = binary.LittleEndian.AppendUint64(buf, f.Step)
	for _, v := range [...]mgl64.Vec3{f.Position, f.Velocity} {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c))
		}
	}
	return buf
}
