// This file is part of GopherZX.
//
// GopherZX is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GopherZX is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GopherZX.  If not, see <https://www.gnu.org/licenses/>.

// Package clock implements the shared T-state time base for the emulation.
// Everything that happens in the machine happens at a time expressed in
// T-states: the CPU advances the clock as it executes, and the tape deck
// and disk controller read it to decide when their next event falls due.
//
// Time is kept in two parts. T is relative to the start of the current
// frame and is what the video and interrupt logic work with. TTotal counts
// whole frames in T-states and only ever moves forward. The absolute time
// of the present moment is the sum of the two, available through Now().
// Absolute timestamps held by other components (the next tape edge, say)
// remain valid across a frame boundary because the boundary adjustment
// moves T-states from T to TTotal without changing the sum.
package clock

// FrameWrapper implementations are notified when the clock crosses a frame
// boundary. Any frame-relative timestamps held by the implementation must
// be rebased by the frame length.
type FrameWrapper interface {
	FrameWrap(frameLen int)
}

// Clock is the shared T-state time base.
type Clock struct {
	// T is the frame-relative counter. it may briefly exceed FrameLen at
	// the end of a frame; CrossFrame() folds the excess into the next
	// frame
	T int

	// TTotal is advanced by FrameLen at each frame boundary. monotonic.
	// reset only on hard reset
	TTotal uint64

	// number of frames since hard reset
	Frame int

	// frame geometry
	FrameLen int
	IntPos   int
	IntLen   int

	// TPI is the interrupt overshoot tolerance. equals FrameLen unless
	// adjusted
	TPI int

	wrappers []FrameWrapper
}

// NewClock is the preferred method of initialisation for the Clock type.
func NewClock(frameLen int, intPos int, intLen int) *Clock {
	return &Clock{
		FrameLen: frameLen,
		IntPos:   intPos,
		IntLen:   intLen,
		TPI:      frameLen,
	}
}

// Reset the clock to power-on state. Frame geometry is unaffected.
func (clk *Clock) Reset() {
	clk.T = 0
	clk.TTotal = 0
	clk.Frame = 0
}

// Attach a FrameWrapper to be notified at every frame boundary.
func (clk *Clock) Attach(w FrameWrapper) {
	clk.wrappers = append(clk.wrappers, w)
}

// Advance the frame-relative counter by n T-states.
func (clk *Clock) Advance(n int) {
	clk.T += n
}

// Now returns the absolute time in T-states.
func (clk *Clock) Now() uint64 {
	return clk.TTotal + uint64(clk.T)
}

// CrossFrame folds a completed frame out of the frame-relative counter.
// Returns true if a frame boundary was crossed. The adjustment keeps
// Now() constant and leaves TTotal a whole multiple of FrameLen.
func (clk *Clock) CrossFrame() bool {
	if clk.T < clk.FrameLen {
		return false
	}

	clk.T -= clk.FrameLen
	clk.TTotal += uint64(clk.FrameLen)
	clk.Frame++

	for _, w := range clk.wrappers {
		w.FrameWrap(clk.FrameLen)
	}

	return true
}

// IntActive returns true if the frame interrupt signal is asserted at the
// current frame-relative time.
func (clk *Clock) IntActive() bool {
	return clk.T >= clk.IntPos && clk.T < clk.IntPos+clk.IntLen
}
