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

package clock_test

import (
	"testing"

	"github.com/jetsetilly/gopherzx/hardware/clock"
	"github.com/jetsetilly/gopherzx/test"
)

func TestCrossFrame(t *testing.T) {
	clk := clock.NewClock(71680, 0, 32)

	test.Equate(t, clk.CrossFrame(), false)

	// overshoot the frame by a little, as the last instruction of a
	// frame always does
	clk.Advance(71680 + 13)
	test.Equate(t, clk.CrossFrame(), true)

	test.Equate(t, clk.T, 13)
	test.Equate(t, clk.TTotal, uint64(71680))
	test.Equate(t, clk.Frame, 1)

	// TTotal stays a whole number of frames after every wrap
	test.Equate(t, clk.TTotal%uint64(clk.FrameLen), uint64(0))
}

func TestNowAcrossWrap(t *testing.T) {
	clk := clock.NewClock(71680, 0, 32)

	clk.Advance(71680 + 100)
	before := clk.Now()
	clk.CrossFrame()

	// the frame boundary moves T-states between the counters without
	// changing absolute time
	test.Equate(t, clk.Now(), before)
}

type wrapRecorder struct {
	rebase int
}

func (w *wrapRecorder) FrameWrap(frameLen int) {
	w.rebase += frameLen
}

func TestFrameWrapObserver(t *testing.T) {
	clk := clock.NewClock(1000, 0, 32)

	w := &wrapRecorder{}
	clk.Attach(w)

	clk.Advance(2500)
	clk.CrossFrame()
	test.Equate(t, w.rebase, 1000)

	// the overshoot of more than a whole frame is folded one frame at a
	// time
	clk.CrossFrame()
	test.Equate(t, w.rebase, 2000)
	test.Equate(t, clk.T, 500)
}

func TestInterruptWindow(t *testing.T) {
	clk := clock.NewClock(71680, 0, 32)

	test.Equate(t, clk.IntActive(), true)
	clk.Advance(31)
	test.Equate(t, clk.IntActive(), true)
	clk.Advance(1)
	test.Equate(t, clk.IntActive(), false)
}
