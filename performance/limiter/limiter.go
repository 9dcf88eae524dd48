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

// Package limiter provides a rough and ready way of limiting events to a
// fixed rate. The emulation itself runs as fast as the host allows; a
// front end that wants real Spectrum speed waits on the limiter once per
// frame:
//
//	lim := limiter.NewFPSLimiter(50)
//	for {
//		lim.Wait()
//		spec.RunForFrames(1)
//	}
package limiter

import (
	"time"
)

// FpsLimiter will trigger at the requested number of frames per second.
type FpsLimiter struct {
	secondsPerFrame time.Duration
	last            time.Time
}

// NewFPSLimiter is the preferred method of initialisation for the
// FpsLimiter type.
func NewFPSLimiter(framesPerSecond int) *FpsLimiter {
	lim := &FpsLimiter{}
	lim.SetLimit(framesPerSecond)
	lim.last = time.Now()
	return lim
}

// SetLimit changes the rate at which the FpsLimiter waits.
func (lim *FpsLimiter) SetLimit(framesPerSecond int) {
	lim.secondsPerFrame = time.Second / time.Duration(framesPerSecond)
}

// Wait blocks until the next frame falls due. A host that has fallen
// behind is not made to wait at all.
func (lim *FpsLimiter) Wait() {
	due := lim.last.Add(lim.secondsPerFrame)
	now := time.Now()
	if now.Before(due) {
		time.Sleep(due.Sub(now))
		lim.last = due
		return
	}
	lim.last = now
}
