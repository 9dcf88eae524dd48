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

// Package performance measures how fast the emulation runs on the host:
// a fixed number of frames against the wall clock, optionally under the
// Go profiler.
package performance

import (
	"fmt"
	"io"
	"time"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/hardware"
	"github.com/jetsetilly/gopherzx/statsview"
)

// the emulated machine runs at fifty frames a second.
const emulatedFPS = 50.0

// Check runs the emulation for numFrames frames as fast as the host
// allows and reports the ratio to real hardware speed.
func Check(output io.Writer, prof Profile, spec *hardware.Spectrum, launchStats bool, numFrames int) error {
	if launchStats {
		if !statsview.Available() {
			return curated.Errorf("performance: statsview not available in this build")
		}
		statsview.Launch(output)
	}

	runner := func() error {
		start := time.Now()
		spec.RunForFrames(numFrames)
		elapsed := time.Since(start).Seconds()

		if elapsed > 0 {
			fps := float64(numFrames) / elapsed
			fmt.Fprintf(output, "%d frames in %.02fs (%.02f fps, %.02fx real speed)\n",
				numFrames, elapsed, fps, fps/emulatedFPS)
		}

		return nil
	}

	return RunProfiler(prof, "performance", runner)
}
