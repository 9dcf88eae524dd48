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

// Package wavwriter renders the tape signal edges observed during an
// emulation to a WAV file on disk. Note that the edge stream is buffered
// in memory in its entirety and written on program end. It is therefore
// probably only suitable for testing and diagnostic purposes.
package wavwriter

import (
	"os"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/logger"
	"github.com/youpy/go-wav"
)

// SampleFreq is the sample rate of the written file.
const SampleFreq = 44100

// the Z80 clock the edge timestamps are measured against.
const tapeClockHz = 3500000

// WavWriter implements the tape.EdgeListener interface.
type WavWriter struct {
	filename string
	edges    []uint64
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string) (*WavWriter, error) {
	aw := &WavWriter{
		filename: filename,
		edges:    make([]uint64, 0),
	}

	return aw, nil
}

// TapeEdge implements the tape.EdgeListener interface. Timestamps arrive
// in monotonic order.
func (aw *WavWriter) TapeEdge(t uint64) {
	aw.edges = append(aw.edges, t)
}

// EndMixing renders the buffered edges as a square wave and writes the
// WAV file.
func (aw *WavWriter) EndMixing() (rerr error) {
	f, err := os.Create(aw.filename)
	if err != nil {
		return curated.Errorf("wavwriter: %v", err)
	}
	defer func() {
		err := f.Close()
		if err != nil {
			rerr = curated.Errorf("wavwriter: %v", err)
		}
	}()

	samples := aw.render()

	enc := wav.NewWriter(f, uint32(len(samples)), 1, SampleFreq, 8)
	if enc == nil {
		return curated.Errorf("wavwriter: %v", "bad parameters for wav encoding")
	}

	logger.Logf(logger.Allow, "wavwriter", "writing tape audio to %s", aw.filename)
	enc.WriteSamples(samples)

	return nil
}

// render converts the edge timestamps to 8-bit samples.
func (aw *WavWriter) render() []wav.Sample {
	if len(aw.edges) == 0 {
		return nil
	}

	const tPerSample = tapeClockHz / SampleFreq

	origin := aw.edges[0]
	level := false

	samples := make([]wav.Sample, 0, (aw.edges[len(aw.edges)-1]-origin)/tPerSample+1)

	e := 0
	for t := origin; e < len(aw.edges); t += tPerSample {
		for e < len(aw.edges) && aw.edges[e] <= t {
			level = !level
			e++
		}

		s := wav.Sample{}
		if level {
			s.Values[0] = 0xe0
		} else {
			s.Values[0] = 0x20
		}
		samples = append(samples, s)
	}

	return samples
}
