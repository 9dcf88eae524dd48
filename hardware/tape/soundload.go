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

package tape

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/jetsetilly/gopherzx/curated"
	"github.com/jetsetilly/gopherzx/logger"
)

// pcmData is a mono PCM stream decoded from an audio recording of a tape.
type pcmData struct {
	sampleRate float64

	// data is mono (taken from the left channel in the case of stereo
	// source files)
	data []float32
}

// AttachAudio parses an audio recording of a tape (WAV or MP3) into the
// pulse store. Edges are recovered from the waveform by zero-crossing
// detection with a small hysteresis.
func (tp *Tape) AttachAudio(filename string) error {
	tp.Eject()

	p, err := getPCM(tp, filename)
	if err != nil {
		tp.Eject()
		return err
	}

	if p.sampleRate == 0 || len(p.data) == 0 {
		tp.Eject()
		return curated.Errorf(InvalidFormat, "soundload: empty recording")
	}

	tp.pcmToPulses(p)

	logger.Logf(tp.env, "tape", "soundload: %.02fs at %.0fHz", float64(len(p.data))/p.sampleRate, p.sampleRate)
	return nil
}

func getPCM(tp *Tape, filename string) (pcmData, error) {
	p := pcmData{
		data: make([]float32, 0),
	}

	f, err := os.Open(filename)
	if err != nil {
		return p, curated.Errorf("tape: %v", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		dec := wav.NewDecoder(f)
		if dec == nil {
			return p, curated.Errorf(InvalidFormat, "soundload: wav: error decoding")
		}

		if !dec.IsValidFile() {
			return p, curated.Errorf(InvalidFormat, "soundload: wav: not a valid wav file")
		}

		logger.Log(tp.env, "tape", "soundload: loading from wav file")

		// load all data at once
		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return p, curated.Errorf(InvalidFormat, fmt.Sprintf("soundload: wav: %v", err))
		}
		floatBuf := buf.AsFloat32Buffer()

		// copy first channel only of the data stream
		p.data = make([]float32, 0, len(floatBuf.Data)/int(dec.NumChans))
		for i := 0; i < len(floatBuf.Data); i += int(dec.NumChans) {
			p.data = append(p.data, floatBuf.Data[i])
		}

		p.sampleRate = float64(dec.SampleRate)

	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return p, curated.Errorf(InvalidFormat, fmt.Sprintf("soundload: mp3: %v", err))
		}

		logger.Log(tp.env, "tape", "soundload: loading from mp3 file")

		err = nil
		chunk := make([]byte, 4096)
		for err != io.EOF {
			var chunkLen int
			chunkLen, err = dec.Read(chunk)
			if err != nil && err != io.EOF {
				return p, curated.Errorf(InvalidFormat, fmt.Sprintf("soundload: mp3: %v", err))
			}

			// index increment of 4 because:
			//  - two bytes per sample per channel
			//  - we only want the left channel
			for i := 0; i < chunkLen; i += 4 {
				// little endian 16 bit sample
				v := int(chunk[i]) | (int(chunk[i+1]) << 8)

				// interpret as two's complement
				if v >= 32768 {
					v -= 65536
				}

				p.data = append(p.data, float32(v))
			}
		}

		// the go-mp3 stream is always 16bit two channel, even for mono
		// sources
		p.sampleRate = float64(dec.SampleRate())

	default:
		return p, curated.Errorf(InvalidFormat, "soundload: unsupported audio file")
	}

	return p, nil
}

// pcmToPulses converts the waveform into pulses. A level change is
// recognised when the sample crosses zero by more than the hysteresis
// fraction of the peak amplitude; shallow ripple inside the band is
// ignored.
func (tp *Tape) pcmToPulses(p pcmData) {
	// peak amplitude for the hysteresis band
	var peak float32
	for _, v := range p.data {
		if v > peak {
			peak = v
		} else if -v > peak {
			peak = -v
		}
	}
	if peak == 0 {
		tp.Pulses.CloseBlock("silence", nil)
		return
	}
	band := peak * 0.1

	tPerSample := float64(Z80ClockHz) / p.sampleRate

	level := p.data[0] > 0
	run := 1
	for _, v := range p.data[1:] {
		var next bool
		switch {
		case v > band:
			next = true
		case v < -band:
			next = false
		default:
			next = level
		}

		if next != level {
			tp.Pulses.Append(uint32(float64(run) * tPerSample))
			run = 0
			level = next
		}
		run++
	}
	tp.Pulses.Append(uint32(float64(run) * tPerSample))

	tp.Pulses.CloseBlock("audio recording", nil)
}
