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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"

	"github.com/jetsetilly/gopherzx/hardware"
	"github.com/jetsetilly/gopherzx/hardware/preferences"
	"github.com/jetsetilly/gopherzx/logger"
	"github.com/jetsetilly/gopherzx/modalflag"
	"github.com/jetsetilly/gopherzx/performance"
	"github.com/jetsetilly/gopherzx/performance/limiter"
	"github.com/jetsetilly/gopherzx/wavwriter"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubMode("RUN")
	md.AddSubMode("PERFORMANCE")

	p, err := md.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "* %v\n", err)
		os.Exit(10)
	}
	if p != modalflag.ParseContinue {
		os.Exit(0)
	}

	switch md.Mode() {
	case "RUN", "":
		err = emulate(md)
	case "PERFORMANCE":
		err = perform(md)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "* %v\n", err)
		os.Exit(10)
	}
}

// newMachine assembles a Spectrum from the shared command line flags and
// attaches the named files.
func newMachine(md *modalflag.Modes, prefs *preferences.Preferences) (*hardware.Spectrum, error) {
	spec := hardware.NewSpectrum(prefs)

	for _, f := range md.RemainingArgs() {
		err := spec.Attach(f)
		if err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func emulate(md *modalflag.Modes) error {
	md.NewMode()
	frames := md.AddInt("frames", 0, "number of frames to run (0 = forever)")
	log := md.AddBool("log", false, "echo the log to stderr")
	model48 := md.AddBool("48k", false, "emulate a 48K machine")
	noTraps := md.AddBool("notraps", false, "disable tape and disk ROM traps")
	realtime := md.AddBool("realtime", false, "limit the emulation to real Spectrum speed")
	wav := md.AddString("wav", "", "record the tape signal to a WAV file")
	viz := md.AddString("memviz", "", "write the machine component graph to a dot file")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(os.Stderr, false)
	}

	prefs := preferences.NewPreferences()
	prefs.Model48 = *model48
	if *noTraps {
		prefs.TapeTraps = false
		prefs.TRDOSTraps = false
	}

	spec, err := newMachine(md, prefs)
	if err != nil {
		return err
	}

	if *wav != "" {
		aw, err := wavwriter.New(*wav)
		if err != nil {
			return err
		}
		spec.Tape.AttachListener(aw)
		defer func() {
			err := aw.EndMixing()
			if err != nil {
				fmt.Fprintf(os.Stderr, "* %v\n", err)
			}
		}()
	}

	if *viz != "" {
		err := writeMemviz(spec, *viz)
		if err != nil {
			return err
		}
	}

	var lim *limiter.FpsLimiter
	if *realtime {
		lim = limiter.NewFPSLimiter(50)
	}

	for i := 0; *frames <= 0 || i < *frames; i++ {
		if lim != nil {
			lim.Wait()
		}
		spec.RunForFrames(1)
	}

	return nil
}

func perform(md *modalflag.Modes) error {
	md.NewMode()
	frames := md.AddInt("frames", 500, "number of frames to run")
	prof := md.AddString("profile", "none", "run under the profiler (none, cpu, mem, both)")
	stats := md.AddBool("statsview", false, "run the stats server")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	profile, ok := performance.ParseProfile(*prof)
	if !ok {
		return fmt.Errorf("unknown profile type %s", *prof)
	}

	spec, err := newMachine(md, preferences.NewPreferences())
	if err != nil {
		return err
	}

	return performance.Check(os.Stdout, profile, spec, *stats, *frames)
}

// writeMemviz dumps the component graph of the machine. Useful when
// exploring how the pieces connect.
func writeMemviz(spec *hardware.Spectrum, filename string) (rerr error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		err := f.Close()
		if err != nil {
			rerr = err
		}
	}()

	var w io.Writer = f
	memviz.Map(w, spec)

	return nil
}
