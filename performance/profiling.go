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

package performance

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/jetsetilly/gopherzx/curated"
)

// Profile selects what the Go profiler records during a performance run.
type Profile int

// List of valid Profile values.
const (
	ProfileNone Profile = iota
	ProfileCPU
	ProfileMem
	ProfileBoth
)

// ParseProfile converts a command line argument to a Profile value.
func ParseProfile(s string) (Profile, bool) {
	switch s {
	case "none":
		return ProfileNone, true
	case "cpu":
		return ProfileCPU, true
	case "mem":
		return ProfileMem, true
	case "both":
		return ProfileBoth, true
	}
	return ProfileNone, false
}

// RunProfiler runs the supplied function under the requested profiles,
// writing tag_cpu.profile and tag_mem.profile files alongside the
// program.
func RunProfiler(prof Profile, tag string, run func() error) error {
	if prof == ProfileCPU || prof == ProfileBoth {
		f, err := os.Create(tag + "_cpu.profile")
		if err != nil {
			return curated.Errorf("performance: %v", err)
		}
		defer f.Close()

		err = pprof.StartCPUProfile(f)
		if err != nil {
			return curated.Errorf("performance: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	err := run()
	if err != nil {
		return err
	}

	if prof == ProfileMem || prof == ProfileBoth {
		f, err := os.Create(tag + "_mem.profile")
		if err != nil {
			return curated.Errorf("performance: %v", err)
		}
		defer f.Close()

		runtime.GC()
		err = pprof.WriteHeapProfile(f)
		if err != nil {
			return curated.Errorf("performance: %v", err)
		}
	}

	return nil
}
