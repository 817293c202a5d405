// inspecthist dumps the header and per-frame summaries of a baked history
// file, flagging non-finite values.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/Rice-Rocket/sokudo/internal/history"
)

func main() {
	frames := flag.Bool("frames", false, "Dump every frame, not just first/last")
	n := flag.Int("n", 5, "Number of frames to show from each end")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspecthist [flags] <history>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	hist, err := history.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Colliders: %d\n", hist.ColliderCount)
	fmt.Printf("Frames:    %d\n", hist.Len())
	fmt.Printf("Dt:        %g (%.1f fps)\n", hist.Dt, 1/hist.Dt)
	fmt.Println()

	bad := 0
	for s := 0; s < hist.Len(); s++ {
		show := *frames || s < *n || s >= hist.Len()-*n
		if show {
			fmt.Printf("frame %5d:\n", s)
		} else if s == *n {
			fmt.Println("  ...")
		}

		for _, c := range hist.Frame(s) {
			finite := colliderFinite(c)
			if !finite {
				bad++
			}
			if !show && finite {
				continue
			}

			mark := ""
			if !finite {
				mark = "  <- NON-FINITE"
			}
			fmt.Printf("  %4d  t=(%8.3f %8.3f %8.3f)  r=(%6.3f %6.3f %6.3f %6.3f)  s=(%.3f %.3f %.3f)%s\n",
				c.ID,
				c.Translate[0], c.Translate[1], c.Translate[2],
				c.Rotate.X(), c.Rotate.Y(), c.Rotate.Z(), c.Rotate.W,
				c.Scale[0], c.Scale[1], c.Scale[2],
				mark)
		}
	}

	if bad > 0 {
		fmt.Fprintf(os.Stderr, "\n%d non-finite collider poses\n", bad)
		os.Exit(1)
	}
}

func colliderFinite(c history.FrameCollider) bool {
	vals := []float64{
		c.Translate[0], c.Translate[1], c.Translate[2],
		c.Rotate.X(), c.Rotate.Y(), c.Rotate.Z(), c.Rotate.W,
		c.Scale[0], c.Scale[1], c.Scale[2],
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
