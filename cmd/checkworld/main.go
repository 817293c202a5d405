// checkworld validates world files and prints their collider tables without
// simulating anything.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rice-Rocket/sokudo/internal/solver"
	"github.com/Rice-Rocket/sokudo/internal/worldfile"
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: checkworld <world> [<world>...]")
		os.Exit(1)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := check(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func check(path string) error {
	def, err := worldfile.Load(path)
	if err != nil {
		return err
	}

	world, cfg, err := def.Build()
	if err != nil {
		return err
	}

	fmt.Printf("%s: OK\n", path)
	fmt.Printf("  steps=%d dt=%g substeps=%d iterations=%d\n", world.Steps, cfg.Dt, cfg.Substeps, cfg.Iterations)
	fmt.Printf("  gravity=(%g %g %g) compliance=%g static_friction=%g\n",
		cfg.Gravity[0], cfg.Gravity[1], cfg.Gravity[2], cfg.Compliance, cfg.StaticFriction)

	fmt.Printf("  %-6s %-10s %-7s %-9s %-8s %s\n", "id", "type", "locked", "mass", "shape", "position")
	for i := range world.Colliders {
		col := &world.Colliders[i]

		kind, shape, mass := "particle", "-", "-"
		if rb, ok := col.Body.(*solver.RigidBody); ok {
			kind = "rigid"
			switch rb.Shape.(type) {
			case solver.Cuboid:
				shape = "cuboid"
			case solver.Ball:
				shape = "ball"
			}
			if !col.Locked {
				mass = fmt.Sprintf("%g", rb.Mass)
			}
		} else if p, ok := col.Body.(*solver.Particle); ok && !col.Locked {
			mass = fmt.Sprintf("%g", p.Mass)
		}

		fmt.Printf("  %-6d %-10s %-7v %-9s %-8s (%g %g %g)\n",
			col.ID, kind, col.Locked, mass, shape,
			col.Position[0], col.Position[1], col.Position[2])
	}

	return nil
}
