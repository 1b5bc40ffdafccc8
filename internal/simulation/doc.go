// Package simulation provides a multi-tick test harness for validating the
// emergent dynamics of the colony engine.
//
// The harness drives a real Universe on a real layout with a seeded random
// source. No mocks. Scenarios describe an arena, a configuration, an
// optional schedule of edits, and the cells to watch; the runner records
// per-tick stats and watched strengths for property-based assertions, and
// files a run report in an isolated SQLite store.
//
// Each test gets its own database via t.TempDir() and a sandboxed HOME.
//
// Usage:
//
//	func TestShortcut(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "shortcut",
//	        Layout: "S...E\n.###.\n.....\n",
//	        Ticks:  300,
//	        Watch:  []grid.Pos{{Row: 0, Col: 2}, {Row: 2, Col: 2}},
//	    })
//	    simulation.AssertStronger(t, result, grid.Pos{Row: 0, Col: 2}, grid.Pos{Row: 2, Col: 2})
//	}
package simulation
