// Package pkg provides the core libraries for GraphNIST topology diagramming.
//
// # Overview
//
// GraphNIST arranges network topology diagrams: devices (routers, switches,
// firewalls, servers, clouds, workstations) connected by undirected links.
// The pkg directory is organized into five main areas:
//
//  1. [topology] - Domain model (devices, connections, viewports, serialization)
//  2. [layout] - Position computation (force, hierarchical, radial, grid)
//  3. [connect] - Connection proposals (mesh, chain, closest, closest-type)
//  4. [render] - DOT/SVG/PNG/PDF output
//  5. [pipeline] - Orchestration (layout → render) with caching
//
// Supporting packages: [cache] (file/Redis/null backends), [store]
// (SQLite/Mongo persistence), [config] (TOML configuration), [errors]
// (structured error codes), [observability] (instrumentation hooks), and
// [buildinfo] (version stamping).
//
// # Architecture
//
// The typical data flow through GraphNIST:
//
//	topology.json / HTTP payload
//	         ↓
//	    [topology] package (model + validation)
//	         ↓
//	    [layout] package (device positions)
//	         ↓
//	    [render] package (DOT → SVG → PNG/PDF)
//	         ↓
//	    files / HTTP response
//
// # Quick Start
//
// Compute a layout and render an SVG:
//
//	import (
//	    "context"
//	    "github.com/graphnist/graphnist/pkg/pipeline"
//	    "github.com/graphnist/graphnist/pkg/topology"
//	)
//
//	topo, err := topology.ReadFile("office.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), topo, pipeline.Options{
//	    Strategy: "force",
//	    Formats:  []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("office.svg", result.Artifacts["svg"], 0o644)
package pkg
