// Command shadexc is a batch CLI over the shadex core: it loads a
// type-declaration file and a graph-construction file, runs the
// formal type analyzer and the shader emitter, and writes the result
// to stdout. It is the thing original_source's shadex-backend/src/main.rs
// does ad hoc with two include_str!'d example files, generalized to
// take its two inputs as flags.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/robin-shadex/shadex"
)

func main() {
	typesPath := flag.String("types", "", "path to a type-declaration file (spec section 6.1)")
	graphPath := flag.String("graph", "", "path to a graph-construction file (spec section 6.2)")
	dumpNotes := flag.Bool("notes", false, "also dump every analyzed port's formal type notes")
	verbose := flag.Bool("v", false, "enable trace-level logging")
	flag.Parse()

	if *verbose {
		shadex.SetLogger(hclog.New(&hclog.LoggerOptions{
			Name:   "shadexc",
			Level:  hclog.Trace,
			Output: os.Stderr,
		}))
	}

	if *typesPath == "" || *graphPath == "" {
		fmt.Fprintln(os.Stderr, "usage: shadexc -types FILE -graph FILE [-notes] [-v]")
		os.Exit(2)
	}

	typesText, err := os.ReadFile(*typesPath)
	if err != nil {
		fail("reading type-declaration file: %v", err)
	}
	graphText, err := os.ReadFile(*graphPath)
	if err != nil {
		fail("reading graph-construction file: %v", err)
	}

	world, diags := shadex.LoadTypeWorld(string(typesText))
	if diags.Err() != nil {
		fail("parsing type declarations:\n%v", diags.Err())
	}

	graph, diags := shadex.BuildGraph(world, string(graphText))
	if diags.Err() != nil {
		fail("building graph:\n%v", diags.Err())
	}

	analysis, diags := shadex.Analyze(graph)
	if diags.Err() != nil {
		shadex.L().Warn("analysis reported errors", "error", diags.Err())
	}

	if *dumpNotes {
		dumpAnalysisNotes(analysis)
	}

	frag, emitErr := shadex.NewEmitter().Run(graph)
	if emitErr != nil {
		fail("emitting shader: %v", emitErr)
	}

	fmt.Printf("// name: %s\n%s\n", frag.Name, frag.Text)
}

func dumpAnalysisNotes(analysis *shadex.Analysis) {
	for _, ref := range analysis.InputRefs() {
		notes, err := analysis.AnalyzeInput(ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "input  node=%d idx=%d: ERROR %v\n", ref.SourceNode, ref.InputIndex, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "input  node=%d idx=%d: %s\n", ref.SourceNode, ref.InputIndex, notes.FormalType.String())
	}
	for _, ref := range analysis.OutputRefs() {
		notes, err := analysis.AnalyzeOutput(ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "output node=%d idx=%d: ERROR %v\n", ref.Node, ref.OutputIndex, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "output node=%d idx=%d: %s\n", ref.Node, ref.OutputIndex, notes.FormalType.String())
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "shadexc: "+format+"\n", args...)
	os.Exit(1)
}
