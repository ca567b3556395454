package shadex

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// This file is the formal type analyzer (spec section 4.5): a pair of
// mutually recursive, memoized functions computing the parameterized
// type of every input and output port reachable from the graph's Out
// node. It is a direct port of
// original_source/shadex-backend/src/execution/typechecking.rs's
// NodeGraphFormalTypeAnalysis, with one systematic change: every
// `panic!` in the Rust prototype becomes a *TypeError that is cached
// against the failing port and returned to the caller, per spec
// section 7 ("errors ... are never fatal to the analysis pass as a
// whole"). A port whose analysis failed stays failed — the cache
// remembers the error the same way it remembers a success, so repeat
// queries don't redo the (failed) work.

// NodeInputRef names one input port of one node instance — the key
// type for the input half of the analysis cache.
type NodeInputRef struct {
	SourceNode NodeRef
	InputIndex int
}

// OutputTypeNotes is the memoized result of analyzing one node output.
type OutputTypeNotes struct {
	// FormalType is the output's parameterized type as actually
	// computed: its Output primitive is the declared one, and its
	// Inputs is the union of every excess argument absorbed from this
	// node's own inputs with the output's own declared arguments.
	FormalType ValueType

	// StepComputationRequires is the output's declared argument set,
	// taken directly from the node type's declaration — what you'd need
	// to know just to evaluate this step, ignoring upstream absorption.
	StepComputationRequires map[string]*ValueType

	// InputsParameterizedBy is the excess-argument set absorbed purely
	// from this node's inputs, before the output's own declared
	// arguments are unioned in.
	InputsParameterizedBy map[string]*ValueType
}

// InputTypeNotes is the memoized result of analyzing one node input.
type InputTypeNotes struct {
	FormalType ValueType
	TypeSource InputValueTypeSource
}

// InputValueTypeSource records why an input port got the formal type
// it did: either it is wired to an upstream output (OutputPromotion),
// or it is a free variable (FreeVariable) whose type is exactly its
// declared spec, self-parameterized.
type InputValueTypeSource interface{ inputValueTypeSource() }

// FreeVariableSource is the source for an unconnected input: its
// formal type is its own declared spec with one extra self-referential
// argument (named after the port) added, whose type is that same spec.
type FreeVariableSource struct {
	TypesFromFV map[string]*ValueType
	ItselfName  string
	ItselfType  *ValueType
}

func (FreeVariableSource) inputValueTypeSource() {}

// OutputPromotionSource is the source for a wired input: the upstream
// output's formal type, extended ("promoted") with constant-WRT
// arguments for every declared argument the upstream output doesn't
// already provide.
type OutputPromotionSource struct {
	TypesFromOutput  map[string]*ValueType
	AddedConstantWRT map[string]*ValueType
}

func (OutputPromotionSource) inputValueTypeSource() {}

// Analysis holds the memoization caches for one run of the formal type
// analyzer over one graph.
type Analysis struct {
	graph *NodeGraph
	log   hclog.Logger

	outputNotes map[ValueRef]*OutputTypeNotes
	outputErrs  map[ValueRef]*TypeError
	inputNotes  map[NodeInputRef]*InputTypeNotes
	inputErrs   map[NodeInputRef]*TypeError

	diags *Diagnostics
}

func newAnalysis(graph *NodeGraph, log hclog.Logger) *Analysis {
	return &Analysis{
		graph:       graph,
		log:         log,
		outputNotes: make(map[ValueRef]*OutputTypeNotes),
		outputErrs:  make(map[ValueRef]*TypeError),
		inputNotes:  make(map[NodeInputRef]*InputTypeNotes),
		inputErrs:   make(map[NodeInputRef]*TypeError),
		diags:       &Diagnostics{},
	}
}

// Analyze runs the formal type analyzer over every input reachable
// from graph's Out node(s) (spec invariant 4 permits at most one, but
// the analyzer itself — like the Rust prototype — tolerates any number
// found, analyzing each). The returned Diagnostics aggregates every
// TypeError produced along the way.
func Analyze(graph *NodeGraph, opts ...Option) (*Analysis, *Diagnostics) {
	o := newOptions(opts...)
	a := newAnalysis(graph, o.log)
	for _, r := range graph.NodeRefs() {
		info := graph.TypeOf(r)
		if info == nil || info.Tag != TagOut {
			continue
		}
		a.log.Trace("analyzing Out node's input", "node", r)
		a.AnalyzeInput(NodeInputRef{SourceNode: r, InputIndex: 0})
	}
	return a, a.diags
}

// AnalyzeInput computes (and memoizes) the formal type of one input
// port, per typechecking.rs's analyze_single_input.
func (a *Analysis) AnalyzeInput(ref NodeInputRef) (*InputTypeNotes, *TypeError) {
	if notes, ok := a.inputNotes[ref]; ok {
		return notes, nil
	}
	if err, ok := a.inputErrs[ref]; ok {
		return nil, err
	}

	a.log.Trace("analyzing input", "node", ref.SourceNode, "index", ref.InputIndex)

	fail := func(err *TypeError) (*InputTypeNotes, *TypeError) {
		a.log.Warn("input analysis failed", "node", ref.SourceNode, "index", ref.InputIndex, "error", err)
		a.inputErrs[ref] = err
		a.diags.Add(err)
		return nil, err
	}

	node, ok := a.graph.Node(ref.SourceNode)
	if !ok {
		return fail(newNodeTypeError(KindMissingNodeType, ref.SourceNode, "input reference: source node not found"))
	}
	info := a.graph.TypeOf(ref.SourceNode)
	if info == nil || ref.InputIndex < 0 || ref.InputIndex >= len(info.Inputs) {
		return fail(newNodeTypeError(KindMissingNodeType, ref.SourceNode,
			fmt.Sprintf("input index %d out of range", ref.InputIndex)))
	}
	specPort := info.Inputs[ref.InputIndex]
	if !specPort.Type.OK() {
		return fail(specPort.Type.Err)
	}
	specType := specPort.Type.Value

	wire := node.Inputs[ref.InputIndex]

	if wire == nil {
		formalType := specType.Clone()
		if formalType.Inputs == nil {
			formalType.Inputs = map[string]*ValueType{}
		}
		itself := specType.Clone()
		formalType.Inputs[specPort.Name] = itself
		notes := &InputTypeNotes{
			FormalType: *formalType,
			TypeSource: FreeVariableSource{
				TypesFromFV: cloneValueTypeMap(specType.Inputs),
				ItselfName:  specPort.Name,
				ItselfType:  itself,
			},
		}
		a.log.Debug("input is a free variable", "node", ref.SourceNode, "index", ref.InputIndex, "formalType", formalType)
		a.inputNotes[ref] = notes
		return notes, nil
	}

	realOutput, err := a.AnalyzeOutput(*wire)
	if err != nil {
		return fail(newNodeTypeError(err.Kind, ref.SourceNode, err.Message))
	}

	typesFromOutput := cloneValueTypeMap(realOutput.FormalType.Inputs)
	addedConstantWRT := map[string]*ValueType{}
	resultArgs := cloneValueTypeMap(realOutput.FormalType.Inputs)

	for name, specArgType := range specType.Inputs {
		realArgType, present := realOutput.FormalType.Inputs[name]
		if !present {
			addedConstantWRT[name] = specArgType.Clone()
			resultArgs[name] = specArgType.Clone()
			continue
		}
		if !realArgType.Equal(specArgType) {
			return fail(newNodeTypeError(KindArgumentTypeMismatch, ref.SourceNode,
				fmt.Sprintf("argument %q: input declares %s but source output provides %s", name, specArgType, realArgType)))
		}
	}

	if specType.Output != realOutput.FormalType.Output {
		return fail(newNodeTypeError(KindPrimitiveMismatch, ref.SourceNode,
			fmt.Sprintf("input declares output primitive %s but source provides %s", specType.Output, realOutput.FormalType.Output)))
	}

	notes := &InputTypeNotes{
		FormalType: ValueType{Inputs: resultArgs, Output: specType.Output},
		TypeSource: OutputPromotionSource{
			TypesFromOutput:  typesFromOutput,
			AddedConstantWRT: addedConstantWRT,
		},
	}
	a.log.Debug("input promoted from upstream output", "node", ref.SourceNode, "index", ref.InputIndex, "formalType", notes.FormalType)
	a.inputNotes[ref] = notes
	return notes, nil
}

// AnalyzeOutput computes (and memoizes) the formal type of one output
// port, per typechecking.rs's analyze_single_output.
func (a *Analysis) AnalyzeOutput(ref ValueRef) (*OutputTypeNotes, *TypeError) {
	if notes, ok := a.outputNotes[ref]; ok {
		return notes, nil
	}
	if err, ok := a.outputErrs[ref]; ok {
		return nil, err
	}

	a.log.Trace("analyzing output", "node", ref.Node, "index", ref.OutputIndex)

	fail := func(err *TypeError) (*OutputTypeNotes, *TypeError) {
		a.log.Warn("output analysis failed", "node", ref.Node, "index", ref.OutputIndex, "error", err)
		a.outputErrs[ref] = err
		a.diags.Add(err)
		return nil, err
	}

	info := a.graph.TypeOf(ref.Node)
	if info == nil {
		return fail(newNodeTypeError(KindMissingNodeType, ref.Node, "output reference: source node not found"))
	}
	if ref.OutputIndex < 0 || ref.OutputIndex >= len(info.Outputs) {
		return fail(newNodeTypeError(KindMissingNodeType, ref.Node,
			fmt.Sprintf("output index %d out of range", ref.OutputIndex)))
	}
	outPort := info.Outputs[ref.OutputIndex]
	if !outPort.Type.OK() {
		return fail(outPort.Type.Err)
	}
	outType := outPort.Type.Value

	excessInputArgs := map[string]*ValueType{}
	for i, inPort := range info.Inputs {
		inNotes, err := a.AnalyzeInput(NodeInputRef{SourceNode: ref.Node, InputIndex: i})
		if err != nil {
			return fail(newNodeTypeError(err.Kind, ref.Node, err.Message))
		}
		for name, typ := range inNotes.FormalType.Inputs {
			if inPort.Type.OK() {
				if _, declared := inPort.Type.Value.Inputs[name]; declared {
					continue
				}
			}
			if cur, exists := excessInputArgs[name]; exists {
				if !cur.Equal(typ) {
					return fail(newNodeTypeError(KindConflictingExcessArgument, ref.Node,
						fmt.Sprintf("excess argument %q has conflicting types across this node's inputs", name)))
				}
				continue
			}
			excessInputArgs[name] = typ.Clone()
		}
	}

	inputsParameterizedBy := cloneValueTypeMap(excessInputArgs)
	outputFormalArgs := cloneValueTypeMap(excessInputArgs)
	specdOutputArgs := cloneValueTypeMap(outType.Inputs)

	for name, typ := range outType.Inputs {
		if cur, exists := outputFormalArgs[name]; exists {
			if !cur.Equal(typ) {
				return fail(newNodeTypeError(KindConflictingExcessArgument, ref.Node,
					fmt.Sprintf("argument %q conflicts between absorbed inputs and the declared output", name)))
			}
			continue
		}
		outputFormalArgs[name] = typ.Clone()
	}

	notes := &OutputTypeNotes{
		FormalType:              ValueType{Inputs: outputFormalArgs, Output: outType.Output},
		StepComputationRequires: specdOutputArgs,
		InputsParameterizedBy:   inputsParameterizedBy,
	}
	a.log.Debug("output analyzed", "node", ref.Node, "index", ref.OutputIndex, "formalType", notes.FormalType)
	a.outputNotes[ref] = notes
	return notes, nil
}

// InputRefs returns every input port this analysis has already visited
// (successfully or not), sorted for deterministic iteration — the
// accessor spec section 6.4 calls `input_notes(node, i)`, generalized
// to a bulk read for callers (the notes-dump flag of cmd/shadexc, the
// shadexapp facade) that want everything analyzed so far rather than
// one port at a time.
func (a *Analysis) InputRefs() []NodeInputRef {
	refs := make([]NodeInputRef, 0, len(a.inputNotes)+len(a.inputErrs))
	for r := range a.inputNotes {
		refs = append(refs, r)
	}
	for r := range a.inputErrs {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].SourceNode != refs[j].SourceNode {
			return refs[i].SourceNode < refs[j].SourceNode
		}
		return refs[i].InputIndex < refs[j].InputIndex
	})
	return refs
}

// OutputRefs returns every output port this analysis has already
// visited, sorted for deterministic iteration.
func (a *Analysis) OutputRefs() []ValueRef {
	refs := make([]ValueRef, 0, len(a.outputNotes)+len(a.outputErrs))
	for r := range a.outputNotes {
		refs = append(refs, r)
	}
	for r := range a.outputErrs {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Node != refs[j].Node {
			return refs[i].Node < refs[j].Node
		}
		return refs[i].OutputIndex < refs[j].OutputIndex
	})
	return refs
}

func cloneValueTypeMap(m map[string]*ValueType) map[string]*ValueType {
	out := make(map[string]*ValueType, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}
