package shadex

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrorKind tags every way the core can fail to produce a value for a
// port or an emitted shader, per spec section 7.
type ErrorKind int

const (
	// KindParseFailure: surface-language parsing rejected the input.
	KindParseFailure ErrorKind = iota
	// KindPrimitiveMismatch: input's declared output primitive differs
	// from upstream's.
	KindPrimitiveMismatch
	// KindArgumentTypeMismatch: a shared argument name has different
	// types on spec and upstream.
	KindArgumentTypeMismatch
	// KindConflictingExcessArgument: two siblings introduce the same
	// excess argument with different types.
	KindConflictingExcessArgument
	// KindMissingNodeType: graph references a declared name the
	// registry does not contain.
	KindMissingNodeType
	// KindMissingOutput: emit called on a graph with no Out-tagged node.
	KindMissingOutput
	// KindUnconnectedInput: emitter reached a None input.
	KindUnconnectedInput
	// KindCyclicGraph: emitter re-entered a node whose emission is in
	// progress.
	KindCyclicGraph
	// KindUnsupportedOp: execution tag has no emission rule (Exp).
	KindUnsupportedOp
)

func (k ErrorKind) String() string {
	switch k {
	case KindParseFailure:
		return "ParseFailure"
	case KindPrimitiveMismatch:
		return "PrimitiveMismatch"
	case KindArgumentTypeMismatch:
		return "ArgumentTypeMismatch"
	case KindConflictingExcessArgument:
		return "ConflictingExcessArgument"
	case KindMissingNodeType:
		return "MissingNodeType"
	case KindMissingOutput:
		return "MissingOutput"
	case KindUnconnectedInput:
		return "UnconnectedInput"
	case KindCyclicGraph:
		return "CyclicGraph"
	case KindUnsupportedOp:
		return "UnsupportedOp"
	default:
		return "Unknown"
	}
}

// TypeError is the single error carrier shared by every core pass. It
// keeps just enough structured context (node, argument name) to build a
// longer diagnostic on demand, the way argmapper.ErrArgumentUnsatisfied
// keeps Func/Args/Inputs instead of just a message.
type TypeError struct {
	Kind     ErrorKind
	Message  string
	Node     NodeRef
	HasNode  bool
	Argument string
}

func (e *TypeError) Error() string {
	if e.HasNode {
		return fmt.Sprintf("%s: %s (node %d)", e.Kind, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newTypeError(kind ErrorKind, message string) *TypeError {
	return &TypeError{Kind: kind, Message: message}
}

func newNodeTypeError(kind ErrorKind, node NodeRef, message string) *TypeError {
	return &TypeError{Kind: kind, Message: message, Node: node, HasNode: true}
}

// Diagnostics aggregates independently-recoverable per-port errors into
// a single error for callers that want one failure value instead of
// walking the notes maps (a CLI exit path, for instance). It never
// discards an individual error to produce the summary.
type Diagnostics struct {
	errs *multierror.Error
}

// Add records an error. Nil errors are ignored.
func (d *Diagnostics) Add(err error) {
	if err == nil {
		return
	}
	d.errs = multierror.Append(d.errs, err)
}

// Err returns the aggregate error, or nil if nothing was recorded.
func (d *Diagnostics) Err() error {
	if d.errs == nil {
		return nil
	}
	return d.errs.ErrorOrNil()
}

// Len reports how many errors have been recorded.
func (d *Diagnostics) Len() int {
	if d.errs == nil {
		return 0
	}
	return len(d.errs.Errors)
}
