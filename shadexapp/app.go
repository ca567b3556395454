// Package shadexapp is the JSON-string-in/JSON-string-out facade over
// the shadex core, grounded on sox_ui's App: every method takes and
// returns plain strings, so whatever host binding drives the visual
// editor never needs to know shadex's Go types directly.
package shadexapp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/robin-shadex/shadex"
)

// App holds every type world and graph the editor currently has open,
// each addressed by an opaque token. The teacher's App only ever held
// one flow at a time (a single global GraphCompiler); this one
// generalizes to several concurrently-open editor tabs, guarded by a
// mutex the teacher's single-flow design didn't need.
type App struct {
	mu sync.Mutex

	nextWorldID int
	nextGraphID int

	worlds        map[string]*shadex.TypeWorld
	graphSessions map[string]*graphSession
}

type graphSession struct {
	world *shadex.TypeWorld
	graph *shadex.NodeGraph
}

// NewApp creates an empty facade.
func NewApp() *App {
	return &App{
		worlds:        make(map[string]*shadex.TypeWorld),
		graphSessions: make(map[string]*graphSession),
	}
}

type errorEnvelope struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Node     int    `json:"node,omitempty"`
	HasNode  bool   `json:"hasNode,omitempty"`
	Argument string `json:"argument,omitempty"`
}

func errorJSON(kind, message string) string {
	b, _ := json.Marshal(errorEnvelope{Kind: kind, Message: message})
	return string(b)
}

func typeErrorJSON(err *shadex.TypeError) string {
	env := errorEnvelope{Kind: err.Kind.String(), Message: err.Message, Argument: err.Argument}
	if err.HasNode {
		env.HasNode = true
		env.Node = int(err.Node)
	}
	b, _ := json.Marshal(env)
	return string(b)
}

func diagsJSON(diags *shadex.Diagnostics) string {
	if diags == nil || diags.Err() == nil {
		return ""
	}
	return errorJSON("Diagnostics", diags.Err().Error())
}

// LoadTypeWorld parses a type-declaration file (spec section 6.1) and
// registers the resulting TypeWorld under a fresh token for use by a
// later LoadGraph call. A TypeWorld with port-level parse errors is
// still registered and usable — ok reports whether every port parsed
// cleanly, not whether a token was issued.
func (a *App) LoadTypeWorld(declText string) (token string, ok bool, errJSONOut string) {
	world, diags := shadex.LoadTypeWorld(declText)

	a.mu.Lock()
	a.nextWorldID++
	token = fmt.Sprintf("world-%d", a.nextWorldID)
	a.worlds[token] = world
	a.mu.Unlock()

	if diags.Err() != nil {
		return token, false, diagsJSON(diags)
	}
	return token, true, ""
}

// LoadGraph parses a graph-construction file (spec section 6.2)
// against a previously loaded TypeWorld and registers the resulting
// graph under a fresh token for use by Analyze and Compile.
func (a *App) LoadGraph(typeWorldToken, graphText string) (token string, ok bool, errJSONOut string) {
	a.mu.Lock()
	world, found := a.worlds[typeWorldToken]
	a.mu.Unlock()
	if !found {
		return "", false, errorJSON("NotFound", fmt.Sprintf("no loaded type world for token %q", typeWorldToken))
	}

	graph, diags := shadex.BuildGraph(world, graphText)

	a.mu.Lock()
	a.nextGraphID++
	token = fmt.Sprintf("graph-%d", a.nextGraphID)
	a.graphSessions[token] = &graphSession{world: world, graph: graph}
	a.mu.Unlock()

	if diags.Err() != nil {
		return token, false, diagsJSON(diags)
	}
	return token, true, ""
}

type portNoteDTO struct {
	Kind       string `json:"kind"` // "input" or "output"
	Node       int    `json:"node"`
	Index      int    `json:"index"`
	FormalType string `json:"formalType,omitempty"`
	Source     string `json:"source,omitempty"` // "FreeVariable" or "FromOutput", inputs only
	Error      string `json:"error,omitempty"`
}

// Analyze runs the formal type analyzer over a previously loaded
// graph and returns every port it visited, each with its formal type
// or the TypeError produced trying to compute one. ok is false only
// when the graph token itself doesn't resolve — a per-port TypeError
// is an expected, non-fatal outcome of the pass (spec section 7).
func (a *App) Analyze(token string) (notesJSON string, ok bool) {
	a.mu.Lock()
	sess, found := a.graphSessions[token]
	a.mu.Unlock()
	if !found {
		return errorJSON("NotFound", fmt.Sprintf("no loaded graph for token %q", token)), false
	}

	analysis, _ := shadex.Analyze(sess.graph)

	notes := make([]portNoteDTO, 0, 8)
	for _, ref := range analysis.InputRefs() {
		dto := portNoteDTO{Kind: "input", Node: int(ref.SourceNode), Index: ref.InputIndex}
		if n, err := analysis.AnalyzeInput(ref); err != nil {
			dto.Error = err.Error()
		} else {
			dto.FormalType = n.FormalType.String()
			switch n.TypeSource.(type) {
			case shadex.FreeVariableSource:
				dto.Source = "FreeVariable"
			case shadex.OutputPromotionSource:
				dto.Source = "FromOutput"
			}
		}
		notes = append(notes, dto)
	}
	for _, ref := range analysis.OutputRefs() {
		dto := portNoteDTO{Kind: "output", Node: int(ref.Node), Index: ref.OutputIndex}
		if n, err := analysis.AnalyzeOutput(ref); err != nil {
			dto.Error = err.Error()
		} else {
			dto.FormalType = n.FormalType.String()
		}
		notes = append(notes, dto)
	}

	b, err := json.Marshal(notes)
	if err != nil {
		return errorJSON("Internal", err.Error()), false
	}
	return string(b), true
}

type fragmentDTO struct {
	Text string `json:"text"`
	Name string `json:"name"`
}

// Compile runs the full pipeline for a previously loaded graph:
// analysis first (so a type error is reported as such rather than
// surfacing later as a confusing emission failure), then emission.
// On success it returns a {text, name} ShaderFragment; on failure, a
// structured error — mirroring the teacher's CompileToSource, which
// likewise validates before it generates source.
func (a *App) Compile(token string) (fragmentJSON string, ok bool) {
	a.mu.Lock()
	sess, found := a.graphSessions[token]
	a.mu.Unlock()
	if !found {
		return errorJSON("NotFound", fmt.Sprintf("no loaded graph for token %q", token)), false
	}

	if _, diags := shadex.Analyze(sess.graph); diags.Err() != nil {
		return diagsJSON(diags), false
	}

	frag, err := shadex.NewEmitter().Run(sess.graph)
	if err != nil {
		return typeErrorJSON(err), false
	}

	b, marshalErr := json.Marshal(fragmentDTO{Text: frag.Text, Name: frag.Name})
	if marshalErr != nil {
		return errorJSON("Internal", marshalErr.Error()), false
	}
	return string(b), true
}
