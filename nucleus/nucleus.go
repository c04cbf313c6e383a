// Package nucleus is the engine facade: it owns a session's document,
// bindings, synthesis engine, and handle registry, and runs the full
// pipeline (parse, constraint resolution, type inference, evaluation) for
// each command the driving model emits.
package nucleus

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/yogthos/matryoshka/document"
	"github.com/yogthos/matryoshka/handle"
	"github.com/yogthos/matryoshka/kanren"
	"github.com/yogthos/matryoshka/knowledge"
	"github.com/yogthos/matryoshka/lattice"
	"github.com/yogthos/matryoshka/mkerrors"
	"github.com/yogthos/matryoshka/nucleus/syntax"
	"github.com/yogthos/matryoshka/synth"
)

// DocumentStats is what Load reports about the loaded document.
type DocumentStats struct {
	Length    int
	LineCount int
}

// Session is one independent engine instance: its own document, bindings,
// knowledge base, handle registry, and counters. Sessions do not share
// mutable state; use one per conversation.
type Session struct {
	id  string
	cfg Config

	logger      hclog.Logger
	doc         *document.Document
	env         *lattice.Environment
	eval        *lattice.Evaluator
	base        *knowledge.Base
	synthEngine *synth.Engine
	registry    *handle.Registry
	checkpoints *handle.Checkpoints
	search      *document.Search

	deadline time.Time
	closed   bool
}

// Load creates a session over the given document text.
func Load(text string, cfg Config) *Session {
	logger := hclog.NewNullLogger()
	if cfg.LogLevel != "" {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:  "matryoshka.session",
			Level: hclog.LevelFromString(cfg.LogLevel),
		})
	}

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: logger,
		doc:    document.New(text),
	}
	s.initState()
	return s
}

// LoadFile creates a session over a document read from disk.
func LoadFile(path string, cfg Config) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read document %q: %w", path, err)
	}
	return Load(string(data), cfg), nil
}

func (s *Session) initState() {
	s.env = lattice.NewEnvironment()
	s.env.SetContext(s.doc.Text())

	s.base = knowledge.NewBase()
	s.synthEngine = synth.NewEngine(s.base)
	s.synthEngine.Vars = &kanren.Factory{}
	s.synthEngine.MaxDepth = s.cfg.SynthDepth

	s.eval = lattice.New(s.doc, s.env)
	s.eval.Synth = s.synthEngine
	s.eval.Logger = s.logger.Named("lattice")
	s.eval.FuzzyLimit = s.cfg.FuzzyLimit

	s.registry = handle.NewRegistry()
	if s.cfg.SampleSeed != 0 {
		s.registry.SeedSample(s.cfg.SampleSeed)
	}
	s.checkpoints = handle.NewCheckpoints(s.registry)
	s.search = nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Stats reports the loaded document's size.
func (s *Session) Stats() DocumentStats {
	return DocumentStats{Length: s.doc.Len(), LineCount: s.doc.LineCount()}
}

// SetSymbols plugs in a source-code symbol indexer for the symbol
// operations.
func (s *Session) SetSymbols(ix document.SymbolIndexer) {
	s.eval.Symbols = ix
}

// SetDeadline bounds every subsequent Execute call. A zero time removes the
// deadline.
func (s *Session) SetDeadline(t time.Time) {
	s.deadline = t
}

// Registry exposes the session's handle registry for handle operations.
func (s *Session) Registry() *handle.Registry { return s.registry }

// Checkpoints exposes the session's checkpoint manager.
func (s *Session) Checkpoints() *handle.Checkpoints { return s.checkpoints }

// Knowledge exposes the session's knowledge base for export/import and
// maintenance.
func (s *Session) Knowledge() *knowledge.Base { return s.base }

// ExecResult is what Execute hands back. On a sequence result, Handle and
// Stub identify the stored result; hosts normally show the model the stub
// instead of Value.
type ExecResult struct {
	Success      bool
	Value        lattice.Value
	Handle       string
	Stub         string
	Logs         []string
	InferredType syntax.Type
	TrailingNote string
	Err          error
}

// Execute runs one command through the full pipeline. Errors come back as
// values in the result, never as panics.
func (s *Session) Execute(source string) ExecResult {
	if s.closed {
		return ExecResult{Err: mkerrors.New(mkerrors.KindInternal, "session is closed")}
	}

	parsed := syntax.Parse(source)
	if parsed.Err != nil {
		return ExecResult{Err: parsed.Err}
	}

	resolved, err := syntax.ResolveConstraints(parsed.Term)
	if err != nil {
		return ExecResult{Err: err}
	}
	if len(resolved.Applied) > 0 {
		s.logger.Debug("applied constraints", "markers", resolved.Applied)
	}

	inferred, err := syntax.Infer(resolved.Term)
	if err != nil {
		return ExecResult{Err: err, TrailingNote: parsed.TrailingNote}
	}

	if s.cfg.DeadlineSeconds > 0 {
		s.eval.Deadline = time.Now().Add(time.Duration(s.cfg.DeadlineSeconds) * time.Second)
	} else {
		s.eval.Deadline = s.deadline
	}

	value, logs, err := s.eval.Evaluate(resolved.Term)
	if err != nil {
		return ExecResult{Logs: logs, InferredType: inferred, TrailingNote: parsed.TrailingNote, Err: err}
	}

	res := ExecResult{
		Success:      true,
		Value:        value,
		Logs:         logs,
		InferredType: inferred,
		TrailingNote: parsed.TrailingNote,
	}

	if value.Kind() == lattice.ValueList {
		res.Handle = s.registry.Store(value.List())
		s.registry.SetResults(res.Handle)
		res.Stub = s.registry.Stub(res.Handle)
	}

	if s.cfg.AutoCheckpoint {
		s.checkpoints.Snapshot(strconv.Itoa(s.env.Turn()))
	}
	return res
}

// Expand materializes elements of a handle: up to limit elements starting at
// offset, rendered as text when format is "text" (the default), or as raw
// values when format is "raw". This is the one place stored data crosses the
// API.
func (s *Session) Expand(handleName string, limit, offset int, format string) ([]lattice.Value, []string, error) {
	seq := s.registry.Get(handleName)
	if seq == nil {
		return nil, nil, mkerrors.New(mkerrors.KindUnbound, "no handle %s", handleName)
	}

	if offset < 0 {
		offset = 0
	}
	if offset > len(seq) {
		offset = len(seq)
	}
	end := len(seq)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	window := seq[offset:end]

	if format == "raw" {
		out := make([]lattice.Value, len(window))
		copy(out, window)
		return out, nil, nil
	}

	text := make([]string, len(window))
	for i, v := range window {
		text[i] = v.Text()
	}
	return nil, text, nil
}

// SearchText runs a full-text query against the document and wraps the hits
// in a handle. With relevance set, hits order by score instead of document
// order.
func (s *Session) SearchText(query string, relevance bool) (string, error) {
	if s.search == nil {
		s.search = document.NewSearch(s.doc)
	}

	var (
		hits []document.SearchHit
		err  error
	)
	if relevance {
		hits, err = s.search.QueryRelevance(query)
	} else {
		hits, err = s.search.Query(query)
	}
	if err != nil {
		return "", err
	}

	name := s.registry.WrapSearch(hits)
	s.registry.SetResults(name)
	return name, nil
}

// HandleContext emits the stub block for every live handle plus the RESULTS
// pointer line, ready for prompt assembly.
func (s *Session) HandleContext() string {
	return s.registry.BuildContext()
}

// Reset clears bindings, handles, checkpoints, caches, and counters while
// keeping the document loaded.
func (s *Session) Reset() {
	s.initState()
	s.logger.Debug("session reset", "id", s.id)
}

// Close frees the session's bindings and handles. Execute fails on a closed
// session; the other methods do not check for it.
func (s *Session) Close() {
	s.closed = true
	s.env.Reset()
	s.registry.Reset()
	s.synthEngine.Vars.Reset()
}
