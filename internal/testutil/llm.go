// Package testutil provides test doubles for the model-facing
// interfaces so pipeline and handler tests run without network access.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedGenerator returns canned responses chosen by substring match
// against the prompt. Rules are checked in order; the first match wins.
// It records every call for later assertions.
type ScriptedGenerator struct {
	mu    sync.Mutex
	rules []scriptRule
	calls []GeneratorCall
	err   error
}

type scriptRule struct {
	substring string
	response  string
}

// GeneratorCall is one recorded Generate invocation.
type GeneratorCall struct {
	System string
	Prompt string
}

// NewScriptedGenerator creates an empty ScriptedGenerator. With no
// rules it fails every call, which makes missing scripts obvious.
func NewScriptedGenerator() *ScriptedGenerator {
	return &ScriptedGenerator{}
}

// Respond registers a response for prompts containing substring. An
// empty substring matches every prompt.
func (g *ScriptedGenerator) Respond(substring, response string) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = append(g.rules, scriptRule{substring: substring, response: response})
	return g
}

// Fail makes every subsequent call return err.
func (g *ScriptedGenerator) Fail(err error) *ScriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
	return g
}

// Generate implements llm.Generator.
func (g *ScriptedGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, GeneratorCall{System: system, Prompt: prompt})
	if g.err != nil {
		return "", g.err
	}
	for _, rule := range g.rules {
		if strings.Contains(prompt, rule.substring) {
			return rule.response, nil
		}
	}
	return "", fmt.Errorf("no scripted response for prompt %q", prompt)
}

// Calls returns a copy of all recorded calls.
func (g *ScriptedGenerator) Calls() []GeneratorCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GeneratorCall(nil), g.calls...)
}

// StaticEmbedder returns the same vector for every input and counts
// calls.
type StaticEmbedder struct {
	mu     sync.Mutex
	vector []float32
	count  int
	err    error
}

// NewStaticEmbedder creates a StaticEmbedder returning vector.
func NewStaticEmbedder(vector []float32) *StaticEmbedder {
	return &StaticEmbedder{vector: vector}
}

// Fail makes every subsequent call return err.
func (e *StaticEmbedder) Fail(err error) *StaticEmbedder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
	return e
}

// Embed implements llm.Embedder.
func (e *StaticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

// Count returns the number of Embed calls so far.
func (e *StaticEmbedder) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
