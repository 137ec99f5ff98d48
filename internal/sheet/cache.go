// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sheet

import (
	"sync"

	"nickandperla.net/sheetcalc/internal/program"
)

// Compiled is a cached compile result.
type Compiled struct {
	Program program.Program
	Err     error
}

// ProgramCache is a thread-safe map from formula text to its compile
// result. Programs hold no grid state, so one entry serves every cell with
// the same formula.
type ProgramCache struct {
	mu    sync.RWMutex
	store map[string]Compiled
}

// NewProgramCache creates an empty cache.
func NewProgramCache() *ProgramCache {
	return &ProgramCache{
		store: make(map[string]Compiled),
	}
}

// Get returns the cached compile result for formula.
func (p *ProgramCache) Get(formula string) (Compiled, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.store[formula]
	return c, ok
}

// Set records the compile result for formula.
func (p *ProgramCache) Set(formula string, prog program.Program, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store[formula] = Compiled{Program: prog, Err: err}
}

// Len returns the number of cached formulas.
func (p *ProgramCache) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.store)
}
