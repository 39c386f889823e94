// Package pool holds the live set of worker templates the scheduler provisions agents from.
package pool

import (
	"container/list"
	"sync"

	"github.com/go-logr/logr"

	"agentpool.run/internal/workertemplate"
)

// Pool is an ordered collection of worker templates keyed by name.
// All methods are safe for concurrent use.
type Pool struct {
	log logr.Logger

	mu     sync.RWMutex
	order  *list.List
	byName map[string]*list.Element
}

func New(log logr.Logger) *Pool {
	return &Pool{
		log:    log,
		order:  list.New(),
		byName: map[string]*list.Element{},
	}
}

// List returns a copy of all templates in insertion order.
func (p *Pool) List() []workertemplate.WorkerTemplate {
	p.mu.RLock()
	defer p.mu.RUnlock()

	templates := make([]workertemplate.WorkerTemplate, 0, p.order.Len())
	for e := p.order.Front(); e != nil; e = e.Next() {
		templates = append(templates, e.Value.(workertemplate.WorkerTemplate))
	}
	return templates
}

// Get returns the template with the given name.
func (p *Pool) Get(name string) (workertemplate.WorkerTemplate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.byName[name]
	if !ok {
		return workertemplate.WorkerTemplate{}, false
	}
	return e.Value.(workertemplate.WorkerTemplate), true
}

// Contains reports whether a template with this name and image is live.
func (p *Pool) Contains(name, image string) bool {
	if len(name) == 0 || len(image) == 0 {
		return false
	}
	t, ok := p.Get(name)
	return ok && t.SameImage(name, image)
}

// Add inserts the template at the end of the pool,
// replacing any template with the same name.
func (p *Pool) Add(t workertemplate.WorkerTemplate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removeLocked(t.Name)
	p.byName[t.Name] = p.order.PushBack(t)
	p.log.Info("added worker template", "name", t.Name, "image", t.Image, "label", t.Label)
}

// Remove deletes the template with the given name and reports whether it existed.
func (p *Pool) Remove(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.removeLocked(name) {
		return false
	}
	p.log.Info("removed worker template", "name", name)
	return true
}

// Len returns the number of live templates.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.order.Len()
}

func (p *Pool) removeLocked(name string) bool {
	e, ok := p.byName[name]
	if !ok {
		return false
	}
	p.order.Remove(e)
	delete(p.byName, name)
	return true
}
