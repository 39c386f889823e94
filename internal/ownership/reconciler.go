// Package ownership decides which source kind owns a worker template name
// and keeps the pool consistent with the templates each source instance contributes.
//
// A name is claimed by the first kind that successfully contributes it and stays
// with that kind until the kind removes it again. Competing contributions from
// the other kind are dropped and logged, never overwritten.
package ownership

import (
	"context"
	"errors"
	"sync"

	"github.com/go-logr/logr"

	"agentpool.run/internal/workertemplate"
)

// Kind is the category of resource a worker template was declared by.
type Kind string

const (
	KindImageStream Kind = "ImageStream"
	KindConfigMap   Kind = "ConfigMap"
)

var (
	// ErrNameClaimed is reported for candidates whose name is owned by the other kind.
	ErrNameClaimed = errors.New("name claimed by another source kind")
	// ErrReservedName is reported for ImageStream candidates using a name only ConfigMaps may define.
	ErrReservedName = errors.New("name is reserved for ConfigMap definitions")
)

// ImageStreams are less specific than ConfigMap descriptors
// and must not replace these built-in agents.
var reservedNames = map[string]struct{}{
	"maven":  {},
	"nodejs": {},
}

// IsReservedName reports whether name can only be contributed by ConfigMaps.
func IsReservedName(name string) bool {
	_, ok := reservedNames[name]
	return ok
}

// Gateway is the view of the scheduler pool the Reconciler mutates.
type Gateway interface {
	Contains(name, image string) bool
	Add(t workertemplate.WorkerTemplate)
	Remove(name string) bool
}

type conflictRecorder interface {
	RecordConflict(kind string)
}

// ClaimResult is the outcome of a Claim.
type ClaimResult struct {
	Granted bool
	// Owner of the name after the call.
	HeldBy Kind
}

// BatchOptions modify ReconcileBatch.
type BatchOptions struct {
	// TrackOnly claims and tracks candidates without touching the pool.
	TrackOnly bool
}

// Rejection names a candidate ReconcileBatch dropped.
type Rejection struct {
	Name   string
	HeldBy Kind
	Reason error
}

// BatchResult summarizes one ReconcileBatch call.
type BatchResult struct {
	// Templates now tracked for the instance, in candidate order.
	Accepted []workertemplate.WorkerTemplate
	// Candidates that were already live with the same image.
	Unchanged []string
	Rejected  []Rejection
	// Names no longer contributed by the instance that were removed from the pool.
	Removed []string
}

// PurgeResult summarizes one Purge call.
type PurgeResult struct {
	Removed []string
	// Names tracked for the instance that were owned by another kind.
	Skipped []string
}

// Reconciler owns the claim table and the per-instance tracking table.
// All methods are safe for concurrent use.
type Reconciler struct {
	log      logr.Logger
	pool     Gateway
	recorder conflictRecorder

	mu sync.Mutex
	// template name -> owning kind
	owners map[string]Kind
	// source instance id -> templates contributed by it
	tracked map[string][]workertemplate.WorkerTemplate
}

type Option func(r *Reconciler)

// WithRecorder counts rejected candidates.
func WithRecorder(recorder conflictRecorder) Option {
	return func(r *Reconciler) {
		r.recorder = recorder
	}
}

func NewReconciler(log logr.Logger, pool Gateway, opts ...Option) *Reconciler {
	r := &Reconciler{
		log:     log,
		pool:    pool,
		owners:  map[string]Kind{},
		tracked: map[string][]workertemplate.WorkerTemplate{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Claim attributes name to kind unless the other kind holds it already.
// Claiming a name twice for the same kind is a no-op.
func (r *Reconciler) Claim(name string, kind Kind) ClaimResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(name, kind)
}

// Release drops the claim on name if kind holds it and reports whether it did.
func (r *Reconciler) Release(name string, kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releaseLocked(r.log, name, kind)
}

// Owner returns the kind currently holding name.
func (r *Reconciler) Owner(name string) (Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind, ok := r.owners[name]
	return kind, ok
}

// Tracked returns the templates currently tracked for a source instance.
func (r *Reconciler) Tracked(instanceID string) []workertemplate.WorkerTemplate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workertemplate.WorkerTemplate(nil), r.tracked[instanceID]...)
}

// ClaimCounts returns the number of claimed names per kind.
func (r *Reconciler) ClaimCounts() map[Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[Kind]int{
		KindImageStream: 0,
		KindConfigMap:   0,
	}
	for _, kind := range r.owners {
		counts[kind]++
	}
	return counts
}

// ReconcileBatch makes candidates the complete set of templates contributed by instanceID.
// Candidates that pass the ownership checks are upserted into the pool and tracked.
// Templates tracked for instanceID before the call that are not accepted again
// are removed from the pool and released, as long as kind still owns them.
func (r *Reconciler) ReconcileBatch(
	ctx context.Context, kind Kind, instanceID string,
	candidates []workertemplate.WorkerTemplate, opts BatchOptions,
) BatchResult {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", kind, "instance", instanceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	res := BatchResult{}
	acceptedIndex := map[string]int{}
	accept := func(t workertemplate.WorkerTemplate) {
		if i, ok := acceptedIndex[t.Name]; ok {
			res.Accepted[i] = t
			return
		}
		acceptedIndex[t.Name] = len(res.Accepted)
		res.Accepted = append(res.Accepted, t)
	}

	for _, candidate := range candidates {
		name := candidate.Name

		if kind == KindImageStream && IsReservedName(name) {
			log.Info("ignoring worker template, name is reserved for ConfigMaps", "template", name)
			res.Rejected = append(res.Rejected, Rejection{Name: name, Reason: ErrReservedName})
			r.recordConflict(kind)
			continue
		}

		// ImageStreams produce lots of events that do not change the image,
		// skip them to avoid remove/add churn in the pool.
		if kind == KindImageStream && r.pool.Contains(name, candidate.Image) {
			if r.owners[name] == kind {
				accept(candidate)
			}
			res.Unchanged = append(res.Unchanged, name)
			continue
		}

		if claim := r.claimLocked(name, kind); !claim.Granted {
			log.Info("ignoring worker template, another source kind created a template with the same name",
				"template", name, "owner", claim.HeldBy)
			res.Rejected = append(res.Rejected, Rejection{Name: name, HeldBy: claim.HeldBy, Reason: ErrNameClaimed})
			r.recordConflict(kind)
			continue
		}

		if !opts.TrackOnly {
			r.pool.Add(candidate)
		}
		accept(candidate)
	}

	for _, previous := range r.tracked[instanceID] {
		if _, ok := acceptedIndex[previous.Name]; ok {
			continue
		}
		if r.releaseLocked(log, previous.Name, kind) {
			if !opts.TrackOnly {
				r.pool.Remove(previous.Name)
			}
			res.Removed = append(res.Removed, previous.Name)
		}
	}

	if len(res.Accepted) == 0 {
		delete(r.tracked, instanceID)
	} else {
		r.tracked[instanceID] = res.Accepted
	}
	return res
}

// Purge removes every template tracked for instanceID that kind still owns
// from the pool and releases its claim. The tracking entry is always dropped.
func (r *Reconciler) Purge(ctx context.Context, kind Kind, instanceID string) PurgeResult {
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", kind, "instance", instanceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	res := PurgeResult{}
	tracked, ok := r.tracked[instanceID]
	if !ok {
		return res
	}

	log.Info("purging worker templates", "count", len(tracked))
	for _, t := range tracked {
		if !r.releaseLocked(log, t.Name, kind) {
			res.Skipped = append(res.Skipped, t.Name)
			continue
		}
		r.pool.Remove(t.Name)
		res.Removed = append(res.Removed, t.Name)
	}
	delete(r.tracked, instanceID)
	return res
}

func (r *Reconciler) claimLocked(name string, kind Kind) ClaimResult {
	owner, ok := r.owners[name]
	switch {
	case !ok:
		r.owners[name] = kind
		return ClaimResult{Granted: true, HeldBy: kind}
	case owner == kind:
		return ClaimResult{Granted: true, HeldBy: kind}
	default:
		return ClaimResult{Granted: false, HeldBy: owner}
	}
}

func (r *Reconciler) releaseLocked(log logr.Logger, name string, kind Kind) bool {
	owner, ok := r.owners[name]
	if !ok || owner != kind {
		log.Info("not removing worker template, it is not owned by this source kind",
			"template", name, "owner", owner)
		return false
	}
	delete(r.owners, name)
	return true
}

func (r *Reconciler) recordConflict(kind Kind) {
	if r.recorder != nil {
		r.recorder.RecordConflict(string(kind))
	}
}
