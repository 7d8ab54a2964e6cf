// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reconcile

import (
	"context"
	"errors"

	"github.com/gogpu/gg"

	"github.com/gogpu/slidecanvas/surface"
)

// errNoLoader fails image slots when no loader is configured.
var errNoLoader = errors.New("reconcile: no image loader")

// pendingLoad is an image fetch in flight for one loading slot.
type pendingLoad struct {
	source     string
	generation uint64
	animate    bool
	cancel     context.CancelFunc
}

// loading reports whether a load for (id, source) under generation is in
// flight.
func (r *Reconciler) loading(id, source string, generation uint64) bool {
	p, ok := r.pending[id]
	return ok && p.source == source && p.generation == generation
}

// load starts fetching source for the loading slot id.
func (r *Reconciler) load(t Target, id, source string, generation uint64, animate bool) {
	if r.loading(id, source, generation) {
		return
	}
	r.drop(id)

	ctx, cancel := context.WithCancel(r.ctx)
	p := &pendingLoad{source: source, generation: generation, animate: animate, cancel: cancel}
	r.pending[id] = p

	loader, d := r.cfg.Loader, r.cfg.Dispatcher
	if d == nil {
		r.complete(t, id, p, nil, errNoLoader)
		return
	}
	if loader == nil {
		d.Post(func() { r.complete(t, id, p, nil, errNoLoader) })
		return
	}
	r.cfg.Spawn(func() {
		img, err := loader.Load(ctx, source)
		d.Post(func() { r.complete(t, id, p, img, err) })
	})
}

// drop forgets the load for id, cancelling it.
func (r *Reconciler) drop(id string) {
	if p, ok := r.pending[id]; ok {
		p.cancel()
		delete(r.pending, id)
	}
}

// complete finalizes a loading slot on the UI goroutine. The generation is
// checked before t is touched in any way.
func (r *Reconciler) complete(t Target, id string, p *pendingLoad, img *gg.ImageBuf, err error) {
	if r.pending[id] == p {
		delete(r.pending, id)
	}
	p.cancel()

	if r.cfg.Current != nil && !r.cfg.Current(p.generation) {
		r.stats.Stale++
		r.cfg.Metrics.Stale()
		r.logger.Warn("reconcile: dropping stale image completion", "id", id, "generation", p.generation)
		return
	}
	o, ok := t.Lookup(id)
	if !ok || o.Kind() != surface.KindLoading || o.Source != p.source {
		r.stats.Superseded++
		return
	}

	if err == nil && img == nil {
		err = errNoLoader
	}
	uerr := t.Update(id, func(o *surface.Object) {
		if err != nil {
			o.SetKind(surface.KindError)
			return
		}
		o.Image = img
		o.SetKind(surface.KindImage)
		if p.animate {
			o.Animate(r.cfg.Animation)
		}
	})
	if uerr != nil {
		r.logger.Warn("reconcile: cannot finalize image slot", "id", id, "err", uerr)
		return
	}
	if err != nil {
		r.stats.ImagesFailed++
		r.logger.Warn("reconcile: image failed", "id", id, "err", err)
	} else {
		r.stats.ImagesLoaded++
	}
	t.RequestRender()
}
