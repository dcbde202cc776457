package ecs

import (
	"sort"

	"github.com/milk9111/locomotion/ecs/component"
)

// intersect returns the ids present in every store, walking the smallest.
func intersect(stores ...store) []entityID {
	if len(stores) == 0 {
		return nil
	}
	smallest := 0
	for i, s := range stores {
		if s.len() < stores[smallest].len() {
			smallest = i
		}
	}
	base := stores[smallest].ids()
	out := make([]entityID, 0, len(base))
next:
	for _, id := range base {
		for i, s := range stores {
			if i != smallest && !s.has(id) {
				continue next
			}
		}
		out = append(out, id)
	}
	return out
}

func (w *World) storesFor(kinds []component.Kind) ([]store, bool) {
	if w == nil || len(kinds) == 0 {
		return nil, false
	}
	stores := make([]store, 0, len(kinds))
	for _, k := range kinds {
		if k == nil {
			return nil, false
		}
		s, ok := w.stores[k.ID()]
		if !ok {
			return nil, false
		}
		stores = append(stores, s)
	}
	return stores, true
}

// Query returns live entities carrying every kind, ordered by slot.
func (w *World) Query(kinds ...component.Kind) []Entity {
	stores, ok := w.storesFor(kinds)
	if !ok {
		return nil
	}
	ids := intersect(stores...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := w.entities.current(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// First returns the lowest-slot live entity carrying every kind.
func (w *World) First(kinds ...component.Kind) (Entity, bool) {
	ents := w.Query(kinds...)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

func First(w *World, kinds ...component.Kind) (Entity, bool) {
	return w.First(kinds...)
}
