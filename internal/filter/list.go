package filter

import (
	"errors"
	"fmt"
)

// List is the ordered filter list. Order is display order only. Methods
// never modify the receiver; edits return a new list so a snapshot handed
// to a reader stays valid.
type List []Item

// Set upserts item by ID: an item with the same ID is replaced in place,
// otherwise item is appended.
func (l List) Set(item Item) List {
	out := l.Clone()
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item.Clone()
			return out
		}
	}
	return append(out, item.Clone())
}

// Delete removes the item with the given ID.
func (l List) Delete(id int) List {
	out := make(List, 0, len(l))
	for _, it := range l {
		if it.ID != id {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Find returns the item with the given ID.
func (l List) Find(id int) (Item, bool) {
	for _, it := range l {
		if it.ID == id {
			return it.Clone(), true
		}
	}
	return Item{}, false
}

// NextID returns an ID not used by any item.
func (l List) NextID() int {
	next := 1
	for _, it := range l {
		if it.ID >= next {
			next = it.ID + 1
		}
	}
	return next
}

// InNamespace returns the items whose data field is in ns.
func (l List) InNamespace(ns Namespace) List {
	var out List
	for _, it := range l {
		if it.Namespace() == ns {
			out = append(out, it)
		}
	}
	return out
}

// Clone deep-copies the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, it := range l {
		out[i] = it.Clone()
	}
	return out
}

// Validate joins the validation errors of every item and reports
// duplicate IDs.
func (l List) Validate() error {
	var errs []error
	seen := make(map[int]bool, len(l))
	for _, it := range l {
		if seen[it.ID] {
			errs = append(errs, fmt.Errorf("duplicate filter id %d", it.ID))
		}
		seen[it.ID] = true
		if err := it.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
