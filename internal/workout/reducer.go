package workout

import (
	"errors"
	"slices"
)

var ErrInvalidOrder = errors.New("ordering is not a permutation of the tab items")

type Action interface {
	Name() string
}

type AddItem struct {
	Item Item
}

type RemoveItem struct {
	ID string
}

type UpdateItem struct {
	ID    string
	Field Field
	Value any
}

// ReorderItems replaces the whole list. Used for drag results and bulk loads,
// so it never implies a store write.
type ReorderItems struct {
	Items []Item
}

// RemoveTabItems drops every item of a deleted tab.
type RemoveTabItems struct {
	TabID string
}

func (AddItem) Name() string        { return "add_item" }
func (RemoveItem) Name() string     { return "remove_item" }
func (UpdateItem) Name() string     { return "update_item" }
func (ReorderItems) Name() string   { return "reorder_items" }
func (RemoveTabItems) Name() string { return "remove_tab_items" }

type EffectKind int

const (
	EffectUpsert EffectKind = iota + 1
	EffectRemove
)

func (k EffectKind) String() string {
	switch k {
	case EffectUpsert:
		return "upsert_item"
	case EffectRemove:
		return "remove_item"
	default:
		return "unknown"
	}
}

// Effect is a store write implied by an action.
type Effect struct {
	Kind EffectKind
	Item Item
}

// Reduce returns the next state for action along with the store effects it implies.
// The input slice is never modified.
func Reduce(state []Item, action Action) ([]Item, []Effect) {
	switch a := action.(type) {
	case AddItem:
		if a.Item.ID == "" || indexOf(state, a.Item.ID) >= 0 {
			return slices.Clone(state), nil
		}
		next := make([]Item, 0, len(state)+1)
		next = append(next, state...)
		next = append(next, a.Item)
		return next, []Effect{{Kind: EffectUpsert, Item: a.Item}}

	case RemoveItem:
		idx := indexOf(state, a.ID)
		if idx < 0 {
			return slices.Clone(state), nil
		}
		removed := state[idx]
		next := make([]Item, 0, len(state)-1)
		next = append(next, state[:idx]...)
		next = append(next, state[idx+1:]...)
		return next, []Effect{{Kind: EffectRemove, Item: removed}}

	case UpdateItem:
		next := slices.Clone(state)
		idx := indexOf(next, a.ID)
		if idx < 0 {
			return next, nil
		}
		merged, ok := next[idx].With(a.Field, a.Value)
		if !ok {
			return next, nil
		}
		next[idx] = merged
		return next, []Effect{{Kind: EffectUpsert, Item: merged}}

	case ReorderItems:
		return slices.Clone(a.Items), nil

	case RemoveTabItems:
		next := make([]Item, 0, len(state))
		for _, item := range state {
			if item.ActiveTabID != a.TabID {
				next = append(next, item)
			}
		}
		return next, nil

	default:
		return slices.Clone(state), nil
	}
}

// Apply is Reduce without the effects.
func Apply(state []Item, action Action) []Item {
	next, _ := Reduce(state, action)
	return next
}

// ItemsForTab returns the items of tabID in execution order.
func ItemsForTab(state []Item, tabID string) []Item {
	items := make([]Item, 0)
	for _, item := range state {
		if item.ActiveTabID == tabID {
			items = append(items, item)
		}
	}
	return items
}

// ReorderTab returns the full list with the items of tabID put in orderedIDs order.
// Slots held by the tab keep their positions, so items of other tabs are untouched.
func ReorderTab(state []Item, tabID string, orderedIDs []string) ([]Item, error) {
	var slots []int
	byID := make(map[string]Item)
	for idx, item := range state {
		if item.ActiveTabID == tabID {
			slots = append(slots, idx)
			byID[item.ID] = item
		}
	}
	if len(orderedIDs) != len(slots) {
		return nil, ErrInvalidOrder
	}

	next := slices.Clone(state)
	seen := make(map[string]bool, len(orderedIDs))
	for i, id := range orderedIDs {
		item, ok := byID[id]
		if !ok || seen[id] {
			return nil, ErrInvalidOrder
		}
		seen[id] = true
		next[slots[i]] = item
	}
	return next, nil
}

func indexOf(state []Item, id string) int {
	return slices.IndexFunc(state, func(item Item) bool {
		return item.ID == id
	})
}
