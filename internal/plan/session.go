package plan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/2beens/gymplan/internal/tabs"
	"github.com/2beens/gymplan/internal/workout"
)

var (
	ErrTabNotFound     = errors.New("tab not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrTabLimitReached = errors.New("tab limit reached")
	ErrInvalidUpdate   = errors.New("invalid item update")
	ErrPlanUnavailable = errors.New("plan not loaded")
)

// Plan is a point-in-time copy of a session.
type Plan struct {
	Tabs        []tabs.Tab     `json:"tabs"`
	ActiveTabID string         `json:"activeTabId"`
	MaxTabs     int            `json:"maxTabs"`
	Items       []workout.Item `json:"items"`
}

// Session is the plan of one user: the ordered items, the tab registry and the
// queue of writes mirroring every change to the plan document.
type Session struct {
	userID string
	store  documentStore
	syncer *Syncer
	idGen  func() string

	mu       sync.Mutex
	items    []workout.Item
	registry *tabs.Registry
	loaded   bool
}

func newSession(userID string, store documentStore, syncer *Syncer, maxTabs int, idGen func() string) *Session {
	if idGen == nil {
		idGen = workout.NewID
	}
	return &Session{
		userID:   userID,
		store:    store,
		syncer:   syncer,
		idGen:    idGen,
		items:    []workout.Item{},
		registry: tabs.NewRegistry(maxTabs, idGen),
	}
}

func (s *Session) UserID() string {
	return s.userID
}

// load replaces the session state with a remote plan. Nothing is written back.
func (s *Session) load(tabList []tabs.Tab, items []workout.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Load(tabList)
	s.items = workout.Apply(s.items, workout.ReorderItems{Items: items})
	s.loaded = true
}

func (s *Session) isLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Session) Snapshot() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Plan{
		Tabs:        s.registry.Tabs(),
		ActiveTabID: s.registry.Active(),
		MaxTabs:     s.registry.Max(),
		Items:       slices.Clone(s.items),
	}
}

func (s *Session) Tabs() []tabs.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Tabs()
}

func (s *Session) ActiveTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Active()
}

// Items returns the items of tabID in execution order.
func (s *Session) Items(tabID string) ([]workout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.Has(tabID) {
		return nil, fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
	}
	return workout.ItemsForTab(s.items, tabID), nil
}

func (s *Session) Item(id string) (workout.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.items, func(i workout.Item) bool {
		return i.ID == id
	})
	if idx < 0 {
		return workout.Item{}, false
	}
	return s.items[idx], true
}

func (s *Session) AddTraining(tabID string) (workout.Item, error) {
	return s.addItem(workout.NewTraining(s.idGen(), tabID))
}

func (s *Session) AddInterval(tabID string) (workout.Item, error) {
	return s.addItem(workout.NewInterval(s.idGen(), tabID))
}

func (s *Session) addItem(item workout.Item) (workout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.Has(item.ActiveTabID) {
		return workout.Item{}, fmt.Errorf("%s: %w", item.ActiveTabID, ErrTabNotFound)
	}
	s.dispatch(workout.AddItem{Item: item})
	return item, nil
}

func (s *Session) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if effects := s.dispatch(workout.RemoveItem{ID: id}); len(effects) == 0 {
		return fmt.Errorf("%s: %w", id, ErrItemNotFound)
	}
	return nil
}

// UpdateItem sets one field of an item. An existing item with an unusable
// field or value is left as it was and ErrInvalidUpdate is returned.
func (s *Session) UpdateItem(id string, field workout.Field, value any) (workout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effects := s.dispatch(workout.UpdateItem{ID: id, Field: field, Value: value})
	if len(effects) == 0 {
		if !slices.ContainsFunc(s.items, func(i workout.Item) bool { return i.ID == id }) {
			return workout.Item{}, fmt.Errorf("%s: %w", id, ErrItemNotFound)
		}
		return workout.Item{}, fmt.Errorf("%s=%v: %w", field, value, ErrInvalidUpdate)
	}
	return effects[0].Item, nil
}

// ReorderTab applies a drag result inside one tab and persists the tab's new task order.
func (s *Session) ReorderTab(tabID string, orderedIDs []string) ([]workout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	if !s.registry.Has(tabID) {
		return nil, fmt.Errorf("%s: %w", tabID, ErrTabNotFound)
	}
	next, err := workout.ReorderTab(s.items, tabID, orderedIDs)
	if err != nil {
		return nil, err
	}
	s.dispatch(workout.ReorderItems{Items: next})

	tabItems := workout.ItemsForTab(s.items, tabID)
	s.syncer.Enqueue(OpReplaceTabItems, tabID, func(ctx context.Context) error {
		return s.store.ReplaceTabItems(ctx, s.userID, tabID, tabItems)
	})
	return tabItems, nil
}

func (s *Session) AddTab() (tabs.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoaded(); err != nil {
		return tabs.Tab{}, err
	}
	tab, ok := s.registry.Add()
	if !ok {
		return tabs.Tab{}, fmt.Errorf("max %d: %w", s.registry.Max(), ErrTabLimitReached)
	}
	s.syncTabs(tab.ID)
	return tab, nil
}

// DeleteTab removes the tab together with its items.
func (s *Session) DeleteTab(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoaded(); err != nil {
		return err
	}
	if !s.registry.Delete(id) {
		return fmt.Errorf("%s: %w", id, ErrTabNotFound)
	}
	s.dispatch(workout.RemoveTabItems{TabID: id})
	s.syncTabs(id)
	return nil
}

func (s *Session) RenameTab(id, title string) (tabs.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoaded(); err != nil {
		return tabs.Tab{}, err
	}
	if !s.registry.Rename(id, title) {
		return tabs.Tab{}, fmt.Errorf("%s: %w", id, ErrTabNotFound)
	}
	s.syncTabs(id)
	tab, _ := s.registry.Get(id)
	return tab, nil
}

// SetActiveTab changes the selection; it is never persisted.
func (s *Session) SetActiveTab(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.SetActive(id) {
		return fmt.Errorf("%s: %w", id, ErrTabNotFound)
	}
	return nil
}

// requireLoaded must be called with mu held. Tab list and tab order writes
// replace remote state and wait for a successful load.
func (s *Session) requireLoaded() error {
	if !s.loaded {
		return fmt.Errorf("user %s: %w", s.userID, ErrPlanUnavailable)
	}
	return nil
}

// dispatch must be called with mu held.
func (s *Session) dispatch(action workout.Action) []workout.Effect {
	next, effects := workout.Reduce(s.items, action)
	s.items = next

	for _, effect := range effects {
		item := effect.Item
		switch effect.Kind {
		case workout.EffectUpsert:
			s.syncer.Enqueue(OpUpsertItem, item.ID, func(ctx context.Context) error {
				return s.store.UpsertItem(ctx, s.userID, item)
			})
		case workout.EffectRemove:
			s.syncer.Enqueue(OpRemoveItem, item.ID, func(ctx context.Context) error {
				return s.store.RemoveItem(ctx, s.userID, item)
			})
		}
	}

	return effects
}

// syncTabs must be called with mu held.
func (s *Session) syncTabs(subject string) {
	tabList := s.registry.Tabs()
	s.syncer.Enqueue(OpReplaceTabs, subject, func(ctx context.Context) error {
		return s.store.ReplaceTabs(ctx, s.userID, tabList)
	})
}
