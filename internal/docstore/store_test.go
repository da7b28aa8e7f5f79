package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2beens/gymplan/internal/docstore"
	"github.com/2beens/gymplan/internal/tabs"
	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/workout"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testUserID = "user-1"

func itemIDs(items []workout.Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestStore_PlanLifecycle(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewStore(docstore.NewMemoryBackend(), docstore.DefaultConfig(), nil)

	// missing document reads as an empty plan
	tabList, items, err := store.FetchPlan(ctx, testUserID)
	require.NoError(t, err)
	assert.Empty(t, tabList)
	assert.Empty(t, items)

	// item writes need an existing document
	err = store.UpsertItem(ctx, testUserID, workout.NewTraining("a", "t1"))
	require.ErrorIs(t, err, docstore.ErrDocumentNotFound)
	// removing from a missing document is a no-op
	require.NoError(t, store.RemoveItem(ctx, testUserID, workout.NewTraining("a", "t1")))

	require.NoError(t, store.ReplaceTabs(ctx, testUserID, []tabs.Tab{
		{ID: "t1", Title: "Tab 1"},
		{ID: "t2", Title: "Tab 2"},
	}))

	err = store.UpsertItem(ctx, testUserID, workout.NewTraining("z", "t9"))
	require.ErrorIs(t, err, docstore.ErrTabNotFound)

	squat := workout.NewTraining("a", "t1")
	squat.Label = "Squat"
	require.NoError(t, store.UpsertItem(ctx, testUserID, squat))
	require.NoError(t, store.UpsertItem(ctx, testUserID, workout.NewInterval("b", "t1")))
	require.NoError(t, store.UpsertItem(ctx, testUserID, workout.NewTraining("c", "t2")))

	squat.Reps = 12
	require.NoError(t, store.UpsertItem(ctx, testUserID, squat))

	t1Items, err := store.FetchWorkoutItems(ctx, testUserID, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, itemIDs(t1Items))
	assert.Equal(t, 12, t1Items[0].Reps)
	assert.Equal(t, "t1", t1Items[0].ActiveTabID)

	// reorder persistence
	require.NoError(t, store.ReplaceTabItems(ctx, testUserID, "t1", []workout.Item{t1Items[1], t1Items[0]}))
	t1Items, err = store.FetchWorkoutItems(ctx, testUserID, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, itemIDs(t1Items))

	require.NoError(t, store.RemoveItem(ctx, testUserID, squat))
	// already gone
	require.NoError(t, store.RemoveItem(ctx, testUserID, squat))
	t1Items, err = store.FetchWorkoutItems(ctx, testUserID, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, itemIDs(t1Items))

	// rename t2, drop t1, add t3
	require.NoError(t, store.ReplaceTabs(ctx, testUserID, []tabs.Tab{
		{ID: "t2", Title: "Pull"},
		{ID: "t3", Title: "Tab 3"},
	}))

	tabList, items, err = store.FetchPlan(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, []tabs.Tab{{ID: "t2", Title: "Pull"}, {ID: "t3", Title: "Tab 3"}}, tabList)
	assert.Equal(t, []string{"c"}, itemIDs(items))

	unknown, err := store.FetchWorkoutItems(ctx, testUserID, "t1")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestStore_UsesInjectedIdentifiers(t *testing.T) {
	ctx := context.Background()
	backend := docstore.NewMemoryBackend()
	cfg := docstore.Config{
		UserCollection:        "members",
		WorkoutsSubcollection: "routines",
		DocumentID:            "current",
		MaxConflictRetries:    1,
	}
	store := docstore.NewStore(backend, cfg, nil)

	require.NoError(t, store.ReplaceTabs(ctx, "u9", []tabs.Tab{{ID: "t1", Title: "Tab 1"}}))

	keys, err := backend.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []docstore.Key{"members/u9/routines/current"}, keys)
}

// racingBackend lets another writer commit right before the first save.
type racingBackend struct {
	*docstore.MemoryBackend
	raced bool
	race  func()
}

func (b *racingBackend) Save(ctx context.Context, key docstore.Key, doc *docstore.Document, expectedVersion int64) (int64, error) {
	if !b.raced {
		b.raced = true
		b.race()
	}
	return b.MemoryBackend.Save(ctx, key, doc, expectedVersion)
}

func TestStore_ConcurrentWriterSurvives(t *testing.T) {
	ctx := context.Background()
	memory := docstore.NewMemoryBackend()
	other := docstore.NewStore(memory, docstore.DefaultConfig(), nil)
	require.NoError(t, other.ReplaceTabs(ctx, testUserID, []tabs.Tab{
		{ID: "t1", Title: "Tab 1"},
		{ID: "t2", Title: "Tab 2"},
	}))

	metricsManager := metrics.NewTestManager()
	backend := &racingBackend{
		MemoryBackend: memory,
		race: func() {
			require.NoError(t, other.UpsertItem(ctx, testUserID, workout.NewTraining("from-other", "t2")))
		},
	}
	store := docstore.NewStore(backend, docstore.DefaultConfig(), metricsManager)

	// tab rename computed from a stale read must not lose the other writer's task
	require.NoError(t, store.ReplaceTabs(ctx, testUserID, []tabs.Tab{
		{ID: "t1", Title: "Push"},
		{ID: "t2", Title: "Tab 2"},
	}))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterVersionConflicts))

	tabList, items, err := store.FetchPlan(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "Push", tabList[0].Title)
	assert.Equal(t, []string{"from-other"}, itemIDs(items))
}

func TestStore_ConflictRetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := NewMockBackend(ctrl)
	cfg := docstore.DefaultConfig()
	cfg.MaxConflictRetries = 2
	metricsManager := metrics.NewTestManager()
	store := docstore.NewStore(backend, cfg, metricsManager)

	key := cfg.Key(testUserID)
	backend.EXPECT().
		Load(gomock.Any(), key).
		DoAndReturn(func(context.Context, docstore.Key) (*docstore.Document, int64, error) {
			return &docstore.Document{Tabs: []docstore.TabRecord{{ID: "t1", Title: "Tab 1"}}}, 4, nil
		}).
		Times(3)
	backend.EXPECT().
		Save(gomock.Any(), key, gomock.Any(), int64(4)).
		Return(int64(0), docstore.ErrVersionConflict).
		Times(3)

	err := store.UpsertItem(context.Background(), testUserID, workout.NewTraining("a", "t1"))
	require.ErrorIs(t, err, docstore.ErrVersionConflict)
	assert.Equal(t, float64(3), testutil.ToFloat64(metricsManager.CounterVersionConflicts))
}

func TestStore_BackendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := NewMockBackend(ctrl)
	cfg := docstore.DefaultConfig()
	store := docstore.NewStore(backend, cfg, nil)
	key := cfg.Key(testUserID)
	unreachable := errors.New("store unreachable")

	backend.EXPECT().Load(gomock.Any(), key).Return(nil, int64(0), unreachable)
	_, _, err := store.FetchPlan(context.Background(), testUserID)
	require.ErrorIs(t, err, unreachable)

	backend.EXPECT().Load(gomock.Any(), key).Return(nil, int64(0), unreachable)
	err = store.ReplaceTabs(context.Background(), testUserID, nil)
	require.ErrorIs(t, err, unreachable)

	backend.EXPECT().Load(gomock.Any(), key).Return(nil, int64(0), docstore.ErrDocumentNotFound)
	backend.EXPECT().Save(gomock.Any(), key, gomock.Any(), int64(0)).Return(int64(0), unreachable)
	err = store.ReplaceTabs(context.Background(), testUserID, []tabs.Tab{{ID: "t1", Title: "Tab 1"}})
	require.ErrorIs(t, err, unreachable)

	// unchanged upsert skips the write
	backend.EXPECT().Load(gomock.Any(), key).Return(&docstore.Document{Tabs: []docstore.TabRecord{{
		ID:    "t1",
		Title: "Tab 1",
		Tasks: []docstore.TaskRecord{docstore.TaskFromItem(workout.NewTraining("a", "t1"))},
	}}}, int64(2), nil)
	require.NoError(t, store.UpsertItem(context.Background(), testUserID, workout.NewTraining("a", "t1")))
}
