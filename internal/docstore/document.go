package docstore

import (
	"strings"

	"github.com/2beens/gymplan/internal/tabs"
	"github.com/2beens/gymplan/internal/workout"
)

// Document is the durable per-user plan: {tabs: [{id, title, tasks: [...]}]}.
type Document struct {
	Tabs []TabRecord `json:"tabs"`
}

type TabRecord struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Tasks []TaskRecord `json:"tasks"`
}

// TaskRecord is a workout item on the wire; its tab is implied by the containing TabRecord.
type TaskRecord struct {
	ID       string           `json:"id"`
	Type     workout.ItemType `json:"type"`
	Label    string           `json:"label"`
	Sets     int              `json:"sets"`
	Reps     int              `json:"reps"`
	Interval int              `json:"interval"`
}

// Key addresses one plan document in a backend.
type Key string

// Config holds the identifiers plan documents are stored under.
type Config struct {
	UserCollection        string
	WorkoutsSubcollection string
	DocumentID            string
	MaxConflictRetries    int
}

func DefaultConfig() Config {
	return Config{
		UserCollection:        "users",
		WorkoutsSubcollection: "workouts",
		DocumentID:            "plan",
		MaxConflictRetries:    3,
	}
}

func (c Config) Key(userID string) Key {
	return Key(strings.Join([]string{c.UserCollection, userID, c.WorkoutsSubcollection, c.DocumentID}, "/"))
}

func TaskFromItem(item workout.Item) TaskRecord {
	return TaskRecord{
		ID:       item.ID,
		Type:     item.Type,
		Label:    item.Label,
		Sets:     item.Sets,
		Reps:     item.Reps,
		Interval: item.Interval,
	}
}

func (t TaskRecord) Item(tabID string) workout.Item {
	return workout.Item{
		ID:          t.ID,
		Type:        t.Type,
		Label:       t.Label,
		Sets:        t.Sets,
		Reps:        t.Reps,
		Interval:    t.Interval,
		ActiveTabID: tabID,
	}
}

func (d *Document) TabList() []tabs.Tab {
	list := make([]tabs.Tab, 0, len(d.Tabs))
	for _, t := range d.Tabs {
		list = append(list, tabs.Tab{ID: t.ID, Title: t.Title})
	}
	return list
}

// Items flattens all tasks, tab by tab, keeping each tab's order.
func (d *Document) Items() []workout.Item {
	var items []workout.Item
	for _, t := range d.Tabs {
		for _, task := range t.Tasks {
			items = append(items, task.Item(t.ID))
		}
	}
	return items
}

func (d *Document) tab(id string) *TabRecord {
	for i := range d.Tabs {
		if d.Tabs[i].ID == id {
			return &d.Tabs[i]
		}
	}
	return nil
}
