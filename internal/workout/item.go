package workout

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type ItemType string

const (
	TypeTraining ItemType = "training"
	TypeInterval ItemType = "interval"
)

func (t ItemType) Valid() bool {
	return t == TypeTraining || t == TypeInterval
}

const (
	DefaultSets            = 3
	DefaultReps            = 10
	DefaultIntervalSeconds = 60
	DefaultIntervalLabel   = "Interval"
)

// Item is a single training or interval entry of a tab. Order among items
// of the same tab is execution order.
type Item struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type"`
	Label       string   `json:"label"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	Interval    int      `json:"interval"`
	ActiveTabID string   `json:"activeTabId"`
}

func NewID() string {
	return uuid.NewString()
}

func NewTraining(id, tabID string) Item {
	return Item{
		ID:          id,
		Type:        TypeTraining,
		Label:       "",
		Sets:        DefaultSets,
		Reps:        DefaultReps,
		Interval:    DefaultIntervalSeconds,
		ActiveTabID: tabID,
	}
}

func NewInterval(id, tabID string) Item {
	return Item{
		ID:          id,
		Type:        TypeInterval,
		Label:       DefaultIntervalLabel,
		Sets:        1,
		Reps:        1,
		Interval:    DefaultIntervalSeconds,
		ActiveTabID: tabID,
	}
}

type Field string

const (
	FieldLabel    Field = "label"
	FieldType     Field = "type"
	FieldSets     Field = "sets"
	FieldReps     Field = "reps"
	FieldInterval Field = "interval"
)

// With returns a copy of the item with field set to value, or false if
// the field is unknown or the value does not fit it.
func (i Item) With(field Field, value any) (Item, bool) {
	switch field {
	case FieldLabel:
		s, ok := value.(string)
		if !ok {
			return i, false
		}
		i.Label = s
	case FieldType:
		t, ok := typeValue(value)
		if !ok {
			return i, false
		}
		i.Type = t
	case FieldSets, FieldReps, FieldInterval:
		n, ok := nonNegativeInt(value)
		if !ok {
			return i, false
		}
		switch field {
		case FieldSets:
			i.Sets = n
		case FieldReps:
			i.Reps = n
		default:
			i.Interval = n
		}
	default:
		return i, false
	}
	return i, true
}

func typeValue(value any) (ItemType, bool) {
	var t ItemType
	switch v := value.(type) {
	case ItemType:
		t = v
	case string:
		t = ItemType(strings.ToLower(v))
	default:
		return "", false
	}
	return t, t.Valid()
}

// nonNegativeInt accepts the numeric shapes a decoded JSON body can carry.
func nonNegativeInt(value any) (int, bool) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 {
			return 0, false
		}
		n = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}
