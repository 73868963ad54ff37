package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// KeyResult is a named sub-target of an Objective with its own progress.
type KeyResult struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`

	// Legacy marks an entry that was stored as a bare title string. It keeps
	// that shape on write until its progress is first logged.
	Legacy bool `json:"-"`
}

// KeyResultShape tells how an objective's key results were stored.
type KeyResultShape int

const (
	// ShapeNone is an absent or null value.
	ShapeNone KeyResultShape = iota
	// ShapeArray is a list whose elements are strings or {title, progress}.
	ShapeArray
	// ShapeText is a single free-text string written by old clients.
	ShapeText
)

// KeyResults holds an objective's key results in normalized form while
// remembering the shape they were stored in.
type KeyResults struct {
	Shape KeyResultShape
	Items []KeyResult
	Text  string // only for ShapeText
}

// NewKeyResults returns an array-shaped list.
func NewKeyResults(items ...KeyResult) KeyResults {
	if items == nil {
		items = []KeyResult{}
	}
	return KeyResults{Shape: ShapeArray, Items: items}
}

// LegacyText returns the single-string form used before key results were lists.
func LegacyText(s string) KeyResults {
	return KeyResults{Shape: ShapeText, Text: s}
}

// IsArray reports whether the key results are stored as a list.
func (k KeyResults) IsArray() bool { return k.Shape == ShapeArray }

// Len is the number of addressable key results.
func (k KeyResults) Len() int {
	if !k.IsArray() {
		return 0
	}
	return len(k.Items)
}

// Clone returns a deep copy of k.
func (k KeyResults) Clone() KeyResults {
	c := k
	if k.Items != nil {
		c.Items = make([]KeyResult, len(k.Items))
		copy(c.Items, k.Items)
	}
	return c
}

type keyResultObject struct {
	ID       string `json:"id,omitempty" bson:"id,omitempty"`
	Title    string `json:"title" bson:"title"`
	Progress int    `json:"progress" bson:"progress"`
}

type keyResultInput struct {
	ID       string      `json:"id" bson:"id"`
	Title    interface{} `json:"title" bson:"title"`
	Progress interface{} `json:"progress" bson:"progress"`
}

func (in keyResultInput) normalize() KeyResult {
	return KeyResult{ID: in.ID, Title: coerceTitle(in.Title), Progress: coerceProgress(in.Progress)}
}

func (kr KeyResult) MarshalJSON() ([]byte, error) {
	if kr.Legacy {
		return json.Marshal(kr.Title)
	}
	return json.Marshal(keyResultObject{ID: kr.ID, Title: kr.Title, Progress: kr.Progress})
}

func (kr *KeyResult) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '{':
		var in keyResultInput
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("decode key result: %w", err)
		}
		*kr = in.normalize()
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode key result: %w", err)
		}
		*kr = KeyResult{Title: s, Legacy: true}
	case string(data) == "null":
		*kr = KeyResult{Legacy: true}
	default:
		// Numbers and booleans are kept verbatim as a title.
		*kr = KeyResult{Title: string(data), Legacy: true}
	}
	return nil
}

func (k KeyResults) MarshalJSON() ([]byte, error) {
	switch k.Shape {
	case ShapeText:
		return json.Marshal(k.Text)
	case ShapeArray:
		if k.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(k.Items)
	default:
		return []byte("null"), nil
	}
}

func (k *KeyResults) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*k = KeyResults{}
		return nil
	}
	switch data[0] {
	case '[':
		var items []KeyResult
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*k = NewKeyResults(items...)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = LegacyText(s)
	case '{':
		var item KeyResult
		if err := item.UnmarshalJSON(data); err != nil {
			return err
		}
		*k = NewKeyResults(item)
	default:
		return fmt.Errorf("keyResult must be a list or a string, got %s", data)
	}
	return nil
}

// MarshalBSONValue writes the key results back in their stored shape.
func (k KeyResults) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch k.Shape {
	case ShapeText:
		return bson.MarshalValue(k.Text)
	case ShapeArray:
		arr := bson.A{}
		for _, kr := range k.Items {
			if kr.Legacy {
				arr = append(arr, kr.Title)
				continue
			}
			arr = append(arr, keyResultObject{ID: kr.ID, Title: kr.Title, Progress: kr.Progress})
		}
		return bson.MarshalValue(arr)
	default:
		return bsontype.Null, nil, nil
	}
}

// UnmarshalBSONValue normalizes every stored shape into KeyResults.
func (k *KeyResults) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*k = KeyResults{}
	case bsontype.String:
		*k = LegacyText(rv.StringValue())
	case bsontype.EmbeddedDocument:
		var in keyResultInput
		if err := rv.Unmarshal(&in); err != nil {
			return fmt.Errorf("decode key result: %w", err)
		}
		*k = NewKeyResults(in.normalize())
	case bsontype.Array:
		values, err := rv.Array().Values()
		if err != nil {
			return fmt.Errorf("decode key results: %w", err)
		}
		items := make([]KeyResult, 0, len(values))
		for _, v := range values {
			switch v.Type {
			case bsontype.String:
				items = append(items, KeyResult{Title: v.StringValue(), Legacy: true})
			case bsontype.EmbeddedDocument:
				var in keyResultInput
				if err := v.Unmarshal(&in); err != nil {
					return fmt.Errorf("decode key result: %w", err)
				}
				items = append(items, in.normalize())
			default:
				items = append(items, KeyResult{Legacy: true})
			}
		}
		*k = NewKeyResults(items...)
	default:
		return fmt.Errorf("cannot decode BSON %s into key results", t)
	}
	return nil
}

// coerceProgress reads a stored progress value of any numeric or string
// type and bounds it to [0,100]. Unreadable values become 0.
func coerceProgress(v interface{}) int {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(n, "%")), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	// Clamp before converting so huge values cannot wrap around.
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= 100:
		return 100
	}
	return int(math.Round(f))
}

func coerceTitle(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
