package widget

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ID uniquely identifies a widget across every page of a document.
// Generated ids carry their kind as a prefix ("text-<uuid>").
type ID string

// Kind identifies the schema a widget's data follows.
type Kind string

const (
	KindText           Kind = "text"
	KindImage          Kind = "image"
	KindShape          Kind = "shape"
	KindIcon           Kind = "icon"
	KindLine           Kind = "line"
	KindChart          Kind = "chart"
	KindGroup          Kind = "group"
	KindResponsiveText Kind = "responsiveText"
)

// Kinds returns every widget kind known to this build, in a stable order.
// The migrator refuses to start unless each of them has an upgrade chain.
func Kinds() []Kind {
	return []Kind{
		KindText, KindImage, KindShape, KindIcon,
		KindLine, KindChart, KindGroup, KindResponsiveText,
	}
}

// Valid reports whether k is a known widget kind.
func (k Kind) Valid() bool { return slices.Contains(Kinds(), k) }

// IsComposite reports whether widgets of this kind own member widgets.
func (k Kind) IsComposite() bool { return k == KindGroup || k == KindResponsiveText }

// IsResponsive reports whether the kind addresses members by named slot.
func (k Kind) IsResponsive() bool { return k == KindResponsiveText }

// Field names shared by every widget kind.
const (
	FieldType       = "type"
	FieldVersion    = "version"
	FieldX          = "x"
	FieldY          = "y"
	FieldWidth      = "width"
	FieldHeight     = "height"
	FieldIsLocked   = "isLocked"
	FieldIsHidden   = "isHidden"
	FieldMembers    = "memberWidgetIds"
	FieldComponents = "componentWidgetIdMap"
)

// Data is the persisted, schema-versioned state of one widget.
//
// It is kept as a generic JSON object because its shape changes between
// schema versions and the migrator must be able to read shapes that no
// longer have a Go type. Data values are treated as immutable once they are
// stored in a document: code that needs to change one works on a Clone.
type Data map[string]any

// Kind returns the widget kind recorded in the "type" field.
func (d Data) Kind() Kind {
	s, _ := d[FieldType].(string)
	return Kind(s)
}

// Version returns the schema version. A missing or malformed field is the
// implicit baseline version 1.
func (d Data) Version() int {
	if v, ok := toFloat(d[FieldVersion]); ok && v >= 1 {
		return int(v)
	}
	return 1
}

// SetVersion records the schema version.
func (d Data) SetVersion(v int) { d[FieldVersion] = v }

// IsHidden reports the "isHidden" flag.
func (d Data) IsHidden() bool {
	b, _ := d[FieldIsHidden].(bool)
	return b
}

// IsLocked reports the "isLocked" flag.
func (d Data) IsLocked() bool {
	b, _ := d[FieldIsLocked].(bool)
	return b
}

// Float returns a numeric field, or 0 when absent.
func (d Data) Float(key string) float64 {
	v, _ := toFloat(d[key])
	return v
}

// Str returns a string field, or "" when absent.
func (d Data) Str(key string) string {
	s, _ := d[key].(string)
	return s
}

// MemberIDs returns the ordered member list of a composite widget.
// Non-composite widgets return nil.
func (d Data) MemberIDs() []ID {
	return toIDs(d[FieldMembers])
}

// SetMemberIDs replaces the member list.
func (d Data) SetMemberIDs(ids []ID) {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	d[FieldMembers] = out
}

// Components returns the slot-name to member-id map of a responsive composite.
func (d Data) Components() map[string]ID {
	raw, ok := d[FieldComponents]
	if !ok {
		return nil
	}
	out := map[string]ID{}
	switch m := raw.(type) {
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = ID(s)
			}
		}
	case map[string]string:
		for k, v := range m {
			out[k] = ID(v)
		}
	case map[string]ID:
		maps.Copy(out, m)
	}
	return out
}

// SetComponents replaces the slot map.
func (d Data) SetComponents(slots map[string]ID) {
	out := make(map[string]any, len(slots))
	for k, v := range slots {
		out[k] = string(v)
	}
	d[FieldComponents] = out
}

// SlotOf returns the slot name a member occupies, if any.
func (d Data) SlotOf(member ID) (string, bool) {
	comps := d.Components()
	for _, slot := range slices.Sorted(maps.Keys(comps)) {
		if comps[slot] == member {
			return slot, true
		}
	}
	return "", false
}

// Clone returns a deep copy. Nested maps and slices are copied so the clone
// can be modified without affecting d.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return Data(cloneMap(d))
}

// MarshalJSON keeps the zero value encoding as an empty object.
func (d Data) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(d))
}

// NewID generates a fresh, kind-prefixed widget id.
func NewID(kind Kind) ID {
	return ID(string(kind) + "-" + uuid.NewString())
}

// derivedNamespace seeds DerivedID so the same parent and slot always yield
// the same id.
var derivedNamespace = uuid.MustParse("6b1f3f0e-4c55-4a8e-9a3e-2f8d5c7b9e10")

// DerivedID returns a deterministic id for a widget synthesized from a
// parent widget, such as a member made explicit during migration.
func DerivedID(kind Kind, parent ID, slot string) ID {
	u := uuid.NewSHA1(derivedNamespace, []byte(string(parent)+"/"+slot))
	return ID(string(kind) + "-" + u.String())
}

// KindFromID extracts the kind prefix of a generated id.
func KindFromID(id ID) Kind {
	prefix, _, ok := strings.Cut(string(id), "-")
	if !ok {
		return ""
	}
	return Kind(prefix)
}

// Bounds returns the union rectangle of the given widgets' frames.
func Bounds(widgets ...Data) (x, y, w, h float64) {
	if len(widgets) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, d := range widgets {
		x0, y0 := d.Float(FieldX), d.Float(FieldY)
		minX, minY = math.Min(minX, x0), math.Min(minY, y0)
		maxX = math.Max(maxX, x0+d.Float(FieldWidth))
		maxY = math.Max(maxY, y0+d.Float(FieldHeight))
	}
	return minX, minY, maxX - minX, maxY - minY
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toIDs(v any) []ID {
	switch s := v.(type) {
	case []any:
		out := make([]ID, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, ID(str))
			}
		}
		return out
	case []string:
		out := make([]ID, len(s))
		for i, e := range s {
			out[i] = ID(e)
		}
		return out
	case []ID:
		return slices.Clone(s)
	}
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Data:
		return Data(cloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []ID:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	}
	return v
}
