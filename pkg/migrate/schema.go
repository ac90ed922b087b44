package migrate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/devtoc/infograph/pkg/widget"
)

// Field names of older schema versions.
const (
	legacyGroupMembers = "members"
	legacyInlineLabel  = "label"
)

// SlotLabel is the responsive text slot holding the explicit label widget.
const SlotLabel = "label"

// Default returns the built-in upgrade chains for every widget kind.
func Default() Config {
	return Config{
		widget.KindText: {Latest: 3, Steps: []Step{
			{Version: 2, Upgrade: textStyleObject},
			{Version: 3, Upgrade: textLineHeight},
		}},
		widget.KindImage: {Latest: 2, Steps: []Step{
			{Version: 2, Upgrade: imageSource},
		}},
		widget.KindShape: {Latest: 2, Steps: []Step{
			{Version: 2, Upgrade: shapeFill},
		}},
		widget.KindIcon: {Latest: 1},
		widget.KindLine: {Latest: 3, Steps: []Step{
			{Version: 2, Upgrade: lineEndpoints},
			{Version: 3, Upgrade: lineArrowheads},
		}},
		widget.KindChart: {Latest: 5, Steps: []Step{
			{Version: 2, Upgrade: chartPalette},
			{Version: 3, Upgrade: chartLegend},
			{Version: 4, Upgrade: chartDescription},
			{Version: 5, Upgrade: chartValueLabels},
		}},
		widget.KindGroup: {Latest: 2, Steps: []Step{
			{Version: 2, Upgrade: groupMemberIDs},
		}},
		widget.KindResponsiveText: {Latest: 3, Steps: []Step{
			{Version: 2, Upgrade: responsiveSlots},
			{Version: 3, Upgrade: responsiveLabel},
		}},
	}
}

// Text

func textStyleObject(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	style := object(w, "style")
	for _, k := range []string{"color", "fontSize", "fontFamily"} {
		if v, ok := w[k]; ok {
			style[k] = v
			delete(w, k)
		}
	}
	w["style"] = style
	return nil, nil
}

func textLineHeight(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	style := object(w, "style")
	if _, ok := style["lineHeight"]; !ok {
		style["lineHeight"] = 1.2
	}
	w["style"] = style
	return nil, nil
}

// Image

func imageSource(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	img := object(w, "image")
	if src, ok := w["src"]; ok {
		img["src"] = src
		delete(w, "src")
	}
	alt, _ := w["alt"].(string)
	delete(w, "alt")
	if _, ok := img["altText"]; !ok {
		img["altText"] = alt
	}
	w["image"] = img
	return nil, nil
}

// Shape

func shapeFill(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	switch fill := w["fill"].(type) {
	case string:
		w["fill"] = map[string]any{"color": fill, "opacity": 1.0}
	case nil:
		w["fill"] = map[string]any{"color": "transparent", "opacity": 1.0}
	case map[string]any:
	default:
		return nil, fmt.Errorf("fill has unexpected type %T", fill)
	}
	return nil, nil
}

// Line

func lineEndpoints(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	raw, ok := w["points"]
	if !ok {
		return nil, nil
	}
	pts, ok := raw.([]any)
	if !ok || len(pts) < 2 {
		return nil, fmt.Errorf("points must hold at least two coordinates")
	}
	start, err := point(pts[0])
	if err != nil {
		return nil, err
	}
	end, err := point(pts[len(pts)-1])
	if err != nil {
		return nil, err
	}
	w["start"], w["end"] = start, end
	delete(w, "points")
	return nil, nil
}

func point(v any) (map[string]any, error) {
	xy, ok := v.([]any)
	if !ok || len(xy) != 2 {
		return nil, fmt.Errorf("point %v is not an [x, y] pair", v)
	}
	return map[string]any{"x": xy[0], "y": xy[1]}, nil
}

func lineArrowheads(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	if _, ok := w["arrowheads"]; !ok {
		w["arrowheads"] = map[string]any{"start": "none", "end": "none"}
	}
	return nil, nil
}

// Chart

func chartPalette(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	if colors, ok := w["colors"]; ok {
		w["palette"] = colors
		delete(w, "colors")
	}
	return nil, nil
}

func chartLegend(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	if _, ok := w["legend"]; !ok {
		w["legend"] = map[string]any{"visible": true, "position": "bottom"}
	}
	return nil, nil
}

func chartDescription(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	a11y := object(w, "a11y")
	if _, ok := a11y["description"]; !ok {
		a11y["description"] = w.Str("title")
	}
	w["a11y"] = a11y
	return nil, nil
}

func chartValueLabels(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	show, _ := w["showValues"].(bool)
	delete(w, "showValues")
	labels := object(w, "labels")
	if _, ok := labels["visible"]; !ok {
		labels["visible"] = show
	}
	w["labels"] = labels
	return nil, nil
}

// Group

func groupMemberIDs(_ widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	if raw, ok := w[legacyGroupMembers]; ok {
		if _, exists := w[widget.FieldMembers]; !exists {
			w[widget.FieldMembers] = raw
		}
		delete(w, legacyGroupMembers)
	}
	if _, ok := w[widget.FieldMembers]; !ok {
		w.SetMemberIDs(nil)
	}
	return nil, nil
}

// Responsive text

// responsiveSlots builds the slot map from the member snapshot. A member's
// "role" names its slot; otherwise its kind does. Repeated names get a
// numeric suffix in member order.
func responsiveSlots(_ widget.ID, w widget.Data, members Members) (map[widget.ID]widget.Data, error) {
	if len(w.Components()) > 0 {
		return nil, nil
	}
	slots := map[string]widget.ID{}
	for _, mid := range w.MemberIDs() {
		mw, ok := members[mid]
		if !ok {
			return nil, fmt.Errorf("member %s is missing", mid)
		}
		name := mw.Str("role")
		if name == "" {
			name = string(mw.Kind())
		}
		slot := name
		for n := 2; ; n++ {
			if _, taken := slots[slot]; !taken {
				break
			}
			slot = fmt.Sprintf("%s%d", name, n)
		}
		slots[slot] = mid
	}
	w.SetComponents(slots)
	return nil, nil
}

// responsiveLabel turns the inline "label" string into an explicit text
// member in the label slot. The member id is derived from the composite id
// so repeated migrations of the same data agree.
func responsiveLabel(id widget.ID, w widget.Data, _ Members) (map[widget.ID]widget.Data, error) {
	raw, ok := w[legacyInlineLabel]
	if !ok {
		return nil, nil
	}
	delete(w, legacyInlineLabel)
	text, _ := raw.(string)

	slots := w.Components()
	if slots == nil {
		slots = map[string]widget.ID{}
	}
	if _, ok := slots[SlotLabel]; ok {
		return nil, nil
	}

	lid := widget.DerivedID(widget.KindText, id, SlotLabel)
	label := widget.Data{
		widget.FieldType:    string(widget.KindText),
		widget.FieldVersion: 3,
		"text":              text,
		widget.FieldX:       w.Float(widget.FieldX),
		widget.FieldY:       w.Float(widget.FieldY),
		widget.FieldWidth:   w.Float(widget.FieldWidth),
		widget.FieldHeight:  0.0,
		"style":             map[string]any{"lineHeight": 1.2},
	}
	if w.IsHidden() {
		label[widget.FieldIsHidden] = true
	}

	w.SetMemberIDs(append([]widget.ID{lid}, w.MemberIDs()...))
	slots[SlotLabel] = lid
	w.SetComponents(slots)
	return map[widget.ID]widget.Data{lid: label}, nil
}

// object returns a copy of the object-valued field key, or an empty map.
func object(w widget.Data, key string) map[string]any {
	if m, ok := w[key].(map[string]any); ok {
		return maps.Clone(m)
	}
	return map[string]any{}
}

// SupportedVersions lists each kind with its latest version, sorted by kind.
func SupportedVersions(cfg Config) []string {
	out := make([]string, 0, len(cfg))
	for _, k := range slices.Sorted(maps.Keys(cfg)) {
		out = append(out, fmt.Sprintf("%s@%d", k, cfg[k].Latest))
	}
	return out
}
