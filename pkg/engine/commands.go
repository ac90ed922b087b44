package engine

import (
	"encoding/json"
	"fmt"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// Command is a serializable document edit. Commands are plain values so a
// history can store them, replay them, or send them over the wire with
// MarshalCommand.
type Command interface {
	CommandType() string
}

// NewWidget is the payload for a widget being created. Members holds the
// nested widgets of a composite; they are registered in the widget table
// only. Slot names the member's slot inside a responsive composite.
type NewWidget struct {
	ID      widget.ID   `json:"id,omitempty"`
	Data    widget.Data `json:"data"`
	Slot    string      `json:"slot,omitempty"`
	Members []NewWidget `json:"members,omitempty"`
}

// AddWidget inserts a widget on a page. The widget goes into the layer
// order after PositionedNextTo (or on top) unless IsGroupMember is set, in
// which case it is appended to the composite ParentID instead.
type AddWidget struct {
	PageID           document.PageID `json:"pageId"`
	Widget           NewWidget       `json:"widget"`
	PositionedNextTo widget.ID       `json:"positionedNextTo,omitempty"`
	IsGroupMember    bool            `json:"isGroupMember,omitempty"`
	ParentID         widget.ID       `json:"parentId,omitempty"`
}

// RemoveWidget deletes a widget record and its layer and tree entries.
// Members of a removed composite are kept unless Cascade is set.
type RemoveWidget struct {
	PageID   document.PageID `json:"pageId"`
	WidgetID widget.ID       `json:"widgetId"`
	Cascade  bool            `json:"cascade,omitempty"`
}

// ReplaceWidget puts a new widget in the place of an existing one.
type ReplaceWidget struct {
	PageID document.PageID `json:"pageId"`
	OldID  widget.ID       `json:"oldId"`
	Widget NewWidget       `json:"widget"`
}

// UpdateWidget deep-merges Partial into a widget.
type UpdateWidget struct {
	WidgetID widget.ID   `json:"widgetId"`
	Partial  widget.Data `json:"partial"`
}

// GroupWidgets wraps the selected top-level widgets in a new plain group.
// GroupID is generated when empty.
type GroupWidgets struct {
	PageID    document.PageID `json:"pageId"`
	Selection []widget.ID     `json:"selection"`
	GroupID   widget.ID       `json:"groupId,omitempty"`
}

// UngroupWidget dissolves a top-level plain group.
type UngroupWidget struct {
	PageID  document.PageID `json:"pageId"`
	GroupID widget.ID       `json:"groupId"`
}

// DuplicatePage copies a page and every widget on it under new ids. The
// copy is placed right after the source; NewPageID is generated when empty.
type DuplicatePage struct {
	PageID    document.PageID `json:"pageId"`
	NewPageID document.PageID `json:"newPageId,omitempty"`
}

// SetStructureTree replaces a page's reading-order tree. The new tree must
// hold the same leaves as the current one.
type SetStructureTree struct {
	PageID document.PageID `json:"pageId"`
	Tree   tree.Node       `json:"tree"`
}

// AddPage inserts an empty page after After, or at the end.
type AddPage struct {
	PageID document.PageID `json:"pageId,omitempty"`
	After  document.PageID `json:"after,omitempty"`
}

// RemovePage deletes a page and every widget on it.
type RemovePage struct {
	PageID document.PageID `json:"pageId"`
}

// MovePage moves a page to index ToIndex of the page order.
type MovePage struct {
	PageID  document.PageID `json:"pageId"`
	ToIndex int             `json:"toIndex"`
}

// MoveWidgetInLayer moves a top-level widget to index ToIndex of its page's
// layer order. The reading order is not affected.
type MoveWidgetInLayer struct {
	PageID   document.PageID `json:"pageId"`
	WidgetID widget.ID       `json:"widgetId"`
	ToIndex  int             `json:"toIndex"`
}

// UpdateDocument edits document-level settings. Nil fields are left alone.
type UpdateDocument struct {
	Title    *string        `json:"title,omitempty"`
	Language *string        `json:"language,omitempty"`
	PageSize *document.Size `json:"pageSize,omitempty"`
	Swatch   []string       `json:"swatch,omitempty"`
}

func (AddWidget) CommandType() string         { return "addWidget" }
func (RemoveWidget) CommandType() string      { return "removeWidget" }
func (ReplaceWidget) CommandType() string     { return "replaceWidget" }
func (UpdateWidget) CommandType() string      { return "updateWidget" }
func (GroupWidgets) CommandType() string      { return "groupWidgets" }
func (UngroupWidget) CommandType() string     { return "ungroupWidget" }
func (DuplicatePage) CommandType() string     { return "duplicatePage" }
func (SetStructureTree) CommandType() string  { return "setStructureTree" }
func (AddPage) CommandType() string           { return "addPage" }
func (RemovePage) CommandType() string        { return "removePage" }
func (MovePage) CommandType() string          { return "movePage" }
func (MoveWidgetInLayer) CommandType() string { return "moveWidgetInLayer" }
func (UpdateDocument) CommandType() string    { return "updateDocument" }

var decoders = map[string]func(json.RawMessage) (Command, error){
	"addWidget":         decode[AddWidget],
	"removeWidget":      decode[RemoveWidget],
	"replaceWidget":     decode[ReplaceWidget],
	"updateWidget":      decode[UpdateWidget],
	"groupWidgets":      decode[GroupWidgets],
	"ungroupWidget":     decode[UngroupWidget],
	"duplicatePage":     decode[DuplicatePage],
	"setStructureTree":  decode[SetStructureTree],
	"addPage":           decode[AddPage],
	"removePage":        decode[RemovePage],
	"movePage":          decode[MovePage],
	"moveWidgetInLayer": decode[MoveWidgetInLayer],
	"updateDocument":    decode[UpdateDocument],
}

func decode[C Command](raw json.RawMessage) (Command, error) {
	var c C
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// CommandTypes returns the wire names of every supported command.
func CommandTypes() []string {
	out := make([]string, 0, len(decoders))
	for name := range decoders {
		out = append(out, name)
	}
	return out
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalCommand encodes cmd as {"type": ..., "payload": {...}}.
func MarshalCommand(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", cmd.CommandType(), err)
	}
	return json.Marshal(envelope{Type: cmd.CommandType(), Payload: payload})
}

// UnmarshalCommand decodes a command envelope.
func UnmarshalCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCommand, err, "decode command envelope")
	}
	dec, ok := decoders[env.Type]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidCommand, "unknown command type %q", env.Type)
	}
	cmd, err := dec(env.Payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCommand, err, "decode %s payload", env.Type)
	}
	return cmd, nil
}

// UnmarshalCommands decodes a JSON array of command envelopes.
func UnmarshalCommands(data []byte) ([]Command, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCommand, err, "decode command list")
	}
	out := make([]Command, 0, len(raws))
	for i, raw := range raws {
		cmd, err := UnmarshalCommand(raw)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}
