package domain

import (
	"encoding/json"
	"time"
)

// Metadata descriptors mirror the JSON returned by the ERP meta servlets.
// Unknown attributes are ignored; they are immutable once fetched.

type Menu struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Identifier     string `json:"_identifier,omitempty"`
	EntityName     string `json:"_entityName,omitempty"`
	Icon           string `json:"icon,omitempty"`
	WindowID       string `json:"windowId,omitempty"`
	RecordID       string `json:"recordId,omitempty"`
	TableID        string `json:"tableId,omitempty"`
	Type           string `json:"type,omitempty"`
	Action         string `json:"action,omitempty"`
	ProcessURL     string `json:"processUrl,omitempty"`
	IsModalProcess bool   `json:"isModalProcess,omitempty"`
	Children       []Menu `json:"children,omitempty"`
}

// FindMenu walks the menu tree depth-first looking for id or windowId.
func FindMenu(items []Menu, id string) (Menu, bool) {
	for _, m := range items {
		if m.ID == id || (m.WindowID != "" && m.WindowID == id) {
			return m, true
		}
		if found, ok := FindMenu(m.Children, id); ok {
			return found, true
		}
	}
	return Menu{}, false
}

type WindowMetadata struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SuperClass string          `json:"superClass,omitempty"`
	WindowType string          `json:"windowType,omitempty"`
	Identifier string          `json:"window$_identifier,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
	Tabs       []Tab           `json:"tabs"`
}

type Tab struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Window      string           `json:"window,omitempty"`
	TabLevel    int              `json:"tabLevel"`
	ParentTabID string           `json:"parentTabId,omitempty"`
	Entity      string           `json:"entityName,omitempty"`
	Table       string           `json:"table,omitempty"`
	UIPattern   string           `json:"uIPattern,omitempty"`
	Fields      map[string]Field `json:"fields"`
	Process     string           `json:"process,omitempty"`
}

type GridProps struct {
	Sort          int  `json:"sort"`
	AutoExpand    bool `json:"autoExpand"`
	DisplayLength int  `json:"displaylength"`
	CanSort       bool `json:"canSort"`
	CanFilter     bool `json:"canFilter"`
}

type ReadOnlyState struct {
	ReadOnly          bool   `json:"readOnly"`
	ReadOnlyLogicExpr string `json:"readOnlyLogicExpr,omitempty"`
	ReadOnlyReason    string `json:"readOnlyReason,omitempty"`
}

type RefListField struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Column is the column part of a field descriptor.
type Column struct {
	Reference                    string `json:"reference"`
	ReferenceSearchKey           string `json:"referenceSearchKey,omitempty"`
	ReferenceSearchKeyIdentifier string `json:"referenceSearchKey$_identifier,omitempty"`
	MinValue                     string `json:"minValue,omitempty"`
	MaxValue                     string `json:"maxValue,omitempty"`
}

type Field struct {
	ID                      string         `json:"id"`
	Name                    string         `json:"name"`
	HQLName                 string         `json:"hqlName"`
	InputName               string         `json:"inputName"`
	ColumnName              string         `json:"columnName"`
	Tab                     string         `json:"tab,omitempty"`
	Displayed               bool           `json:"displayed"`
	ShowInGridView          bool           `json:"showInGridView"`
	StartNewLine            bool           `json:"startnewline"`
	FieldGroup              string         `json:"fieldGroup,omitempty"`
	FieldGroupIdentifier    string         `json:"fieldGroup$_identifier,omitempty"`
	IsMandatory             bool           `json:"isMandatory"`
	Column                  Column         `json:"column"`
	GridProps               GridProps      `json:"gridProps"`
	ReadOnlyState           *ReadOnlyState `json:"readOnlyState,omitempty"`
	RefList                 []RefListField `json:"refList,omitempty"`
	ReferencedEntity        string         `json:"referencedEntity,omitempty"`
	ReferencedWindowID      string         `json:"referencedWindowId,omitempty"`
	ReferencedTabID         string         `json:"referencedTabId,omitempty"`
	DisplayLogicExpression  string         `json:"displayLogicExpression,omitempty"`
	ReadOnlyLogicExpression string         `json:"readOnlyLogicExpression,omitempty"`
	Process                 string         `json:"process,omitempty"`
}

type ToolbarButton struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Action  string          `json:"action,omitempty"`
	Active  bool            `json:"active"`
	Windows json.RawMessage `json:"windows,omitempty"`
}

// HasWindows reports whether the button carries a non-empty windows attribute.
func (b ToolbarButton) HasWindows() bool {
	s := string(b.Windows)
	return s != "" && s != "null" && s != "false" && s != "[]" && s != `""`
}

type Labels map[string]string

// RecentItem is a recently opened window, per user and role.
type RecentItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	WindowID string    `json:"windowId"`
	Type     string    `json:"type"`
	OpenedAt time.Time `json:"openedAt"`
}

// Selection is the selected tab/record of one window.
type Selection struct {
	WindowID  string            `json:"windowId"`
	TabID     string            `json:"tabId,omitempty"`
	RecordIDs map[string]string `json:"records,omitempty"` // tabId -> recordId
	UpdatedAt time.Time         `json:"updatedAt"`
}

type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DataType    string `json:"dataType,omitempty"`
	Sequence    int    `json:"sequenceNumber,omitempty"`
}

// BlobInfo describes a stored attachment copy.
type BlobInfo struct {
	Size        int64
	ContentType string
	FileName    string
}
