package layout

import (
	"sort"
	"strings"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// Columns the ERP reports as text that always hold a yes/no value.
var booleanColumns = map[string]bool{
	"isOfficialHoliday": true, "isActive": true, "isPaid": true, "stocked": true, "isGeneric": true,
}

var auditColumns = map[string]bool{
	"creationDate": true, "updated": true, "createdBy": true, "updatedBy": true,
}

type FilterMode string

const (
	FilterNone     FilterMode = ""
	FilterDropdown FilterMode = "dropdown"
	FilterText     FilterMode = "text"
)

// GridColumn is one column of a tab's table view.
type GridColumn struct {
	ID                 string                `json:"id"`
	FieldID            string                `json:"fieldId"`
	Header             string                `json:"header"`
	ColumnName         string                `json:"columnName"`
	Type               FieldType             `json:"type"`
	Editor             Editor                `json:"editor"`
	Mandatory          bool                  `json:"isMandatory"`
	Sort               int                   `json:"sort"`
	Filter             FilterMode            `json:"filter,omitempty"`
	Navigable          bool                  `json:"navigable,omitempty"`
	ReferencedWindowID string                `json:"referencedWindowId,omitempty"`
	ReferencedEntity   string                `json:"referencedEntity,omitempty"`
	RefList            []domain.RefListField `json:"refList,omitempty"`
}

// Columns returns the grid columns of tab: fields shown in grid view,
// ordered by their grid sort position and then by name.
func Columns(tab domain.Tab) []GridColumn {
	fields := make([]domain.Field, 0, len(tab.Fields))
	for _, f := range tab.Fields {
		if f.ShowInGridView {
			fields = append(fields, f)
		}
	}
	sortFields(fields)

	out := make([]GridColumn, 0, len(fields))
	for _, f := range fields {
		out = append(out, column(f))
	}
	return out
}

func column(f domain.Field) GridColumn {
	t := FieldTypeOf(f)
	switch {
	case booleanColumns[f.HQLName]:
		t = TypeBoolean
	case auditColumns[f.HQLName] && (strings.Contains(f.HQLName, "Date") || f.HQLName == "updated"):
		t = TypeDatetime
	}

	header := f.Name
	if header == "" {
		header = f.HQLName
	}
	c := GridColumn{
		ID:                 f.Name,
		FieldID:            f.ID,
		Header:             header,
		ColumnName:         f.HQLName,
		Type:               t,
		Editor:             EditorFor(t),
		Mandatory:          f.IsMandatory,
		Sort:               f.GridProps.Sort,
		Navigable:          IsEntityReference(t) && f.ReferencedWindowID != "",
		ReferencedWindowID: f.ReferencedWindowID,
		ReferencedEntity:   f.ReferencedEntity,
		RefList:            f.RefList,
	}

	switch {
	case t == TypeBoolean || t == TypeSelect || t == TypeTableDir || t == TypeList:
		c.Filter = FilterDropdown
	case t == TypeDate || t == TypeDatetime || auditColumns[f.HQLName]:
		c.Filter = FilterText
	}
	return c
}

func sortFields(fields []domain.Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].GridProps.Sort != fields[j].GridProps.Sort {
			return fields[i].GridProps.Sort < fields[j].GridProps.Sort
		}
		return fields[i].Name < fields[j].Name
	})
}
