package layout

import (
	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/metadata"
)

// FormField is one input of a tab's form view.
type FormField struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	HQLName   string   `json:"hqlName"`
	InputName string   `json:"inputName"`
	Selector  Selector `json:"selector"`
	Mandatory bool     `json:"isMandatory"`
	ReadOnly  bool     `json:"readOnly"`
	Visible   bool     `json:"visible"`
	NewLine   bool     `json:"startNewLine,omitempty"`
}

type FieldGroup struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Fields []FormField `json:"fields"`
}

type FormLayout struct {
	TabID  string       `json:"tabId"`
	Groups []FieldGroup `json:"groups"`
}

// Form lays out the displayed fields of tab, grouped by field group in
// order of first appearance. Display and read-only logic are evaluated
// against values; values may be nil.
func Form(tab domain.Tab, values map[string]any) FormLayout {
	fields := make([]domain.Field, 0, len(tab.Fields))
	for _, f := range tab.Fields {
		if f.Displayed {
			fields = append(fields, f)
		}
	}
	sortFields(fields)

	out := FormLayout{TabID: tab.ID, Groups: []FieldGroup{}}
	index := map[string]int{}
	for _, f := range fields {
		i, ok := index[f.FieldGroup]
		if !ok {
			i = len(out.Groups)
			index[f.FieldGroup] = i
			out.Groups = append(out.Groups, FieldGroup{ID: f.FieldGroup, Name: f.FieldGroupIdentifier})
		}
		out.Groups[i].Fields = append(out.Groups[i].Fields, formField(f, values))
	}
	return out
}

func formField(f domain.Field, values map[string]any) FormField {
	readOnly := f.ReadOnlyState != nil && f.ReadOnlyState.ReadOnly
	if !readOnly && f.ReadOnlyLogicExpression != "" {
		readOnly = metadata.EvaluateExpression(f.ReadOnlyLogicExpression, values)
	}
	visible := f.DisplayLogicExpression == "" || metadata.EvaluateExpression(f.DisplayLogicExpression, values)
	return FormField{
		ID:        f.ID,
		Name:      f.Name,
		HQLName:   f.HQLName,
		InputName: f.InputName,
		Selector:  SelectorFor(f),
		Mandatory: f.IsMandatory,
		ReadOnly:  readOnly,
		Visible:   visible,
		NewLine:   f.StartNewLine,
	}
}
