package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

func field(ref string) domain.Field {
	return domain.Field{Column: domain.Column{Reference: ref}}
}

func TestSelectorFor(t *testing.T) {
	cases := []struct {
		ref  string
		want SelectorKind
	}{
		{RefPassword, SelectorPassword},
		{RefProduct, SelectorTableDir},
		{RefSelector, SelectorTableDir},
		{RefTableDir18, SelectorTableDir},
		{RefTableDir19, SelectorTableDir},
		{RefDate, SelectorDate},
		{RefDatetime, SelectorDatetime},
		{RefBoolean, SelectorBoolean},
		{RefQuantity22, SelectorQuantity},
		{RefQuantity29, SelectorQuantity},
		{RefTime, SelectorTime},
		{RefList13, SelectorList},
		{RefList17, SelectorList},
		{RefSelect30, SelectorSelect},
		{RefTextLong, SelectorTextLong},
		{RefString, SelectorString},
		{"", SelectorString},
		{"unknown", SelectorString},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SelectorFor(field(tc.ref)).Kind, "reference %q", tc.ref)
	}
}

func TestSelectorNumericAndQuantityDetails(t *testing.T) {
	assert.Equal(t, Selector{Kind: SelectorNumeric, NumericType: "decimal"}, SelectorFor(field(RefDecimal)))
	assert.Equal(t, Selector{Kind: SelectorNumeric, NumericType: "decimal"}, SelectorFor(field(RefRate)))
	assert.Equal(t, Selector{Kind: SelectorNumeric, NumericType: "integer"}, SelectorFor(field(RefInteger)))

	q := domain.Field{Column: domain.Column{Reference: RefQuantity29, MinValue: "0", MaxValue: "10"}}
	assert.Equal(t, Selector{Kind: SelectorQuantity, AllowNegative: true, Min: "0", Max: "10"}, SelectorFor(q))
}

func TestSelectorLocationSpecialCase(t *testing.T) {
	byKey := domain.Field{Column: domain.Column{Reference: RefSelect30, ReferenceSearchKey: RefLocation}}
	byIdentifier := domain.Field{Column: domain.Column{Reference: RefSelect30, ReferenceSearchKeyIdentifier: LocationIdentifier}}
	assert.Equal(t, SelectorLocation, SelectorFor(byKey).Kind)
	assert.Equal(t, SelectorLocation, SelectorFor(byIdentifier).Kind)
}

func TestFieldTypeAndEditor(t *testing.T) {
	cases := []struct {
		ref    string
		typ    FieldType
		editor Editor
	}{
		{RefTableDir19, TypeTableDir, EditorTableDir},
		{RefDate, TypeDate, EditorDate},
		{RefDatetime, TypeDate, EditorDate},
		{RefBoolean, TypeBoolean, EditorBoolean},
		{RefInteger, TypeNumber, EditorNumeric},
		{RefQuantity22, TypeQuantity, EditorNumeric},
		{RefList17, TypeList, EditorSelect},
		{RefSelect30, TypeSelect, EditorSelect},
		{RefButton, TypeButton, EditorText},
		{RefWindow, TypeWindow, EditorText},
		{RefString, TypeText, EditorText},
	}
	for _, tc := range cases {
		typ := FieldTypeOf(field(tc.ref))
		assert.Equal(t, tc.typ, typ, "reference %q", tc.ref)
		assert.Equal(t, tc.editor, EditorFor(typ), "reference %q", tc.ref)
	}
	assert.Equal(t, EditorSelect, EditorFor(TypeSearch))
	assert.Equal(t, EditorDate, EditorFor(TypeDatetime))
}

func sampleTab() domain.Tab {
	return domain.Tab{ID: "186", Fields: map[string]domain.Field{
		"documentNo": {ID: "f1", Name: "Document No.", HQLName: "documentNo", ShowInGridView: true, Displayed: true,
			GridProps: domain.GridProps{Sort: 2}, Column: domain.Column{Reference: RefString}, FieldGroup: "g1", FieldGroupIdentifier: "Main"},
		"businessPartner": {ID: "f2", Name: "Business Partner", HQLName: "businessPartner", ShowInGridView: true, Displayed: true,
			IsMandatory: true, GridProps: domain.GridProps{Sort: 1}, ReferencedWindowID: "123", ReferencedEntity: "BusinessPartner",
			Column: domain.Column{Reference: RefTableDir19}, FieldGroup: "g1", FieldGroupIdentifier: "Main"},
		"isActive": {ID: "f3", Name: "Active", HQLName: "isActive", ShowInGridView: true, Displayed: true,
			GridProps: domain.GridProps{Sort: 3}, Column: domain.Column{Reference: RefString}, FieldGroup: "g2", FieldGroupIdentifier: "More"},
		"creationDate": {ID: "f4", Name: "Creation Date", HQLName: "creationDate", ShowInGridView: true,
			GridProps: domain.GridProps{Sort: 4}, Column: domain.Column{Reference: RefString}},
		"description": {ID: "f5", Name: "Description", HQLName: "description", Displayed: true,
			GridProps: domain.GridProps{Sort: 5}, Column: domain.Column{Reference: RefTextLong}, FieldGroup: "g2", FieldGroupIdentifier: "More",
			DisplayLogicExpression: `OB.Utilities.getValue(currentValues,'docStatus') === 'DR'`},
		"docStatus": {ID: "f6", Name: "Status", HQLName: "docStatus", Displayed: true,
			Column: domain.Column{Reference: RefList17}, FieldGroup: "g1", FieldGroupIdentifier: "Main",
			ReadOnlyState: &domain.ReadOnlyState{ReadOnly: true}},
	}}
}

func TestColumns(t *testing.T) {
	cols := Columns(sampleTab())
	require.Len(t, cols, 4)

	var names []string
	for _, c := range cols {
		names = append(names, c.ColumnName)
	}
	if diff := cmp.Diff([]string{"businessPartner", "documentNo", "isActive", "creationDate"}, names); diff != "" {
		t.Fatalf("column order (-want +got):\n%s", diff)
	}

	bp := cols[0]
	assert.Equal(t, TypeTableDir, bp.Type)
	assert.Equal(t, EditorTableDir, bp.Editor)
	assert.Equal(t, FilterDropdown, bp.Filter)
	assert.True(t, bp.Navigable)
	assert.True(t, bp.Mandatory)

	assert.Equal(t, FilterNone, cols[1].Filter)
	assert.Equal(t, TypeBoolean, cols[2].Type)
	assert.Equal(t, FilterDropdown, cols[2].Filter)
	assert.Equal(t, TypeDatetime, cols[3].Type)
	assert.Equal(t, FilterText, cols[3].Filter)
}

func TestColumnsHeaderFallsBackToHQLName(t *testing.T) {
	tab := domain.Tab{Fields: map[string]domain.Field{"x": {HQLName: "x", ShowInGridView: true}}}
	assert.Equal(t, "x", Columns(tab)[0].Header)
}

func TestForm(t *testing.T) {
	got := Form(sampleTab(), map[string]any{"docStatus": "DR"})
	require.Len(t, got.Groups, 2)
	assert.Equal(t, "Main", got.Groups[0].Name)
	assert.Equal(t, "More", got.Groups[1].Name)

	main := got.Groups[0].Fields
	require.Len(t, main, 3)
	assert.Equal(t, "docStatus", main[0].HQLName)
	assert.Equal(t, "businessPartner", main[1].HQLName)
	assert.Equal(t, SelectorTableDir, main[1].Selector.Kind)

	var status FormField
	for _, f := range main {
		if f.HQLName == "docStatus" {
			status = f
		}
	}
	assert.True(t, status.ReadOnly)
	assert.Equal(t, SelectorList, status.Selector.Kind)

	more := got.Groups[1].Fields
	require.Len(t, more, 2)
	for _, f := range more {
		if f.HQLName == "description" {
			assert.True(t, f.Visible)
		}
	}

	hidden := Form(sampleTab(), map[string]any{"docStatus": "CO"})
	for _, f := range hidden.Groups[1].Fields {
		if f.HQLName == "description" {
			assert.False(t, f.Visible)
		}
	}
}

func TestFormOfEmptyTab(t *testing.T) {
	got := Form(domain.Tab{ID: "1"}, nil)
	assert.Equal(t, "1", got.TabID)
	assert.Empty(t, got.Groups)
}
