// Package layout decides how a tab is rendered: which grid columns it
// shows, which editor each cell gets and which selector each form field
// uses. Every decision is a pure function of the field descriptors.
package layout

import "github.com/etendosoftware/workspace-gateway/internal/domain"

// Reference codes of the ERP column references the UI distinguishes.
const (
	RefString     = "10"
	RefInteger    = "11"
	RefNumeric    = "12"
	RefList13     = "13"
	RefTextLong   = "14"
	RefDate       = "15"
	RefDatetime   = "16"
	RefList17     = "17"
	RefTableDir18 = "18"
	RefTableDir19 = "19"
	RefBoolean    = "20"
	RefLocation   = "21"
	RefQuantity22 = "22"
	RefTime       = "24"
	RefButton     = "28"
	RefQuantity29 = "29"
	RefSelect30   = "30"
	RefDecimal    = "800008"
	RefProduct    = "800011"
	RefRate       = "800019"
	RefPassword   = "C5C21C28B39E4683A91779F16C112E40"
	RefSelector   = "95E2A8B50A254B2AAE6774B8C2F28120"
	RefWindow     = "FF80818132D8F0F30132D9BC395D0038"
)

// LocationIdentifier marks search references that open the location form.
const LocationIdentifier = "Location"

// FieldType is the coarse kind of value a field holds.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeDatetime FieldType = "datetime"
	TypeBoolean  FieldType = "boolean"
	TypeSelect   FieldType = "select"
	TypeSearch   FieldType = "search"
	TypeTableDir FieldType = "tabledir"
	TypeQuantity FieldType = "quantity"
	TypeList     FieldType = "list"
	TypeButton   FieldType = "button"
	TypeWindow   FieldType = "window"
)

// FieldTypeOf maps the column reference onto a FieldType. Unknown
// references are text.
func FieldTypeOf(f domain.Field) FieldType {
	return fieldTypeOfRef(f.Column.Reference)
}

func fieldTypeOfRef(ref string) FieldType {
	switch ref {
	case RefTableDir18, RefTableDir19, RefProduct, RefSelector:
		return TypeTableDir
	case RefDate, RefDatetime:
		return TypeDate
	case RefBoolean:
		return TypeBoolean
	case RefInteger, RefNumeric, RefDecimal, RefRate:
		return TypeNumber
	case RefQuantity22, RefQuantity29:
		return TypeQuantity
	case RefList13, RefList17:
		return TypeList
	case RefButton:
		return TypeButton
	case RefSelect30:
		return TypeSelect
	case RefWindow:
		return TypeWindow
	default:
		return TypeText
	}
}

// IsEntityReference reports types whose value points at another record.
func IsEntityReference(t FieldType) bool {
	return t == TypeTableDir || t == TypeSelect || t == TypeSearch
}
