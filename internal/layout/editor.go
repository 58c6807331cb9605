package layout

type Editor string

const (
	EditorText     Editor = "text"
	EditorNumeric  Editor = "numeric"
	EditorDate     Editor = "date"
	EditorBoolean  Editor = "boolean"
	EditorSelect   Editor = "select"
	EditorTableDir Editor = "tabledir"
)

// EditorFor returns the inline grid editor of a field type.
func EditorFor(t FieldType) Editor {
	switch t {
	case TypeNumber, TypeQuantity:
		return EditorNumeric
	case TypeDate, TypeDatetime:
		return EditorDate
	case TypeBoolean:
		return EditorBoolean
	case TypeList, TypeSelect, TypeSearch:
		return EditorSelect
	case TypeTableDir:
		return EditorTableDir
	default:
		return EditorText
	}
}
