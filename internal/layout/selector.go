package layout

import "github.com/etendosoftware/workspace-gateway/internal/domain"

type SelectorKind string

const (
	SelectorPassword SelectorKind = "password"
	SelectorTableDir SelectorKind = "tabledir"
	SelectorDate     SelectorKind = "date"
	SelectorDatetime SelectorKind = "datetime"
	SelectorBoolean  SelectorKind = "boolean"
	SelectorQuantity SelectorKind = "quantity"
	SelectorTime     SelectorKind = "time"
	SelectorList     SelectorKind = "list"
	SelectorSelect   SelectorKind = "select"
	SelectorLocation SelectorKind = "location"
	SelectorNumeric  SelectorKind = "numeric"
	SelectorTextLong SelectorKind = "textlong"
	SelectorString   SelectorKind = "string"
)

// Selector is the form input a field is edited with. NumericType is
// "decimal" or "integer" for numeric selectors.
type Selector struct {
	Kind          SelectorKind `json:"kind"`
	NumericType   string       `json:"numericType,omitempty"`
	AllowNegative bool         `json:"allowNegative,omitempty"`
	Min           string       `json:"min,omitempty"`
	Max           string       `json:"max,omitempty"`
}

// SelectorFor picks the form selector from the column reference. Search
// references to locations get the location selector; anything unknown is
// a plain string input.
func SelectorFor(f domain.Field) Selector {
	switch f.Column.Reference {
	case RefPassword:
		return Selector{Kind: SelectorPassword}
	case RefProduct, RefSelector, RefTableDir19, RefTableDir18:
		return Selector{Kind: SelectorTableDir}
	case RefDate:
		return Selector{Kind: SelectorDate}
	case RefDatetime:
		return Selector{Kind: SelectorDatetime}
	case RefBoolean:
		return Selector{Kind: SelectorBoolean}
	case RefQuantity29, RefQuantity22:
		return Selector{Kind: SelectorQuantity, AllowNegative: true, Min: f.Column.MinValue, Max: f.Column.MaxValue}
	case RefTime:
		return Selector{Kind: SelectorTime}
	case RefList17, RefList13:
		return Selector{Kind: SelectorList}
	case RefSelect30:
		if f.Column.ReferenceSearchKey == RefLocation || f.Column.ReferenceSearchKeyIdentifier == LocationIdentifier {
			return Selector{Kind: SelectorLocation}
		}
		return Selector{Kind: SelectorSelect}
	case RefDecimal, RefNumeric, RefRate:
		return Selector{Kind: SelectorNumeric, NumericType: "decimal"}
	case RefInteger:
		return Selector{Kind: SelectorNumeric, NumericType: "integer"}
	case RefTextLong:
		return Selector{Kind: SelectorTextLong}
	default:
		return Selector{Kind: SelectorString}
	}
}
