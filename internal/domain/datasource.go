package domain

// Criteria is either a base criterion or a composite one.
type Criteria struct {
	FieldName string     `json:"fieldName,omitempty"`
	Operator  string     `json:"operator"`
	Value     any        `json:"value,omitempty"`
	Criteria  []Criteria `json:"criteria,omitempty"`
}

// DatasourceRequest is the body of POST /api/datasource.
type DatasourceRequest struct {
	Entity string         `json:"entity"`
	Params map[string]any `json:"params"`
}

var smartClientKeys = []string{"operationType", "data", "oldValues", "dataSource", "componentId", "csrfToken"}

// IsSmartClientPayload reports whether params look like a SmartClient
// datasource operation, which the ERP expects as JSON.
func (r DatasourceRequest) IsSmartClientPayload() bool {
	for _, k := range smartClientKeys {
		if _, ok := r.Params[k]; ok {
			return true
		}
	}
	return false
}
