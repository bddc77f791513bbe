// pkg/registry/schema.go
package registry

// Worker areas, matching the internal/workers directory names.
const (
	CategoryDirectory  = "directory"
	CategoryAnalytics  = "analytics"
	CategoryDataAccess = "data-access"
)

var knownCategories = map[string]bool{
	CategoryDirectory:  true,
	CategoryAnalytics:  true,
	CategoryDataAccess: true,
}

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one deployed job worker for modelers and tooling.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows,omitempty"`
	Tags                 []string               `json:"tags,omitempty"`
}

// RaisesError reports whether code is one of the activity's declared error codes.
func (a *Activity) RaisesError(code string) bool {
	for _, c := range a.ErrorCodes {
		if c == code {
			return true
		}
	}
	return false
}
