package domain

// Reference entities are owned by the upstream reference-data service. The
// workflow stores their identifiers and consults them for display names only,
// never for validation.

// Category classifies a request into a subject area.
type Category struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// Person is a workflow participant a request can be handed to.
type Person struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Action is a taxonomy entry recorded in process history.
type Action struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
