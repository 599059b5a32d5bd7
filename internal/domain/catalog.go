package domain

// Category groups tickets and documents.
type Category struct {
	ID        string  `json:"id,omitempty"`
	CompanyID string  `json:"company_id,omitempty"`
	ParentID  *string `json:"parent_id,omitempty"`
	Name      string  `json:"name"`
}

// SLAPolicy defines response and resolution targets for a priority.
type SLAPolicy struct {
	ID                string         `json:"id,omitempty"`
	CompanyID         string         `json:"company_id,omitempty"`
	Name              string         `json:"name"`
	Priority          TicketPriority `json:"priority"`
	ResponseMinutes   int            `json:"response_minutes"`
	ResolutionMinutes int            `json:"resolution_minutes"`
}
