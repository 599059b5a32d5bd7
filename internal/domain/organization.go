package domain

// Company is a tenant of the support platform.
type Company struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Active bool   `json:"active"`
}

// Branch is a location belonging to a company.
type Branch struct {
	ID        string `json:"id,omitempty"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	City      string `json:"city,omitempty"`
	Active    bool   `json:"active"`
}
