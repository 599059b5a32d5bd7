package resources

import "github.com/spec-kit/support-console/internal/domain"

// Collection roots.
const (
	PathTickets     = "/api/v1/tickets"
	PathCompanies   = "/api/v1/companies"
	PathBranches    = "/api/v1/branches"
	PathCategories  = "/api/v1/categories"
	PathSLAPolicies = "/api/v1/sla-policies"
	PathUsers       = "/api/v1/users"
)

// Names lists the collection names accepted by Raw, in display order.
var Names = []string{"tickets", "companies", "branches", "categories", "sla-policies", "users"}

func Tickets(d Doer) *Collection[domain.Ticket]        { return NewCollection[domain.Ticket](d, PathTickets) }
func Companies(d Doer) *Collection[domain.Company]     { return NewCollection[domain.Company](d, PathCompanies) }
func Branches(d Doer) *Collection[domain.Branch]       { return NewCollection[domain.Branch](d, PathBranches) }
func Categories(d Doer) *Collection[domain.Category]   { return NewCollection[domain.Category](d, PathCategories) }
func SLAPolicies(d Doer) *Collection[domain.SLAPolicy] { return NewCollection[domain.SLAPolicy](d, PathSLAPolicies) }
func Users(d Doer) *Collection[domain.User]            { return NewCollection[domain.User](d, PathUsers) }

// Raw returns an untyped collection by name, for tools that print JSON.
func Raw(d Doer, name string) (*Collection[map[string]any], bool) {
	for _, n := range Names {
		if n == name {
			return NewCollection[map[string]any](d, "/api/v1/"+name), true
		}
	}
	return nil, false
}
