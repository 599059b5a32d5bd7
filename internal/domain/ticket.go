package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is a support request as listed by the dashboard.
type Ticket struct {
	ID          string         `json:"id,omitempty"`
	ExternalKey string         `json:"external_key,omitempty"`
	CompanyID   string         `json:"company_id,omitempty"`
	BranchID    *string        `json:"branch_id,omitempty"`
	CategoryID  *string        `json:"category_id,omitempty"`
	AssigneeID  *string        `json:"assignee_id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      TicketStatus   `json:"status,omitempty"`
	Priority    TicketPriority `json:"priority,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	ClosedAt    *time.Time     `json:"closed_at,omitempty"`
}
