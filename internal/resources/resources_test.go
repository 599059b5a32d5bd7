package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/httpclient"
)

// fakeDoer records requests and serves pages from a fixed list of tickets.
type fakeDoer struct {
	requests []httpclient.Request
	tickets  []domain.Ticket
	err      error
}

func (f *fakeDoer) Do(_ context.Context, req httpclient.Request, out any) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}

	var resp any
	switch {
	case req.Method == http.MethodGet && req.Path == PathTickets:
		offset, _ := strconv.Atoi(req.Query.Get("offset"))
		limit, _ := strconv.Atoi(req.Query.Get("limit"))
		end := offset + limit
		if end > len(f.tickets) {
			end = len(f.tickets)
		}
		if offset > end {
			offset = end
		}
		resp = Page[domain.Ticket]{Items: f.tickets[offset:end], Total: len(f.tickets), Limit: limit, Offset: offset}
	case req.Method == http.MethodDelete:
		return nil
	default:
		resp = domain.Ticket{ID: "t-new", Title: "created"}
	}

	if out == nil {
		return nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func ticketsN(n int) []domain.Ticket {
	out := make([]domain.Ticket, n)
	for i := range out {
		out[i] = domain.Ticket{ID: "t-" + strconv.Itoa(i), Title: "ticket"}
	}
	return out
}

func TestListSendsPagingAndFilters(t *testing.T) {
	d := &fakeDoer{tickets: ticketsN(3)}

	page, err := Tickets(d).List(context.Background(), ListQuery{
		Filters: map[string]string{"status": "OPEN", "company_id": "", "q": "printer"},
	})
	require.NoError(t, err)

	require.Len(t, d.requests, 1)
	q := d.requests[0].Query
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "OPEN", q.Get("status"))
	assert.Equal(t, "printer", q.Get("q"))
	assert.False(t, q.Has("company_id"))

	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore())
}

func TestAllWalksPages(t *testing.T) {
	d := &fakeDoer{tickets: ticketsN(7)}

	items, err := Tickets(d).All(context.Background(), ListQuery{Limit: 3})
	require.NoError(t, err)

	assert.Len(t, items, 7)
	assert.Equal(t, "t-6", items[6].ID)
	require.Len(t, d.requests, 3)
	assert.Equal(t, "6", d.requests[2].Query.Get("offset"))
}

func TestNextAdvancesOffset(t *testing.T) {
	page := Page[int]{Items: []int{1, 2}, Total: 10, Offset: 4, Limit: 2}
	assert.True(t, page.HasMore())
	assert.Equal(t, 6, Next(ListQuery{Offset: 4, Limit: 2}, page).Offset)
}

func TestItemOperations(t *testing.T) {
	ctx := context.Background()
	d := &fakeDoer{}
	c := Tickets(d)

	created, err := c.Create(ctx, domain.Ticket{Title: "printer on fire"})
	require.NoError(t, err)
	assert.Equal(t, "t-new", created.ID)

	_, err = c.Get(ctx, "a/b")
	require.NoError(t, err)
	_, err = c.Update(ctx, "t-1", map[string]string{"status": "CLOSED"})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "t-1"))

	require.Len(t, d.requests, 4)
	assert.Equal(t, http.MethodPost, d.requests[0].Method)
	assert.Equal(t, PathTickets, d.requests[0].Path)
	assert.Equal(t, PathTickets+"/a%2Fb", d.requests[1].Path)
	assert.Equal(t, http.MethodPatch, d.requests[2].Method)
	assert.Equal(t, http.MethodDelete, d.requests[3].Method)
}

func TestErrorsPropagate(t *testing.T) {
	d := &fakeDoer{err: httpclient.NewHTTPError(http.StatusForbidden, "no")}

	_, err := Companies(d).List(context.Background(), ListQuery{})
	assert.Equal(t, http.StatusForbidden, httpclient.StatusOf(err))
}

func TestRawByName(t *testing.T) {
	c, ok := Raw(&fakeDoer{}, "sla-policies")
	require.True(t, ok)
	assert.Equal(t, PathSLAPolicies, c.Path())

	_, ok = Raw(&fakeDoer{}, "documents")
	assert.False(t, ok)

	assert.Equal(t, PathBranches, Branches(nil).Path())
	assert.Equal(t, PathCategories, Categories(nil).Path())
	assert.Equal(t, PathUsers, Users(nil).Path())
}
