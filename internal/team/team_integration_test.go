package team

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginkoai/ginko/internal/relational"
)

// fakePostgREST is a minimal in-memory stand-in for Supabase's PostgREST,
// enough to drive the invite/accept/seat-sync round trip end to end.
type fakePostgREST struct {
	mu     sync.Mutex
	tables map[string][]map[string]interface{}
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{tables: make(map[string][]map[string]interface{})}
}

func (f *fakePostgREST) seed(table string, row map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], row)
}

func (f *fakePostgREST) matches(row map[string]interface{}, q map[string][]string) bool {
	for key, vals := range q {
		if key == "limit" || key == "select" || key == "on_conflict" {
			continue
		}
		val := vals[0]
		if !strings.HasPrefix(val, "eq.") {
			continue
		}
		want := strings.TrimPrefix(val, "eq.")
		got, _ := row[key].(string)
		if got != want {
			return false
		}
	}
	return true
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		var out []map[string]interface{}
		for _, row := range f.tables[table] {
			if f.matches(row, q) {
				out = append(out, row)
			}
		}
		json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		var rows []map[string]interface{}
		json.NewDecoder(r.Body).Decode(&rows)
		f.tables[table] = append(f.tables[table], rows...)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rows)

	case http.MethodPatch:
		var patch map[string]interface{}
		json.NewDecoder(r.Body).Decode(&patch)
		var matched []map[string]interface{}
		for i, row := range f.tables[table] {
			if f.matches(row, q) {
				for k, v := range patch {
					f.tables[table][i][k] = v
				}
				matched = append(matched, f.tables[table][i])
			}
		}
		json.NewEncoder(w).Encode(matched)

	case http.MethodDelete:
		var remaining, removed []map[string]interface{}
		for _, row := range f.tables[table] {
			if f.matches(row, q) {
				removed = append(removed, row)
			} else {
				remaining = append(remaining, row)
			}
		}
		f.tables[table] = remaining
		json.NewEncoder(w).Encode(removed)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type fakeSeatSyncer struct {
	calls []int
}

func (f *fakeSeatSyncer) SyncSeats(ctx context.Context, org *relational.Organization, seatCount int) error {
	f.calls = append(f.calls, seatCount)
	return nil
}

func newTestService(t *testing.T, seats SeatSyncer) (*Service, *fakePostgREST) {
	t.Helper()
	fake := newFakePostgREST()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := relational.NewClient(srv.URL, "service-role-key")
	repo := relational.NewRepository(client)
	return NewService(repo, seats), fake
}

func TestInviteAcceptFlow_SyncsSeats(t *testing.T) {
	syncer := &fakeSeatSyncer{}
	svc, fake := newTestService(t, syncer)

	fake.seed("teams", map[string]interface{}{"id": "team-1", "graph_id": "g-1", "organization_id": "org-1", "name": "Acme"})
	fake.seed("organizations", map[string]interface{}{"id": "org-1", "seat_count": float64(1), "plan_tier": "pro"})
	fake.seed("team_members", map[string]interface{}{"id": "m-owner", "team_id": "team-1", "user_id": "owner-1", "role": relational.RoleOwner})

	ctx := context.Background()

	inv, err := svc.Invite(ctx, "team-1", "new@example.com", "member", "owner-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, inv.Code)

	preview, err := svc.Preview(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, relational.InvitationPending, preview.Status)

	member, err := svc.Accept(ctx, inv.Code, "new-user")
	require.NoError(t, err)
	assert.Equal(t, "member", member.Role)
	assert.Equal(t, "team-1", member.TeamID)

	require.Len(t, syncer.calls, 1)
	assert.Equal(t, 2, syncer.calls[0], "seat sync should count the owner plus the new member")

	_, err = svc.Preview(ctx, inv.Code)
	assert.Error(t, err, "a once-accepted invitation should no longer preview as pending")
}

func TestAccept_RejectsAlreadyMember(t *testing.T) {
	svc, fake := newTestService(t, nil)
	fake.seed("team_invitations", map[string]interface{}{
		"id": "inv-1", "team_id": "team-1", "code": "abc123", "email": "a@example.com",
		"role": "member", "status": relational.InvitationPending,
		"expires_at": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	fake.seed("team_members", map[string]interface{}{"id": "m-1", "team_id": "team-1", "user_id": "existing-user", "role": "member"})

	_, err := svc.Accept(context.Background(), "abc123", "existing-user")
	require.Error(t, err)
}

func TestRemove_EnforcesOwnerFloor(t *testing.T) {
	svc, fake := newTestService(t, nil)
	fake.seed("team_members", map[string]interface{}{"id": "m-owner", "team_id": "team-1", "user_id": "owner-1", "role": relational.RoleOwner})

	err := svc.Remove(context.Background(), "team-1", "owner-1", "owner-1")
	require.Error(t, err, "removing the last owner should be rejected")
}
