package library

import (
	"context"
	"errors"
	"testing"

	"sarathi/internal/api"
)

type fakeBackend struct {
	resources []api.Resource
	listErr   error
	created   api.Resource
	createErr error

	createReqs []api.ResourceCreateRequest
}

func (f *fakeBackend) Resources(ctx context.Context) ([]api.Resource, error) {
	return f.resources, f.listErr
}

func (f *fakeBackend) CreateResource(ctx context.Context, req api.ResourceCreateRequest) (api.Resource, error) {
	f.createReqs = append(f.createReqs, req)
	return f.created, f.createErr
}

func TestLoadSortsNewestFirst(t *testing.T) {
	backend := &fakeBackend{
		resources: []api.Resource{
			{ID: "old", CreatedAt: "2026-08-01T10:00:00Z"},
			{ID: "new", CreatedAt: "2026-08-28T10:00:00Z"},
			{ID: "mid", CreatedAt: "2026-08-15T10:00:00Z"},
		},
	}
	s := New(backend)
	s.Load(context.Background())

	resources, state, _ := s.Resources()
	if state != Loaded || len(resources) != 3 {
		t.Fatalf("state=%v n=%d", state, len(resources))
	}
	if resources[0].ID != "new" || resources[2].ID != "old" {
		t.Fatalf("order=%v %v %v", resources[0].ID, resources[1].ID, resources[2].ID)
	}
}

func TestLoadUnavailable(t *testing.T) {
	s := New(&fakeBackend{listErr: errors.New("offline")})
	s.Load(context.Background())

	resources, state, reason := s.Resources()
	if state != Unavailable || reason != "offline" || len(resources) != 0 {
		t.Fatalf("state=%v reason=%q resources=%v", state, reason, resources)
	}
}

func TestCreatePrependsBackendRecord(t *testing.T) {
	backend := &fakeBackend{
		resources: []api.Resource{{ID: "existing", CreatedAt: "2026-08-01T10:00:00Z"}},
		created:   api.Resource{ID: "fresh", Title: "Laxmikanth notes", CreatedAt: "2026-08-29T10:00:00Z"},
	}
	s := New(backend)
	s.Load(context.Background())

	created, err := s.Create(context.Background(), api.ResourceCreateRequest{
		Title: "Laxmikanth notes",
		Kind:  api.ResourceNote,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "fresh" {
		t.Fatalf("created=%+v", created)
	}

	resources, _, _ := s.Resources()
	if len(resources) != 2 || resources[0].ID != "fresh" {
		t.Fatalf("new record must lead the list: %v", resources)
	}
}

func TestCreateValidation(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend)

	_, err := s.Create(context.Background(), api.ResourceCreateRequest{Kind: api.ResourceNote})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Fatalf("err=%v", err)
	}

	_, err = s.Create(context.Background(), api.ResourceCreateRequest{Title: "x", Kind: "cassette"})
	if !errors.As(err, &ve) || ve.Field != "kind" {
		t.Fatalf("err=%v", err)
	}
	if len(backend.createReqs) != 0 {
		t.Fatalf("invalid request reached the backend")
	}
}

func TestCreateFailureLeavesCacheUntouched(t *testing.T) {
	backend := &fakeBackend{
		resources: []api.Resource{{ID: "existing", CreatedAt: "2026-08-01T10:00:00Z"}},
		createErr: errors.New("rejected"),
	}
	s := New(backend)
	s.Load(context.Background())

	if _, err := s.Create(context.Background(), api.ResourceCreateRequest{Title: "x", Kind: api.ResourcePDF}); err == nil {
		t.Fatalf("expected error")
	}
	resources, _, _ := s.Resources()
	if len(resources) != 1 {
		t.Fatalf("failed create must not mutate the cache: %v", resources)
	}
}
