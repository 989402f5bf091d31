package recipient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestServiceAddMobileAndList(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	owner := uuid.New()

	rec, err := svc.Add(ctx, AddInput{
		OwnerID: owner,
		Method:  MethodMobile,
		Name:    "Kwame Mensah",
		Phone:   "+233241234567",
		NetworkCode: "MTN",
		NetworkName: "MTN",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.SeqID == 0 {
		t.Fatal("expected assigned seq_id")
	}

	page, err := svc.List(ctx, owner, MethodMobile, 0, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].FullName != "Kwame Mensah" {
		t.Fatalf("unexpected page %+v", page)
	}

	// Bank feed for the same owner stays empty.
	page, err = svc.List(ctx, owner, MethodBank, 0, 20)
	if err != nil {
		t.Fatalf("list bank: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty bank feed, got %d", len(page))
	}
}

func TestServiceAddValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.Add(ctx, AddInput{OwnerID: owner, Method: MethodMobile, Name: "Ama"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = svc.Add(ctx, AddInput{OwnerID: owner, Method: MethodBank, Name: "Kofi", Bank: "GCB Bank"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing account, got %v", err)
	}

	// crypto is declared in the model but not offered.
	_, err = svc.Add(ctx, AddInput{OwnerID: owner, Method: MethodCrypto, Name: "Yaw", Phone: "+233241234567"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for crypto method, got %v", err)
	}
}

func TestServiceAddDuplicate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	owner := uuid.New()

	input := AddInput{OwnerID: owner, Method: MethodBank, Name: "Kofi Asante", Bank: "GCB Bank", Account: "1234567890"}
	if _, err := svc.Add(ctx, input); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, input); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// A different owner may save the same identifier.
	input.OwnerID = uuid.New()
	if _, err := svc.Add(ctx, input); err != nil {
		t.Fatalf("add for other owner: %v", err)
	}
}

func TestServiceListCursorPagination(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	owner := uuid.New()

	phones := []string{"+233241000001", "+233241000002", "+233241000003", "+233241000004", "+233241000005"}
	for i, phone := range phones {
		if _, err := svc.Add(ctx, AddInput{
			OwnerID: owner, Method: MethodMobile, Name: "Recipient", Phone: phone,
		}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	first, err := svc.List(ctx, owner, MethodMobile, 0, 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first))
	}

	second, err := svc.List(ctx, owner, MethodMobile, first[len(first)-1].SeqID, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 || second[0].SeqID <= first[1].SeqID {
		t.Fatalf("unexpected second page %+v", second)
	}

	third, err := svc.List(ctx, owner, MethodMobile, second[len(second)-1].SeqID, 2)
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third) != 1 {
		t.Fatalf("expected final partial page of 1, got %d", len(third))
	}

	empty, err := svc.List(ctx, owner, MethodMobile, third[len(third)-1].SeqID, 2)
	if err != nil {
		t.Fatalf("empty page: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected exhausted feed, got %d items", len(empty))
	}
}

func TestServiceListClampsLimit(t *testing.T) {
	repo := &limitRecorder{Repository: NewMemoryRepository()}
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.List(ctx, uuid.New(), MethodMobile, 0, 500); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastLimit != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", repo.lastLimit)
	}

	if _, err := svc.List(ctx, uuid.New(), MethodMobile, 0, 0); err != nil {
		t.Fatalf("list default: %v", err)
	}
	if repo.lastLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", repo.lastLimit)
	}
}

type limitRecorder struct {
	Repository
	lastLimit int
}

func (r *limitRecorder) ListAfter(ctx context.Context, ownerID uuid.UUID, method DeliveryMethod, lastSeqID int64, limit int) ([]Recipient, error) {
	r.lastLimit = limit
	return r.Repository.ListAfter(ctx, ownerID, method, lastSeqID, limit)
}
