package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roperito/roperito-backend/internal/ratings"
	"github.com/roperito/roperito-backend/pkg/db/models"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

type stubRatings struct {
	created  ratings.CreateInput
	updated  ratings.UpdateInput
	reported ratings.ReportInput
	err      error
}

func (s *stubRatings) Create(ctx context.Context, input ratings.CreateInput) (*models.Rating, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Rating{ID: uuid.New(), OrderID: input.OrderID, Value: input.Value}, nil
}

func (s *stubRatings) Update(ctx context.Context, input ratings.UpdateInput) (*models.Rating, error) {
	s.updated = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Rating{ID: input.RatingID}, nil
}

func (s *stubRatings) Delete(ctx context.Context, ratingID, buyerID uuid.UUID) error {
	return s.err
}

func (s *stubRatings) Report(ctx context.Context, input ratings.ReportInput) error {
	s.reported = input
	return s.err
}

func (s *stubRatings) Summary(ctx context.Context, sellerID uuid.UUID) (*ratings.Summary, error) {
	return &ratings.Summary{SellerID: sellerID, Count: 2, Average: decimal.RequireFromString("4.5")}, s.err
}

func (s *stubRatings) PendingFor(ctx context.Context, buyerID uuid.UUID) (*ratings.Pending, error) {
	return &ratings.Pending{}, s.err
}

func (s *stubRatings) List(ctx context.Context, userID uuid.UUID, dir ratings.Direction, params pagination.Params) (*ratings.RatingList, error) {
	return &ratings.RatingList{}, s.err
}

func TestCreateRating(t *testing.T) {
	svc := &stubRatings{}
	buyer := uuid.New()
	order := uuid.New()

	body := `{"order_id":"` + order.String() + `","value":4,"comment":"great"}`
	rec := serve(CreateRating(svc, discardLogger()), newRequest(http.MethodPost, "/ratings", body, buyer, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.BuyerID != buyer || svc.created.OrderID != order || svc.created.Value != 4 {
		t.Fatalf("unexpected input %+v", svc.created)
	}
}

func TestCreateRatingRejectsOutOfRangeValue(t *testing.T) {
	body := `{"order_id":"` + uuid.NewString() + `","value":6}`
	rec := serve(CreateRating(&stubRatings{}, discardLogger()), newRequest(http.MethodPost, "/ratings", body, uuid.New(), nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCreateRatingOnUndeliveredOrder(t *testing.T) {
	svc := &stubRatings{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is not delivered")}
	body := `{"order_id":"` + uuid.NewString() + `","value":3}`
	rec := serve(CreateRating(svc, discardLogger()), newRequest(http.MethodPost, "/ratings", body, uuid.New(), nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestSellerRatingSummaryIsPublic(t *testing.T) {
	seller := uuid.New()
	req := newRequest(http.MethodGet, "/ratings/user/x", "", uuid.Nil, map[string]string{"userId": seller.String()})
	rec := serve(SellerRatingSummary(&stubRatings{}, discardLogger()), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if body := rec.Body.String(); !containsAll(body, `"total_ratings":2`, `"average_rating":4.5`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestUpdateRatingPartial(t *testing.T) {
	svc := &stubRatings{}
	ratingID := uuid.New()
	req := newRequest(http.MethodPut, "/ratings/x", `{"value":2}`, uuid.New(), map[string]string{"id": ratingID.String()})
	rec := serve(UpdateRating(svc, discardLogger()), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.updated.Value == nil || *svc.updated.Value != 2 || svc.updated.Comment != nil {
		t.Fatalf("unexpected update %+v", svc.updated)
	}
}

func TestReportRatingByAuthorRejected(t *testing.T) {
	svc := &stubRatings{err: pkgerrors.New(pkgerrors.CodeValidation, "cannot report your own rating")}
	req := newRequest(http.MethodPost, "/ratings/x/report", `{"reason":"spam"}`, uuid.New(), map[string]string{"id": uuid.NewString()})
	rec := serve(ReportRating(svc, discardLogger()), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.reported.Reason != "spam" {
		t.Fatalf("expected reason forwarded, got %q", svc.reported.Reason)
	}
}
