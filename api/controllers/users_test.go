package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/internal/users"
)

type stubUsers struct {
	last users.UpdateProfileInput
}

func (s *stubUsers) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubUsers) UpdateMe(ctx context.Context, userID uuid.UUID, input users.UpdateProfileInput) (*users.UserDTO, error) {
	s.last = input
	dto := &users.UserDTO{ID: userID}
	if input.Address != nil {
		city := input.Address.City
		dto.Address = &users.AddressDTO{City: &city}
	}
	return dto, nil
}

func TestUserUpdateMePassesAddress(t *testing.T) {
	svc := &stubUsers{}
	body := `{"phone":"+56 2 2345 6789","address":{"city":"Concepción","region":"Biobío","country":"Chile","province":"Concepción"}}`
	rec := serve(UserUpdateMe(svc, discardLogger()), newRequest(http.MethodPut, "/api/v1/users/me", body, uuid.New(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.last.Address == nil || svc.last.Address.Region != "Biobío" {
		t.Fatalf("address not forwarded: %+v", svc.last.Address)
	}
	if !strings.Contains(rec.Body.String(), `"city":"Concepción"`) {
		t.Fatalf("expected address in body, got %s", rec.Body.String())
	}
}

func TestUserUpdateMeRejectsLongAddressField(t *testing.T) {
	svc := &stubUsers{}
	body := `{"address":{"city":"` + strings.Repeat("x", 101) + `"}}`
	rec := serve(UserUpdateMe(svc, discardLogger()), newRequest(http.MethodPut, "/api/v1/users/me", body, uuid.New(), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body); code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR got %s", code)
	}
}
