package users

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/internal/testdb"
	"github.com/roperito/roperito-backend/pkg/db"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
)

func TestMeAndUpdateMe(t *testing.T) {
	conn := testdb.Open(t)
	fx := testdb.NewFixtures(t, conn)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	user := fx.User("Sofia")
	ctx := context.Background()

	me, err := svc.Me(ctx, user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Name != "Sofia" || me.Phone != nil {
		t.Fatalf("unexpected profile %+v", me)
	}

	name, phone := " Sofía R. ", "+56 9 1234 5678"
	updated, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{Name: &name, Phone: &phone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Sofía R." || updated.Phone == nil || *updated.Phone != phone {
		t.Fatalf("update not applied: %+v", updated)
	}

	blank := ""
	cleared, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{Phone: &blank})
	if err != nil {
		t.Fatalf("clear phone: %v", err)
	}
	if cleared.Phone != nil {
		t.Fatalf("expected phone cleared, got %q", *cleared.Phone)
	}

	if _, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{Name: &blank}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}
	if _, err := svc.Me(ctx, uuid.New()); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryEmailLookupIsCaseInsensitive(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	created, err := repo.Create(context.Background(), CreateUserDTO{Name: "Bruno", Email: " Bruno@Example.com ", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "bruno@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	found, err := repo.FindByEmail(context.Background(), "BRUNO@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != created.ID {
		t.Fatal("lookup returned another user")
	}
}

func TestUpdateMeUpsertsAddress(t *testing.T) {
	conn := testdb.Open(t)
	fx := testdb.NewFixtures(t, conn)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	user := fx.User("Camila")
	ctx := context.Background()

	me, err := svc.Me(ctx, user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Address != nil {
		t.Fatalf("expected no address yet, got %+v", me.Address)
	}

	first, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{Address: &AddressInput{
		City: "Valparaíso", Region: "Valparaíso", Country: "Chile", Province: " Valparaíso ",
	}})
	if err != nil {
		t.Fatalf("insert address: %v", err)
	}
	if first.Address == nil || *first.Address.City != "Valparaíso" || *first.Address.Province != "Valparaíso" {
		t.Fatalf("address not stored: %+v", first.Address)
	}

	name := "Camila P."
	second, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{Name: &name, Address: &AddressInput{
		City: "Temuco", Country: "Chile",
	}})
	if err != nil {
		t.Fatalf("replace address: %v", err)
	}
	if second.Name != name {
		t.Fatalf("expected name %q got %q", name, second.Name)
	}
	if *second.Address.City != "Temuco" || second.Address.Region != nil || second.Address.Province != nil {
		t.Fatalf("address not replaced: %+v", second.Address)
	}

	var rows int64
	if err := conn.Table("addresses").Where("user_id = ?", user.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one address row, got %d", rows)
	}

	if _, err := svc.UpdateMe(ctx, user.ID, UpdateProfileInput{Address: &AddressInput{City: "  "}}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank address, got %v", err)
	}
}

func TestUpdateMeRollsBackOnMissingUser(t *testing.T) {
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ghost := uuid.New()
	_, err = svc.UpdateMe(context.Background(), ghost, UpdateProfileInput{Address: &AddressInput{City: "Arica"}})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	var rows int64
	if err := conn.Table("addresses").Where("user_id = ?", ghost).Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected no address rows, got %d", rows)
	}
}
