package inquiries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
)

const maxMessageLength = 1000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier fans events out to user sessions.
type Notifier interface {
	Notify(ctx context.Context, event enums.EventName, data any, userIDs ...uuid.UUID)
}

// Service is the buyer-seller inquiry log.
type Service interface {
	Send(ctx context.Context, input SendInput) (*InquiryDetail, error)
	List(ctx context.Context, userID uuid.UUID) ([]InquiryDetail, error)
	Reply(ctx context.Context, input ReplyInput) (*InquiryDetail, error)
	IsPotentialBuyer(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	PotentialBuyers(ctx context.Context, productID, requesterID uuid.UUID) ([]PotentialBuyer, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, tx txRunner, notifier Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inquiries repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Send(ctx context.Context, input SendInput) (*InquiryDetail, error) {
	message, err := cleanText("message", input.Message)
	if err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.Invalid("product_id", "product_id is required")
	}

	var detail *InquiryDetail
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			return notFoundOr(err, "product", "load product")
		}
		if product.UserID == input.BuyerID {
			return pkgerrors.Invalid("product_id", "you cannot send a message about your own product")
		}
		if input.SellerID != nil && *input.SellerID != product.UserID {
			return pkgerrors.Invalid("seller_id", "seller does not own this product")
		}

		inquiry := &models.Inquiry{UserID: input.BuyerID, ProductID: product.ID, Message: message}
		if err := repo.Upsert(ctx, inquiry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save inquiry")
		}
		detail, err = repo.FindDetailByPair(ctx, input.BuyerID, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inquiry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, enums.EventNewBuyerMessage, detail, detail.SellerID)
	return detail, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]InquiryDetail, error) {
	rows, err := s.repo.ListVisibleTo(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inquiries")
	}
	if rows == nil {
		rows = []InquiryDetail{}
	}
	return rows, nil
}

func (s *service) Reply(ctx context.Context, input ReplyInput) (*InquiryDetail, error) {
	response, err := cleanText("response", input.Response)
	if err != nil {
		return nil, err
	}
	if input.InquiryID == uuid.Nil {
		return nil, pkgerrors.Invalid("id", "id is required")
	}

	var detail *InquiryDetail
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindDetail(ctx, input.InquiryID)
		if err != nil {
			return notFoundOr(err, "inquiry", "load inquiry")
		}
		if current.SellerID != input.SellerID {
			return pkgerrors.Forbidden("only the seller can reply to this message")
		}
		if err := repo.SetResponse(ctx, current.ID, response, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save reply")
		}
		detail, err = repo.FindDetail(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inquiry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, enums.EventSellerReply, detail, detail.BuyerID)
	return detail, nil
}

func (s *service) IsPotentialBuyer(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if productID == uuid.Nil {
		return false, pkgerrors.Invalid("product_id", "product_id is required")
	}
	ok, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check inquiry")
	}
	return ok, nil
}

func (s *service) PotentialBuyers(ctx context.Context, productID, requesterID uuid.UUID) ([]PotentialBuyer, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product", "load product")
	}
	if product.UserID != requesterID {
		return nil, pkgerrors.Forbidden("only the seller can see potential buyers")
	}
	rows, err := s.repo.ListPotentialBuyers(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list potential buyers")
	}
	if rows == nil {
		rows = []PotentialBuyer{}
	}
	return rows, nil
}

func cleanText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", pkgerrors.Invalid(field, field+" is required")
	}
	if len([]rune(value)) > maxMessageLength {
		return "", pkgerrors.Invalid(field, fmt.Sprintf("%s must be at most %d characters", field, maxMessageLength))
	}
	return value, nil
}

func notFoundOr(err error, entity, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.NotFound(entity)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
