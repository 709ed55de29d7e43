package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/enums"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/metrics"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

// ExpiredReason is recorded on orders cancelled by the expiry job.
const ExpiredReason = "expired"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier fans lifecycle events out to user sessions. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, event enums.EventName, data any, userIDs ...uuid.UUID)
}

// Service owns the product reservation and order state machine.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	Get(ctx context.Context, orderID, requesterID uuid.UUID) (*OrderDetail, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error)
	ConfirmDelivery(ctx context.Context, orderID, requesterID uuid.UUID) (*OrderDetail, error)
	Cancel(ctx context.Context, input CancelInput) (*OrderDetail, error)
	DeleteByProduct(ctx context.Context, productID, requesterID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, role PartyRole, params pagination.Params) (*OrderList, error)
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	metrics  *metrics.OrderMetrics
}

// NewService wires the order ledger. m may be nil.
func NewService(repo Repository, tx txRunner, notifier Notifier, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, metrics: m}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.Invalid("product_id", "product_id is required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			return notFoundOr(err, "product", "load product")
		}
		if !product.IsActive {
			return pkgerrors.NotFound("product")
		}
		if product.UserID == input.BuyerID {
			return pkgerrors.Invalid("product_id", "you cannot order your own product")
		}
		if product.Status != enums.ProductStatusAvailable {
			return pkgerrors.Conflict("product is not available")
		}

		reserved, err := repo.MoveProductStatus(ctx, product.ID, enums.ProductStatusAvailable, enums.ProductStatusReserved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve product")
		}
		if !reserved {
			s.metrics.ReservationConflict()
			return pkgerrors.Conflict("product is not available")
		}

		order := &models.Order{
			ProductID:       product.ID,
			SellerID:        product.UserID,
			BuyerID:         input.BuyerID,
			Price:           product.Price,
			Status:          enums.OrderStatusPending,
			ShippingAddress: trimmed(input.ShippingAddress),
			PaymentMethod:   trimmed(input.PaymentMethod),
		}
		if err := repo.Create(ctx, order); err != nil {
			// SQLite reports the columns instead of the index name, so any
			// unique violation here is treated as the open-order index.
			if db.IsUniqueViolation(err, "") {
				s.metrics.ReservationConflict()
				return pkgerrors.Conflict("product is not available")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		detail, err = repo.FindDetail(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(enums.OrderStatusPending))
	s.notifier.Notify(ctx, enums.EventNewOrder, OrderEvent{Order: detail}, detail.BuyerID, detail.SellerID)
	return detail, nil
}

func (s *service) Get(ctx context.Context, orderID, requesterID uuid.UUID) (*OrderDetail, error) {
	detail, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order", "load order")
	}
	if detail.BuyerID != requesterID && detail.SellerID != requesterID {
		return nil, pkgerrors.NotFound("order")
	}
	return detail, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDetail, error) {
	next, err := enums.ParseOrderStatus(strings.TrimSpace(input.Status))
	if err != nil {
		return nil, pkgerrors.Invalid("status", err.Error())
	}
	if next == enums.OrderStatusCancelled {
		return nil, pkgerrors.Invalid("status", "use the cancel endpoint to cancel an order")
	}

	var (
		detail   *OrderDetail
		previous enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if order.SellerID != input.RequesterID {
			return pkgerrors.Forbidden("only the seller can update the order status")
		}
		if !order.Status.CanAdvanceTo(next) {
			return stateConflict(order.Status, next)
		}
		previous = order.Status

		detail, err = s.advance(ctx, repo, order, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(next))
	s.notifier.Notify(ctx, enums.EventStatusChanged, OrderEvent{Order: detail, PreviousStatus: previous}, detail.BuyerID)
	return detail, nil
}

func (s *service) ConfirmDelivery(ctx context.Context, orderID, requesterID uuid.UUID) (*OrderDetail, error) {
	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if order.BuyerID != requesterID {
			return pkgerrors.Forbidden("only the buyer can confirm delivery")
		}
		if order.Status != enums.OrderStatusShipped {
			return stateConflict(order.Status, enums.OrderStatusDelivered)
		}
		detail, err = s.advance(ctx, repo, order, enums.OrderStatusDelivered)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(enums.OrderStatusDelivered))
	s.notifier.Notify(ctx, enums.EventStatusChanged,
		OrderEvent{Order: detail, PreviousStatus: enums.OrderStatusShipped}, detail.SellerID)
	return detail, nil
}

// advance moves order to next and, on delivery, sells the product.
func (s *service) advance(ctx context.Context, repo Repository, order *models.Order, next enums.OrderStatus) (*OrderDetail, error) {
	moved, err := repo.MoveStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !moved {
		return nil, pkgerrors.Conflict("order was modified concurrently")
	}
	if next == enums.OrderStatusDelivered {
		sold, err := repo.MoveProductStatus(ctx, order.ProductID, enums.ProductStatusReserved, enums.ProductStatusSold)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark product sold")
		}
		if !sold {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not reserved")
		}
	}
	detail, err := repo.FindDetail(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return detail, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*OrderDetail, error) {
	var reason *string
	if trimmed := strings.TrimSpace(input.Reason); trimmed != "" {
		reason = &trimmed
	}

	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if !order.IsParty(input.RequesterID) {
			return pkgerrors.Forbidden("only the buyer or the seller can cancel the order")
		}
		detail, err = s.cancel(ctx, repo, order, reason, &input.RequesterID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(enums.OrderStatusCancelled))
	s.notifier.Notify(ctx, enums.EventOrderCancelled, OrderEvent{Order: detail}, detail.BuyerID, detail.SellerID)
	return detail, nil
}

func (s *service) cancel(ctx context.Context, repo Repository, order *models.Order, reason *string, by *uuid.UUID) (*OrderDetail, error) {
	if !order.Status.Cancellable() {
		return nil, stateConflict(order.Status, enums.OrderStatusCancelled)
	}
	ok, err := repo.MarkCancelled(ctx, order.ID, order.Status, reason, by)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}
	if !ok {
		return nil, pkgerrors.Conflict("order was modified concurrently")
	}
	if err := releaseProduct(ctx, repo, order.ProductID); err != nil {
		return nil, err
	}
	detail, err := repo.FindDetail(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return detail, nil
}

func (s *service) DeleteByProduct(ctx context.Context, productID, requesterID uuid.UUID) error {
	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindLatestOpenByProduct(ctx, productID)
		if err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if !order.IsParty(requesterID) {
			return pkgerrors.Forbidden("only the buyer or the seller can cancel the order")
		}
		if !order.Status.Cancellable() {
			return stateConflict(order.Status, enums.OrderStatusCancelled)
		}
		detail, err = repo.FindDetail(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		return releaseProduct(ctx, repo, order.ProductID)
	})
	if err != nil {
		return err
	}

	s.metrics.Transition("deleted")
	s.notifier.Notify(ctx, enums.EventOrderCancelled, OrderEvent{Order: detail, Deleted: true}, detail.BuyerID, detail.SellerID)
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, role PartyRole, params pagination.Params) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Invalid("cursor", "invalid cursor")
	}
	list, err := s.repo.ListForUser(ctx, userID, role, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

// ExpirePending cancels pending orders created before cutoff and releases
// their products. Each order commits on its own so one failure does not
// hold back the rest.
func (s *service) ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("find pending orders: %w", err)
	}

	reason := ExpiredReason
	expired := 0
	var errs error
	for i := range stale {
		order := stale[i]
		var detail *OrderDetail
		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			detail, err = s.cancel(ctx, s.repo.WithTx(tx), &order, &reason, nil)
			return err
		})
		if txErr != nil {
			if pkgerrors.CodeOf(txErr) == pkgerrors.CodeConflict {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, txErr))
			continue
		}
		expired++
		s.metrics.Transition(string(enums.OrderStatusCancelled))
		s.notifier.Notify(ctx, enums.EventOrderCancelled, OrderEvent{Order: detail}, detail.BuyerID, detail.SellerID)
	}
	return expired, errs
}

func releaseProduct(ctx context.Context, repo Repository, productID uuid.UUID) error {
	released, err := repo.MoveProductStatus(ctx, productID, enums.ProductStatusReserved, enums.ProductStatusAvailable)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release product")
	}
	if !released {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not reserved")
	}
	return nil
}

func stateConflict(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

func notFoundOr(err error, entity, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.NotFound(entity)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
