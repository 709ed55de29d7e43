package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/api/validators"
	"github.com/roperito/roperito-backend/internal/orders"
	"github.com/roperito/roperito-backend/pkg/logger"
)

type createOrderRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	ShippingAddress *string   `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	PaymentMethod   *string   `json:"payment_method,omitempty" validate:"omitempty,max=50"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Create(ctx, orders.CreateOrderInput{
			ProductID:       req.ProductID,
			BuyerID:         userID,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithOrderID(ctx, order.ID.String()), "order created")
		responses.WriteCreated(w, order)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := validators.Struct(req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(ctx, orders.UpdateStatusInput{
			OrderID:     orderID,
			Status:      req.Status,
			RequesterID: userID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ConfirmDelivery(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.ConfirmDelivery(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req cancelOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(ctx, orders.CancelInput{OrderID: orderID, Reason: req.Reason, RequesterID: userID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// DeleteOrderByProduct drops the newest live order on a product.
func DeleteOrderByProduct(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteByProduct(r.Context(), productID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID, "deleted": true})
	}
}
