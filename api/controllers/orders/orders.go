package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meghshyam-labs/vyapar-backend/api/middleware"
	"github.com/meghshyam-labs/vyapar-backend/api/responses"
	"github.com/meghshyam-labs/vyapar-backend/api/validators"
	"github.com/meghshyam-labs/vyapar-backend/internal/checkout"
	internalorders "github.com/meghshyam-labs/vyapar-backend/internal/orders"
	"github.com/meghshyam-labs/vyapar-backend/internal/payments"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
)

// Create handles checkout submission. On an explicit account opt-in the
// minted session credential is returned both as an HttpOnly cookie and in
// the body for non-browser clients. A valid session cookie on the request
// supplies the account id when the payload carries none.
func Create(svc checkout.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier in payload"))
			return
		}
		if input.Customer.AccountID == nil {
			if accountID, ok := middleware.SessionUserID(r.Context()); ok {
				input.Customer.AccountID = &accountID
			}
		}

		out, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if out.SessionToken != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     middleware.SessionCookieName,
				Value:    out.SessionToken,
				Path:     "/",
				MaxAge:   int(cfg.JWT.SessionTTL().Seconds()),
				HttpOnly: true,
				Secure:   cfg.App.IsProd(),
				SameSite: http.SameSiteLaxMode,
			})
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			Order:        newOrderResponse(out.Order),
			SessionToken: out.SessionToken,
		})
	}
}

// Detail returns one order with its items and shipping record.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CreateIntent registers the gateway-side order for an online payment.
func CreateIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, intent)
	}
}

// VerifyPayment checks the gateway callback signature and completes the
// payment.
func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Verify(r.Context(), orderID, payments.VerifyInput{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
			Signature:        req.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// UpdateStatus moves an order through the fulfillment state machine.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		order, err := svc.Transition(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AddTracking attaches courier details, advancing undispatched orders to
// shipped.
func AddTracking(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addTrackingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AddTracking(r.Context(), orderID, internalorders.TrackingInput{
			Courier:     req.Courier,
			TrackingID:  req.TrackingID,
			TrackingURL: req.TrackingURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
