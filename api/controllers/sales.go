package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/inventory-tracker/api/responses"
	"github.com/angelmondragon/inventory-tracker/api/validators"
	salesvc "github.com/angelmondragon/inventory-tracker/internal/sales"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
)

// SaleProcessor records a sale and deducts stock atomically.
type SaleProcessor interface {
	ProcessSale(ctx context.Context, req salesvc.SaleRequest) (*salesvc.SaleResult, error)
}

type saleRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	SaleDate  *string `json:"sale_date,omitempty"`
}

func (r saleRequest) toSaleRequest() (salesvc.SaleRequest, error) {
	req := salesvc.SaleRequest{ProductID: r.ProductID, Quantity: r.Quantity}
	if r.SaleDate == nil || strings.TrimSpace(*r.SaleDate) == "" {
		return req, nil
	}
	at, err := salesvc.ParseDateBound(strings.TrimSpace(*r.SaleDate), false)
	if err != nil {
		return req, err
	}
	req.SaleDate = &at
	return req, nil
}

// SaleCreate handles POST /api/v1/sales.
func SaleCreate(processor SaleProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if processor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale processor unavailable"))
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := payload.toSaleRequest()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := processor.ProcessSale(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SaleList handles GET /api/v1/sales with optional product_id, start and end.
func SaleList(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		filter, err := parseSaleFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListSales(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func SaleGet(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		id, err := validators.ParseURLID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.GetSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}

// SaleVoid handles DELETE /api/v1/sales/{saleId}; stock is returned.
func SaleVoid(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale service unavailable"))
			return
		}

		id, err := validators.ParseURLID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VoidSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func parseSaleFilter(r *http.Request) (salesvc.Filter, error) {
	var filter salesvc.Filter

	productID, err := validators.ParseQueryID(r, "product_id")
	if err != nil {
		return filter, err
	}
	filter.ProductID = productID

	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("start")); raw != "" {
		start, err := salesvc.ParseDateBound(raw, false)
		if err != nil {
			return filter, err
		}
		filter.Start = &start
	}
	if raw := strings.TrimSpace(query.Get("end")); raw != "" {
		end, err := salesvc.ParseDateBound(raw, true)
		if err != nil {
			return filter, err
		}
		filter.End = &end
	}
	return filter, nil
}
