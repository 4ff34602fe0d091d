package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-tracker/internal/products"
	"github.com/angelmondragon/inventory-tracker/internal/revenue"
	"github.com/angelmondragon/inventory-tracker/internal/sales"
	"github.com/angelmondragon/inventory-tracker/pkg/config"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
	"github.com/angelmondragon/inventory-tracker/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body.Error
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode success envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

type stubProductService struct {
	products.Service
	added      *products.ProductInput
	category   string
	term       string
	quantityTo int
	deleted    int64
	err        error
}

func (s *stubProductService) AddProduct(_ context.Context, input products.ProductInput) (*products.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.added = &input
	return &products.ProductDTO{ID: 1, Name: input.Name, Price: input.Price, Quantity: input.Quantity, LowStockThreshold: input.LowStockThreshold}, nil
}

func (s *stubProductService) GetProduct(_ context.Context, id int64) (*products.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &products.ProductDTO{ID: id, Name: "Widget"}, nil
}

func (s *stubProductService) ListProducts(context.Context) ([]products.ProductDTO, error) {
	return []products.ProductDTO{{ID: 1, Name: "Widget"}, {ID: 2, Name: "Gadget"}}, s.err
}

func (s *stubProductService) ListByCategory(_ context.Context, category string) ([]products.ProductDTO, error) {
	s.category = category
	return []products.ProductDTO{{ID: 1, Category: category}}, s.err
}

func (s *stubProductService) SearchProducts(_ context.Context, term string) ([]products.ProductDTO, error) {
	s.term = term
	return []products.ProductDTO{}, s.err
}

func (s *stubProductService) CheckLowStockAlerts(context.Context) ([]products.ProductDTO, error) {
	return []products.ProductDTO{{ID: 3, Quantity: 2, LowStockThreshold: 10, IsLowStock: true}}, s.err
}

func (s *stubProductService) UpdateQuantity(_ context.Context, id int64, quantity int) (*products.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.quantityTo = quantity
	return &products.ProductDTO{ID: id, Quantity: quantity}, nil
}

func (s *stubProductService) DeleteProduct(_ context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = id
	return nil
}

type stubProcessor struct {
	got    *sales.SaleRequest
	result *sales.SaleResult
	err    error
}

func (s *stubProcessor) ProcessSale(_ context.Context, req sales.SaleRequest) (*sales.SaleResult, error) {
	s.got = &req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubSaleService struct {
	filter sales.Filter
	voided int64
	err    error
}

func (s *stubSaleService) GetSale(_ context.Context, id int64) (*sales.SaleDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sales.SaleDTO{ID: id, QuantitySold: 2}, nil
}

func (s *stubSaleService) ListSales(_ context.Context, filter sales.Filter) ([]sales.SaleDTO, error) {
	s.filter = filter
	return []sales.SaleDTO{}, s.err
}

func (s *stubSaleService) VoidSale(_ context.Context, id int64) (*sales.VoidResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.voided = id
	return &sales.VoidResult{Sale: sales.SaleDTO{ID: id}, RestoredQuantity: 2}, nil
}

type stubRevenue struct {
	summary *revenue.Summary
	report  *revenue.YearlyReport
	err     error
}

func (s *stubRevenue) Monthly(context.Context, int, int) (*revenue.Summary, error) {
	return s.summary, s.err
}

func (s *stubRevenue) Yearly(context.Context, int) (*revenue.YearlyReport, error) {
	return s.report, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestProductCreateDefaultsThreshold(t *testing.T) {
	svc := &stubProductService{}
	body := `{"name":"Widget","category":"tools","price":19.99,"quantity":5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	w := httptest.NewRecorder()

	ProductCreate(svc, testLogger()).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.added == nil || svc.added.LowStockThreshold != products.DefaultLowStockThreshold {
		t.Fatalf("expected default threshold, got %+v", svc.added)
	}
	if !svc.added.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected price %s", svc.added.Price)
	}
}

func TestProductCreateRejectsInvalidBody(t *testing.T) {
	cases := map[string]string{
		"missing quantity": `{"name":"Widget","category":"tools","price":1}`,
		"negative qty":     `{"name":"Widget","category":"tools","price":1,"quantity":-1}`,
		"zero price":       `{"name":"Widget","category":"tools","price":0,"quantity":1}`,
		"unknown field":    `{"name":"Widget","category":"tools","price":1,"quantity":1,"sku":"x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubProductService{}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
			w := httptest.NewRecorder()

			ProductCreate(svc, testLogger()).ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if got := decodeError(t, w).Code; got != string(pkgerrors.CodeValidation) {
				t.Fatalf("expected validation code, got %s", got)
			}
			if svc.added != nil {
				t.Fatal("service must not be called for invalid input")
			}
		})
	}
}

func TestProductListRoutesByCategory(t *testing.T) {
	svc := &stubProductService{}
	w := httptest.NewRecorder()
	ProductList(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products?category=tools", nil))

	if w.Code != http.StatusOK || svc.category != "tools" {
		t.Fatalf("expected category listing, status=%d category=%q", w.Code, svc.category)
	}

	w = httptest.NewRecorder()
	ProductList(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	var list []products.ProductDTO
	decodeData(t, w, &list)
	if len(list) != 2 {
		t.Fatalf("expected full listing, got %d", len(list))
	}
}

func TestProductSearchSanitizesTerm(t *testing.T) {
	svc := &stubProductService{}
	w := httptest.NewRecorder()
	ProductSearch(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/search?q=%20wid%20", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.term != "wid" {
		t.Fatalf("expected trimmed term, got %q", svc.term)
	}
}

func TestProductLowStock(t *testing.T) {
	w := httptest.NewRecorder()
	ProductLowStock(&stubProductService{}, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/low-stock", nil))

	var list []products.ProductDTO
	decodeData(t, w, &list)
	if len(list) != 1 || !list[0].IsLowStock {
		t.Fatalf("unexpected low stock payload %+v", list)
	}
}

func TestProductGetMapsNotFound(t *testing.T) {
	svc := &stubProductService{err: products.NotFoundError(42)}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil), "productId", "42")
	w := httptest.NewRecorder()

	ProductGet(svc, testLogger()).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := decodeError(t, w).Code; got != string(pkgerrors.CodeProductNotFound) {
		t.Fatalf("expected PRODUCT_NOT_FOUND, got %s", got)
	}
}

func TestProductGetRejectsBadID(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil), "productId", "abc")
	w := httptest.NewRecorder()

	ProductGet(&stubProductService{}, testLogger()).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestProductSetQuantityAndDelete(t *testing.T) {
	svc := &stubProductService{}
	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/v1/products/5/quantity", strings.NewReader(`{"quantity":0}`)), "productId", "5")
	w := httptest.NewRecorder()
	ProductSetQuantity(svc, testLogger()).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.quantityTo != 0 {
		t.Fatalf("expected quantity 0, got %d", svc.quantityTo)
	}

	req = withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/products/5", nil), "productId", "5")
	w = httptest.NewRecorder()
	ProductDelete(svc, testLogger()).ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || svc.deleted != 5 {
		t.Fatalf("expected 204 and delete of 5, got %d / %d", w.Code, svc.deleted)
	}
}

func TestProductDeleteConflict(t *testing.T) {
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeConflict, "product 5 has recorded sales")}
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/products/5", nil), "productId", "5")
	w := httptest.NewRecorder()

	ProductDelete(svc, testLogger()).ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if msg := decodeError(t, w).Message; msg != "product 5 has recorded sales" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSaleCreate(t *testing.T) {
	processor := &stubProcessor{result: &sales.SaleResult{Sale: sales.SaleDTO{ID: 9, QuantitySold: 2}, RemainingQuantity: 8}}
	body := `{"product_id":3,"quantity":2,"sale_date":"2026-03-10"}`
	w := httptest.NewRecorder()

	SaleCreate(processor, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body)))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if processor.got == nil || processor.got.ProductID != 3 || processor.got.Quantity != 2 {
		t.Fatalf("unexpected request %+v", processor.got)
	}
	want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	if processor.got.SaleDate == nil || !processor.got.SaleDate.Equal(want) {
		t.Fatalf("expected sale date %v, got %v", want, processor.got.SaleDate)
	}

	var result sales.SaleResult
	decodeData(t, w, &result)
	if result.RemainingQuantity != 8 {
		t.Fatalf("unexpected remaining quantity %d", result.RemainingQuantity)
	}
}

func TestSaleCreateValidation(t *testing.T) {
	cases := map[string]string{
		"zero quantity":   `{"product_id":3,"quantity":0}`,
		"missing product": `{"quantity":1}`,
		"bad date":        `{"product_id":3,"quantity":1,"sale_date":"March"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			processor := &stubProcessor{}
			w := httptest.NewRecorder()

			SaleCreate(processor, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body)))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if processor.got != nil {
				t.Fatal("processor must not run for invalid input")
			}
		})
	}
}

func TestSaleCreateInsufficientStock(t *testing.T) {
	processor := &stubProcessor{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for product 3").
		WithDetails(map[string]any{"product_id": int64(3), "requested": 5, "available": 2})}
	w := httptest.NewRecorder()

	SaleCreate(processor, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"product_id":3,"quantity":5}`)))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	apiErr := decodeError(t, w)
	if apiErr.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
	if details, ok := apiErr.Details.(map[string]any); !ok || details["available"] != float64(2) {
		t.Fatalf("expected available in details, got %#v", apiErr.Details)
	}
}

func TestSaleCreateStorageFailureIsRetryable(t *testing.T) {
	processor := &stubProcessor{err: pkgerrors.Wrap(pkgerrors.CodeStorage, errors.New("database is locked"), "record sale")}
	w := httptest.NewRecorder()

	SaleCreate(processor, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"product_id":3,"quantity":1}`)))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !decodeError(t, w).Retryable {
		t.Fatal("expected retryable flag")
	}
}

func TestSaleListParsesFilters(t *testing.T) {
	svc := &stubSaleService{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales?product_id=4&start=2026-03-01&end=2026-03-31", nil)

	SaleList(svc, testLogger()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.filter.ProductID == nil || *svc.filter.ProductID != 4 {
		t.Fatalf("expected product filter 4, got %v", svc.filter.ProductID)
	}
	wantEnd := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if svc.filter.End == nil || !svc.filter.End.Equal(wantEnd) {
		t.Fatalf("expected inclusive end %v, got %v", wantEnd, svc.filter.End)
	}
	if svc.filter.Start == nil || svc.filter.Start.Day() != 1 {
		t.Fatalf("unexpected start %v", svc.filter.Start)
	}
}

func TestSaleListRejectsBadFilters(t *testing.T) {
	for _, query := range []string{"product_id=x", "start=yesterday", "end=2026-13-01"} {
		svc := &stubSaleService{}
		w := httptest.NewRecorder()
		SaleList(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales?"+query, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, w.Code)
		}
	}
}

func TestSaleGetAndVoid(t *testing.T) {
	svc := &stubSaleService{}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/sales/7", nil), "saleId", "7")
	w := httptest.NewRecorder()
	SaleGet(svc, testLogger()).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/sales/7", nil), "saleId", "7")
	w = httptest.NewRecorder()
	SaleVoid(svc, testLogger()).ServeHTTP(w, req)
	if w.Code != http.StatusOK || svc.voided != 7 {
		t.Fatalf("expected void of 7, got %d / %d", w.Code, svc.voided)
	}
	var result sales.VoidResult
	decodeData(t, w, &result)
	if result.RestoredQuantity != 2 {
		t.Fatalf("unexpected restored quantity %d", result.RestoredQuantity)
	}
}

func TestRevenueMonthly(t *testing.T) {
	svc := &stubRevenue{summary: &revenue.Summary{Year: 2026, Month: 3, MonthName: "MARCH", TotalTransactions: 2, TotalRevenue: decimal.RequireFromString("499.95")}}
	w := httptest.NewRecorder()

	RevenueMonthly(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/revenue/monthly?year=2026&month=3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var summary revenue.Summary
	decodeData(t, w, &summary)
	if !summary.TotalRevenue.Equal(decimal.RequireFromString("499.95")) {
		t.Fatalf("unexpected revenue %s", summary.TotalRevenue)
	}
}

func TestRevenueMonthlyWithoutSales(t *testing.T) {
	w := httptest.NewRecorder()

	RevenueMonthly(&stubRevenue{}, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/revenue/monthly?year=2026&month=2", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if msg := decodeError(t, w).Message; msg != "no sales recorded for FEBRUARY 2026" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRevenueRequiresPeriod(t *testing.T) {
	for _, query := range []string{"", "year=2026", "year=2026&month=13", "year=0&month=1"} {
		w := httptest.NewRecorder()
		RevenueMonthly(&stubRevenue{}, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/revenue/monthly?"+query, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", query, w.Code)
		}
	}

	w := httptest.NewRecorder()
	RevenueYearly(&stubRevenue{}, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/revenue/yearly", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without year, got %d", w.Code)
	}
}

func TestRevenueYearly(t *testing.T) {
	svc := &stubRevenue{report: &revenue.YearlyReport{Year: 2026, Months: []revenue.Summary{{Month: 1}, {Month: 3}}, TotalTransactions: 3}}
	w := httptest.NewRecorder()

	RevenueYearly(svc, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/revenue/yearly?year=2026", nil))

	var report revenue.YearlyReport
	decodeData(t, w, &report)
	if len(report.Months) != 2 || report.TotalTransactions != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	w := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), stubPinger{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, w, &payload)
	if payload.Checks["redis"] != "disabled" || payload.Checks["database"] != "ok" {
		t.Fatalf("unexpected checks %v", payload.Checks)
	}

	w = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), stubPinger{err: errors.New("down")}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when database is down, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header, got %q", w.Header().Get(envHeader))
	}
}
