package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hedgeai/marketdata/src/data"
	"github.com/hedgeai/marketdata/src/eventmodels"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	service  *data.MarketDataService
	adminKey string
	decoder  = newQueryDecoder()
)

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func NewErrorResponse(errType string, message string) *errorResponse {
	return &errorResponse{
		Type: errType,
		Msg:  message,
	}
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("setResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := NewErrorResponse(errType, err.Error())
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Errorf("setErrorResponse: encode: %v", encodeErr)
	}
}

// The storefront widget keys on ok/error, so the quote endpoint carries its
// own failure envelope.
type quoteErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func setQuoteErrorResponse(statusCode int, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := quoteErrorResponse{OK: false, Error: err.Error()}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Errorf("setQuoteErrorResponse: encode: %v", encodeErr)
	}
}

func decodeQuery(req interface{}, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("decodeQuery: failed to parse form: %w", err)
	}

	if err := decoder.Decode(req, r.Form); err != nil {
		return fmt.Errorf("decodeQuery: failed to decode query: %w", err)
	}

	return nil
}

func statusCodeFromError(err error, fallback int) int {
	var webError *eventmodels.WebError
	if errors.As(err, &webError) {
		return webError.StatusCode
	}

	log.Warnf("failed to get status code from error: %v", err)

	return fallback
}

func formatCachedAt(snapshot *eventmodels.SpotSnapshot) interface{} {
	if snapshot == nil || snapshot.CachedAt.IsZero() {
		return nil
	}

	return snapshot.CachedAt.Format(timestampLayout)
}

// parseExpiryDate accepts the dropdown value ("2025-10-28") as well as its
// display label ("28 Oct 2025").
func parseExpiryDate(value string) (time.Time, error) {
	if date, err := time.Parse("2006-01-02", value); err == nil {
		return date, nil
	}

	date, err := time.Parse("02 Jan 2006", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parseExpiryDate: unrecognized expiry date: %s", value)
	}

	return date, nil
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	response := map[string]interface{}{
		"message":       "market data cache is running",
		"token_present": service.TokenPresent(),
		"cached_at":     formatCachedAt(service.CurrentSpot()),
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("handleHome: failed to set response", 500, err, w)
		return
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	response := map[string]interface{}{
		"status":        "ok",
		"token_present": service.TokenPresent(),
		"cached_at":     formatCachedAt(service.CurrentSpot()),
		"stale":         service.IsStale(),
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("handleHealth: failed to set response", 500, err, w)
		return
	}
}

func handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	snapshot := service.CurrentSpot()

	var spot interface{}
	if snapshot != nil {
		spot = snapshot.Spot
	}

	response := map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"cached_at": formatCachedAt(snapshot),
			"spot":      spot,
			"chain":     service.Chain(),
			"stale":     service.IsStale(),
			"lot_sizes": service.LotSizes(),
		},
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("handleLatest: failed to set response", 500, err, w)
		return
	}
}

type SetTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func handleSetToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(404)
		return
	}

	if adminKey == "" || r.Header.Get("X-ADMIN-KEY") != adminKey {
		setErrorResponse("handleSetToken: unauthorized", 401, fmt.Errorf("unauthorized"), w)
		return
	}

	var req SetTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setErrorResponse("handleSetToken: failed to decode request", 400, err, w)
		return
	}

	if err := service.SetCredential(r.Context(), req.AccessToken); err != nil {
		setErrorResponse("handleSetToken: failed to save token", statusCodeFromError(err, 500), err, w)
		return
	}

	response := map[string]interface{}{
		"status":  "ok",
		"message": "token saved and fetch started",
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("handleSetToken: failed to set response", 500, err, w)
		return
	}
}

type ExpiriesRequest struct {
	Instrument string `schema:"instrument"`
}

func handleExpiries(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var req ExpiriesRequest
	if err := decodeQuery(&req, r); err != nil {
		setErrorResponse("handleExpiries: failed to decode request", 400, err, w)
		return
	}

	if req.Instrument == "" {
		setErrorResponse("handleExpiries: missing instrument", 400, fmt.Errorf("missing instrument"), w)
		return
	}

	expiries, err := service.Expiries(r.Context(), eventmodels.UnderlyingSymbol(req.Instrument))
	if err != nil {
		setErrorResponse("handleExpiries: failed to collect expiries", statusCodeFromError(err, 500), err, w)
		return
	}

	response := map[string]interface{}{
		"instrument": req.Instrument,
		"expiries":   expiries,
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("handleExpiries: failed to set response", 500, err, w)
		return
	}
}

type StrikesRequest struct {
	Instrument string `schema:"instrument"`
	Expiry     string `schema:"expiry"`
}

func (req *StrikesRequest) Validate() error {
	if req.Instrument == "" {
		return fmt.Errorf("missing instrument")
	}

	if req.Expiry == "" {
		return fmt.Errorf("missing expiry")
	}

	return nil
}

func handleStrikes(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var req StrikesRequest
	if err := decodeQuery(&req, r); err != nil {
		setErrorResponse("handleStrikes: failed to decode request", 400, err, w)
		return
	}

	if err := req.Validate(); err != nil {
		setErrorResponse("handleStrikes: invalid request", 400, err, w)
		return
	}

	expiry, err := parseExpiryDate(req.Expiry)
	if err != nil {
		setErrorResponse("handleStrikes: failed to parse expiry", 400, err, w)
		return
	}

	strikes, err := service.Strikes(r.Context(), eventmodels.UnderlyingSymbol(req.Instrument), expiry)
	if err != nil {
		setErrorResponse("handleStrikes: failed to collect strikes", statusCodeFromError(err, 500), err, w)
		return
	}

	rounded := make([]int, 0, len(strikes))
	for _, strike := range strikes {
		rounded = append(rounded, int(math.Round(strike)))
	}

	response := map[string]interface{}{
		"strikes": rounded,
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("handleStrikes: failed to set response", 500, err, w)
		return
	}
}

type QuoteRequest struct {
	Instrument string  `schema:"instrument"`
	Expiry     string  `schema:"expiry"`
	Strike     float64 `schema:"strike"`
	Type       string  `schema:"type"`
}

func (req *QuoteRequest) Validate() error {
	if req.Instrument == "" {
		return fmt.Errorf("missing instrument")
	}

	if req.Expiry == "" {
		return fmt.Errorf("missing expiry")
	}

	if req.Strike <= 0 {
		return fmt.Errorf("strike must be greater than 0")
	}

	if req.Type == "" {
		return fmt.Errorf("missing type")
	}

	return nil
}

type QuoteResponse struct {
	OK          bool     `json:"ok"`
	Instrument  string   `json:"instrument"`
	Expiry      string   `json:"expiry"`
	Strike      float64  `json:"strike"`
	Type        string   `json:"type"`
	OptionPrice float64  `json:"optionPrice"`
	IV          *float64 `json:"iv"`
	OI          float64  `json:"oi"`
	Delta       *float64 `json:"delta"`
	Gamma       *float64 `json:"gamma"`
	Theta       *float64 `json:"theta"`
	Vega        *float64 `json:"vega"`
	Stale       bool     `json:"stale"`
	CachedAt    string   `json:"cached_at"`
}

func handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(404)
		return
	}

	var req QuoteRequest
	if err := decodeQuery(&req, r); err != nil {
		setQuoteErrorResponse(400, err, w)
		return
	}

	if err := req.Validate(); err != nil {
		setQuoteErrorResponse(400, err, w)
		return
	}

	expiry, err := parseExpiryDate(req.Expiry)
	if err != nil {
		setQuoteErrorResponse(400, err, w)
		return
	}

	side, err := eventmodels.ParseOptionSide(req.Type)
	if err != nil {
		setQuoteErrorResponse(400, err, w)
		return
	}

	quote, err := service.OptionQuote(r.Context(), eventmodels.UnderlyingSymbol(req.Instrument), expiry, req.Strike, side)
	if err != nil {
		var webError *eventmodels.WebError
		if errors.As(err, &webError) {
			setQuoteErrorResponse(webError.StatusCode, err, w)
			return
		}

		if errors.Is(err, eventmodels.ErrContractNotFound) {
			setQuoteErrorResponse(404, err, w)
			return
		}

		// upstream down with nothing cached, or no catalog to resolve against
		setQuoteErrorResponse(502, err, w)
		return
	}

	response := QuoteResponse{
		OK:          true,
		Instrument:  req.Instrument,
		Expiry:      expiry.Format("2006-01-02"),
		Strike:      req.Strike,
		Type:        string(side),
		OptionPrice: quote.LastPrice,
		IV:          quote.ImpliedVolatility,
		OI:          quote.OpenInterest,
		Delta:       quote.Delta,
		Gamma:       quote.Gamma,
		Theta:       quote.Theta,
		Vega:        quote.Vega,
		Stale:       quote.StaleAt(time.Now()),
		CachedAt:    quote.CachedAt.Format(timestampLayout),
	}

	if err := setResponse(response, w); err != nil {
		setQuoteErrorResponse(500, err, w)
		return
	}
}

func SetupHandler(router *mux.Router, marketDataService *data.MarketDataService, adminKeyValue string) {
	service = marketDataService
	adminKey = adminKeyValue

	// handleFunc is a replacement for mux.HandleFunc which enriches the
	// handler's HTTP instrumentation with the pattern as the http.route.
	handleFunc := func(pattern string, handlerFunc func(http.ResponseWriter, *http.Request)) {
		router.Handle(pattern, otelhttp.WithRouteTag(pattern, http.HandlerFunc(handlerFunc)))
	}

	handleFunc("/", handleHome)
	handleFunc("/health", handleHealth)
	handleFunc("/latest", handleLatest)
	handleFunc("/admin/set_token", handleSetToken)
	handleFunc("/expiries", handleExpiries)
	handleFunc("/strikes", handleStrikes)
	handleFunc("/quote", handleQuote)
}
