package eventservices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

// Kite allows roughly 3 quote requests per second per connected app.
const kiteRequestsPerSecond = 3

// CredentialSource yields the current access token, if one is loaded.
type CredentialSource interface {
	Token() (string, bool)
}

// KiteClient talks to the Zerodha Kite Connect REST API. All calls are
// throttled through a shared rate limiter and authenticated with the
// access token held by the credential source at call time.
type KiteClient struct {
	baseURL     string
	apiKey      string
	credentials CredentialSource
	client      *http.Client
	limiter     *rate.Limiter
}

func NewKiteClient(baseURL, apiKey string, credentials CredentialSource) *KiteClient {
	return &KiteClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		credentials: credentials,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(kiteRequestsPerSecond), kiteRequestsPerSecond),
	}
}

func (c *KiteClient) newRequest(ctx context.Context, method, url, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Add("X-Kite-Version", "3")
	req.Header.Add("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, accessToken))

	return req, nil
}

// decodeError turns a non-200 Kite response into an UpstreamError. Kite
// wraps failures in a json envelope with a machine-readable error_type.
func decodeError(op string, res *http.Response) error {
	var errDTO eventmodels.KiteErrorDTO
	if err := json.NewDecoder(res.Body).Decode(&errDTO); err != nil {
		return &eventmodels.UpstreamError{
			Op:         op,
			StatusCode: res.StatusCode,
			Message:    res.Status,
		}
	}

	return &eventmodels.UpstreamError{
		Op:         op,
		StatusCode: res.StatusCode,
		ErrorType:  errDTO.ErrorType,
		Message:    errDTO.Message,
	}
}

// GetQuotes fetches last-traded prices for the given quote keys, e.g.
// "NSE:NIFTY 50" or "NFO:NIFTY25O2825900CE". The returned map is keyed the
// same way and may be missing keys the exchange did not recognize.
func (c *KiteClient) GetQuotes(ctx context.Context, keys []string) (map[string]eventmodels.KiteQuoteDTO, error) {
	if len(keys) == 0 {
		return map[string]eventmodels.KiteQuoteDTO{}, nil
	}

	accessToken, found := c.credentials.Token()
	if !found {
		return nil, eventmodels.ErrNoCredential
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("KiteClient.GetQuotes: rate limiter: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/quote", c.baseURL), accessToken)
	if err != nil {
		return nil, fmt.Errorf("KiteClient.GetQuotes: failed to create request: %w", err)
	}

	q := req.URL.Query()
	for _, key := range keys {
		q.Add("i", key)
	}
	req.URL.RawQuery = q.Encode()

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KiteClient.GetQuotes: failed to fetch quotes: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KiteClient.GetQuotes: %w", decodeError("GetQuotes", res))
	}

	var dto eventmodels.KiteQuotesResponseDTO
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("KiteClient.GetQuotes: failed to decode json: %w", err)
	}

	return dto.Data, nil
}

// GetInstrumentCatalog downloads the instrument dump for an exchange
// segment, e.g. "NFO". Rows that fail to parse are skipped so a handful of
// malformed entries cannot poison the whole catalog.
func (c *KiteClient) GetInstrumentCatalog(ctx context.Context, exchange string) ([]eventmodels.Instrument, error) {
	accessToken, found := c.credentials.Token()
	if !found {
		return nil, eventmodels.ErrNoCredential
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("KiteClient.GetInstrumentCatalog: rate limiter: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/instruments/%s", c.baseURL, exchange), accessToken)
	if err != nil {
		return nil, fmt.Errorf("KiteClient.GetInstrumentCatalog: failed to create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KiteClient.GetInstrumentCatalog: failed to fetch instruments: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KiteClient.GetInstrumentCatalog: %w", decodeError("GetInstrumentCatalog", res))
	}

	var dtos []*eventmodels.InstrumentDTO
	if err := gocsv.Unmarshal(res.Body, &dtos); err != nil {
		return nil, fmt.Errorf("KiteClient.GetInstrumentCatalog: failed to parse csv: %w", err)
	}

	instruments := make([]eventmodels.Instrument, 0, len(dtos))
	skipped := 0
	for _, dto := range dtos {
		instrument, err := dto.ToInstrument()
		if err != nil {
			skipped++
			continue
		}

		instruments = append(instruments, instrument)
	}

	if skipped > 0 {
		log.Warnf("KiteClient.GetInstrumentCatalog: skipped %d of %d rows for %s", skipped, len(dtos), exchange)
	}

	return instruments, nil
}
