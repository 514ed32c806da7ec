package eventservices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/utils"
)

const kiteLoginBaseURL = "https://kite.zerodha.com/connect/login"

// KiteLoginURL returns the browser URL a user visits to authorize the app.
// Completing the login redirects with a short-lived request_token.
func KiteLoginURL(apiKey string) string {
	return fmt.Sprintf("%s?v=3&api_key=%s", kiteLoginBaseURL, url.QueryEscape(apiKey))
}

// GenerateKiteSession exchanges a request_token for an access token. The
// checksum is the sha256 of api_key + request_token + api_secret, per the
// Kite Connect login flow.
func GenerateKiteSession(ctx context.Context, baseURL, apiKey, apiSecret, requestToken string) (*eventmodels.KiteSessionResponseDTO, error) {
	checksum := utils.Sha256Hex(apiKey, requestToken, apiSecret)

	form := url.Values{}
	form.Add("api_key", apiKey)
	form.Add("request_token", requestToken)
	form.Add("checksum", checksum)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/session/token", baseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("GenerateKiteSession: failed to create request: %w", err)
	}

	req.Header.Add("X-Kite-Version", "3")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	client := http.Client{
		Timeout: 10 * time.Second,
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GenerateKiteSession: failed to exchange token: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GenerateKiteSession: %w", decodeError("GenerateSession", res))
	}

	var dto eventmodels.KiteSessionResponseDTO
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("GenerateKiteSession: failed to decode json: %w", err)
	}

	if dto.Data.AccessToken == "" {
		return nil, fmt.Errorf("GenerateKiteSession: response contained no access token")
	}

	return &dto, nil
}
