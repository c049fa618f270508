package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// googleTokenInfo is the subset of Google's tokeninfo response we need
type googleTokenInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

var googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// verifyGoogleToken asks Google whether the ID token is valid and
// returns the profile claims.
func verifyGoogleToken(ctx context.Context, idToken string) (googleTokenInfo, error) {
	u := googleTokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return googleTokenInfo{}, err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return googleTokenInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleTokenInfo{}, errors.New("token rejected")
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleTokenInfo{}, err
	}
	if info.Sub == "" || info.Email == "" {
		return googleTokenInfo{}, errors.New("incomplete token info")
	}
	return info, nil
}
