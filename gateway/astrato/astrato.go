package astrato

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Config holds the provider coordinates for one request. Url is expected to
// carry a trailing slash, endpoints are appended directly as the provider
// documents them.
type Config struct {
	Url          string
	ClientId     string
	ClientSecret string
	EmbedLink    string
}

// Merge resolves an effective Config from a session supplied override and the
// process wide fallback. Override fields win only where non-empty.
func Merge(override Config, fallback Config) Config {
	resolved := fallback
	if override.Url != "" {
		resolved.Url = override.Url
	}
	if override.ClientId != "" {
		resolved.ClientId = override.ClientId
	}
	if override.ClientSecret != "" {
		resolved.ClientSecret = override.ClientSecret
	}
	if override.EmbedLink != "" {
		resolved.EmbedLink = override.EmbedLink
	}
	return resolved
}

type CreateTokenRequest struct {
	ClientId     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type CreateTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type CreateSetupTicketRequest struct {
	Email               string          `json:"email"`
	GroupIds            []string        `json:"groupIds"`
	ApplyPendingInvites bool            `json:"applyPendingInvites"`
	FilterParameters    json.RawMessage `json:"filterParameters,omitempty"`
}

type CreateSetupTicketResponse struct {
	Ticket string `json:"ticket"`
}

// CallError carries the transport context of a failed provider call so the
// controllers can surface it on the diagnostics page.
type CallError struct {
	Method string
	Url    string
	Status int
	Body   string
	Err    error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Url, e.Err.Error())
	}
	return fmt.Sprintf("%s %s: request failed with status code %d", e.Method, e.Url, e.Status)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func getDefaultHeaders() map[string][]string {
	return map[string][]string{
		"Content-Type": []string{"application/json"},
		"Accept":       []string{"application/json"},
	}
}

func getDefaultHeadersWithAuthentication(accessToken string) map[string][]string {
	return map[string][]string{
		"Content-Type":  []string{"application/json"},
		"Accept":        []string{"application/json"},
		"Authorization": []string{"Bearer " + accessToken},
	}
}

func callJson(client *http.Client, url string, headers map[string][]string, requestData interface{}, responseData interface{}) error {
	body, err := json.Marshal(requestData)
	if err != nil {
		return &CallError{Method: "POST", Url: url, Err: err}
	}

	request, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return &CallError{Method: "POST", Url: url, Err: err}
	}
	request.Header = headers

	response, err := client.Do(request)
	if err != nil {
		return &CallError{Method: "POST", Url: url, Err: err}
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return &CallError{Method: "POST", Url: url, Status: response.StatusCode, Err: err}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &CallError{Method: "POST", Url: url, Status: response.StatusCode, Body: string(responseBody)}
	}

	if err := json.Unmarshal(responseBody, responseData); err != nil {
		return &CallError{Method: "POST", Url: url, Status: response.StatusCode, Body: string(responseBody), Err: err}
	}
	return nil
}

// FetchAccessToken obtains a short lived bearer token from the provider's
// machine-to-machine token endpoint. Empty credentials are not validated here,
// the provider rejects the call and the error propagates.
func FetchAccessToken(client *http.Client, config Config) (string, error) {
	url := config.Url + "auth/proxy/m2m/token"

	tokenRequest := CreateTokenRequest{
		ClientId:     config.ClientId,
		ClientSecret: config.ClientSecret,
	}

	var tokenResponse CreateTokenResponse
	if err := callJson(client, url, getDefaultHeaders(), tokenRequest, &tokenResponse); err != nil {
		return "", err
	}

	if tokenResponse.AccessToken == "" {
		return "", &CallError{Method: "POST", Url: url, Status: 200, Err: fmt.Errorf("missing access_token in response")}
	}
	return tokenResponse.AccessToken, nil
}

// FetchSessionTicket requests a single-use embedding ticket from the
// provider's oem setup endpoint on behalf of the given user.
func FetchSessionTicket(client *http.Client, accessToken string, setupRequest CreateSetupTicketRequest, config Config) (string, error) {
	url := config.Url + "oem/setup"

	var setupResponse CreateSetupTicketResponse
	if err := callJson(client, url, getDefaultHeadersWithAuthentication(accessToken), setupRequest, &setupResponse); err != nil {
		return "", err
	}

	if setupResponse.Ticket == "" {
		return "", &CallError{Method: "POST", Url: url, Status: 200, Err: fmt.Errorf("missing ticket in response")}
	}
	return setupResponse.Ticket, nil
}

// TicketUrl builds the browser facing redemption endpoint for a ticket. The
// browser fetches it with credentials included to turn the ticket into
// provider session cookies.
func TicketUrl(config Config, ticket string) string {
	return config.Url + "auth/proxy/oem/ticket/" + ticket + "?embed"
}
