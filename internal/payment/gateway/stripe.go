package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmroczek/PayVault/internal/payment/domain"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// StripeClient talks to the Stripe REST API. Requests are form-encoded,
// responses JSON, per their wire format.
type StripeClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewStripeClient(apiKey string) *StripeClient {
	return &StripeClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewStripeClientWithBaseURL points the client at a non-production endpoint.
func NewStripeClientWithBaseURL(apiKey, baseURL string) *StripeClient {
	client := NewStripeClient(apiKey)
	client.baseURL = strings.TrimSuffix(baseURL, "/")
	return client
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiError struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiError)
		return fmt.Errorf("stripe: %s %s returned %s: %s", method, path, resp.Status, apiError.Error.Message)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *StripeClient) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("metadata[userId]", userID)

	var customer struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers", form, &customer); err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (c *StripeClient) CreateSetupIntent(ctx context.Context, customerRef string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerRef)
	form.Set("payment_method_types[]", "card")

	var intent struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := c.do(ctx, http.MethodPost, "/setup_intents", form, &intent); err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}

func (c *StripeClient) RetrieveMethod(ctx context.Context, methodRef string) (*domain.CardDetails, error) {
	var method struct {
		ID   string `json:"id"`
		Card *struct {
			Last4    string `json:"last4"`
			Brand    string `json:"brand"`
			ExpMonth int    `json:"exp_month"`
			ExpYear  int    `json:"exp_year"`
		} `json:"card"`
	}
	if err := c.do(ctx, http.MethodGet, "/payment_methods/"+url.PathEscape(methodRef), nil, &method); err != nil {
		return nil, err
	}
	if method.Card == nil {
		return nil, nil
	}
	return &domain.CardDetails{
		Last4:    method.Card.Last4,
		Brand:    method.Card.Brand,
		ExpMonth: method.Card.ExpMonth,
		ExpYear:  method.Card.ExpYear,
	}, nil
}

func (c *StripeClient) DetachMethod(ctx context.Context, methodRef string) error {
	return c.do(ctx, http.MethodPost, "/payment_methods/"+url.PathEscape(methodRef)+"/detach", url.Values{}, nil)
}

func (c *StripeClient) ListMethods(ctx context.Context, customerRef string) ([]string, error) {
	path := "/payment_methods?customer=" + url.QueryEscape(customerRef) + "&type=card"

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(list.Data))
	for _, method := range list.Data {
		refs = append(refs, method.ID)
	}
	return refs, nil
}
