package enrollment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ProviderPayment is the subset of the gateway's payment entity we check.
type ProviderPayment struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	OrderID  string `json:"order_id"`
	Method   string `json:"method"`
	raw      string
}

var errPaymentNotFound = fmt.Errorf("payment not found at provider")

// Verifier fetches payments from the gateway REST API.
type Verifier struct {
	client     *resty.Client
	configured bool
}

func NewVerifier(baseURL, keyID, keySecret string) *Verifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	return &Verifier{client: client, configured: keyID != "" && keySecret != ""}
}

func (v *Verifier) Fetch(ctx context.Context, paymentID string) (*ProviderPayment, error) {
	var out ProviderPayment
	resp, err := v.client.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&out).
		Get("/payments/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusBadRequest:
		return nil, errPaymentNotFound
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("fetch payment %s: provider status %d: %s", paymentID, resp.StatusCode(), resp.String())
	}
	out.raw = resp.String()
	return &out, nil
}
