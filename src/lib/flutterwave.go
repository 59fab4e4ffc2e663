package lib

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"lms/src/config"
	"lms/src/types"

	"github.com/avast/retry-go"
)

var (
	ErrGatewayNotFound    = errors.New("transaction not found on gateway")
	ErrGatewayUnreachable = errors.New("gateway unreachable")
)

type CheckoutParams struct {
	Reference     string
	Amount        float64
	Currency      string
	CustomerEmail string
	CustomerName  string
	RedirectURL   string
	Meta          types.Metadata
}

type CheckoutSession struct {
	Link string
}

// VerifyResult is the gateway's authoritative view of one transaction.
type VerifyResult struct {
	Status      string
	Reference   string
	ProviderRef string
	Amount      float64
	Currency    string
	CourseID    uint
	UserID      uint
}

// GatewayClient talks to the payment provider. CreateCheckout has a
// remote side effect keyed by the locally generated reference, so a
// retry with the same reference never produces a second charge intent.
// Verify is read-only and retried with backoff.
type GatewayClient interface {
	CreateCheckout(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

var gatewayClient GatewayClient

func GetGatewayClient() GatewayClient {
	if gatewayClient != nil {
		return gatewayClient
	}
	cfg := config.MustGatewayConfig()
	gatewayClient = NewFlutterwaveClient(cfg)
	return gatewayClient
}

// NewGatewayClient replaces the shared instance with a custom
// implementation, used by tests to avoid network access.
func NewGatewayClient(c GatewayClient) GatewayClient {
	gatewayClient = c
	return gatewayClient
}

type flutterwaveClient struct {
	cfg  config.GatewayConfig
	http *http.Client
}

func NewFlutterwaveClient(cfg config.GatewayConfig) GatewayClient {
	return &flutterwaveClient{
		cfg: cfg,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type flwEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type flwPaymentData struct {
	Link string `json:"link"`
}

type flwTransactionData struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	FlwRef   string  `json:"flw_ref"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	Meta struct {
		CourseID uint `json:"course_id,string"`
		UserID   uint `json:"user_id,string"`
	} `json:"meta"`
}

func (c *flutterwaveClient) CreateCheckout(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	payload := map[string]any{
		"tx_ref":       params.Reference,
		"amount":       params.Amount,
		"currency":     params.Currency,
		"redirect_url": params.RedirectURL,
		"customer": map[string]any{
			"email": params.CustomerEmail,
			"name":  params.CustomerName,
		},
		"meta": params.Meta,
	}
	body, err := json.Marshal(&payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Gateway] Error creating checkout for [%s]: %s\n", params.Reference, err.Error())
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnreachable, err.Error())
	}
	defer res.Body.Close()
	env, err := decodeEnvelope(res)
	if err != nil {
		return nil, err
	}
	var data flwPaymentData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	if data.Link == "" {
		return nil, fmt.Errorf("gateway returned no checkout link: %s", env.Message)
	}
	return &CheckoutSession{Link: data.Link}, nil
}

func (c *flutterwaveClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var result *VerifyResult
	err := retry.Do(
		func() error {
			r, err := c.verifyOnce(ctx, reference)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrGatewayNotFound)
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *flutterwaveClient) verifyOnce(ctx context.Context, reference string) (*VerifyResult, error) {
	endpoint := fmt.Sprintf("%s/transactions/verify_by_reference?tx_ref=%s", c.cfg.BaseURL, url.QueryEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Gateway] Error verifying [%s]: %s\n", reference, err.Error())
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnreachable, err.Error())
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrGatewayNotFound
	}
	env, err := decodeEnvelope(res)
	if err != nil {
		return nil, err
	}
	var data flwTransactionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return &VerifyResult{
		Status:      data.Status,
		Reference:   data.TxRef,
		ProviderRef: fmt.Sprint(data.ID),
		Amount:      data.Amount,
		Currency:    data.Currency,
		CourseID:    data.Meta.CourseID,
		UserID:      data.Meta.UserID,
	}, nil
}

func decodeEnvelope(res *http.Response) (*flwEnvelope, error) {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGatewayUnreachable, err.Error())
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnreachable, res.StatusCode)
	}
	var env flwEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("error decoding gateway response: %s", err.Error())
	}
	if env.Status != "success" {
		if res.StatusCode == http.StatusBadRequest {
			return nil, ErrGatewayNotFound
		}
		return nil, fmt.Errorf("gateway error: %s", env.Message)
	}
	return &env, nil
}
