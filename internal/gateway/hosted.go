package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// 外部APIの応答待ちはここで打ち切る
const defaultTimeout = 15 * time.Second

type HostedGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHostedGateway(baseURL, apiKey string) *HostedGateway {
	return &HostedGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

type createSessionRequest struct {
	Amount        int64  `json:"amount"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type createSessionResponse struct {
	SessionID   string `json:"session_id"`
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

func (g *HostedGateway) CreateSession(ctx context.Context, amount int64, customer CustomerDetails) (Session, error) {
	body, err := json.Marshal(createSessionRequest{
		Amount:        amount,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
	})
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	//同じリクエストの再送でセッションが二重に作られないようにする
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, fmt.Errorf("%w: create session status %d", ErrUnavailable, resp.StatusCode)
	}

	var out createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out.SessionID == "" || out.OrderID == "" {
		return Session{}, fmt.Errorf("%w: empty session refs", ErrUnavailable)
	}

	return Session{
		SessionRef:      out.SessionID,
		GatewayOrderRef: out.OrderID,
		RedirectURL:     out.RedirectURL,
	}, nil
}

type statusResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

func (g *HostedGateway) GetStatus(ctx context.Context, gatewayOrderRef string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/orders/"+gatewayOrderRef+"/status", nil)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("%w: get status %d", ErrUnavailable, resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	st := Status{TransactionRef: out.TransactionID, RawReason: out.Reason}
	switch out.Status {
	case "SUCCESS":
		st.Outcome = OutcomeSuccess
	case "PENDING":
		st.Outcome = OutcomePending
	default:
		//SUCCESS/PENDING以外はすべて失敗扱い
		st.Outcome = OutcomeFailed
		if st.RawReason == "" {
			st.RawReason = out.Status
		}
	}
	return st, nil
}
