package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// HTTPConfig holds the remote procedure endpoint details.
type HTTPConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient calls a JSON remote procedure that creates a payment session:
//
//	request:  {"lineItems":[{"id","title","price","quantity"}]}
//	response: {"url": string|null}
type HTTPClient struct {
	cfg      HTTPConfig
	validate *validator.Validate
}

// NewHTTPClient creates a new HTTPClient.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	return &HTTPClient{
		cfg:      cfg,
		validate: validator.New(),
	}
}

type wireLineItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type wireRequest struct {
	LineItems []wireLineItem `json:"lineItems"`
}

type wireResponse struct {
	ID  string  `json:"id"`
	URL *string `json:"url"`
}

// CreateSession posts the request and returns the redirect target, if any.
func (c *HTTPClient) CreateSession(ctx context.Context, req models.CheckoutRequest) (models.GatewaySession, error) {
	if err := c.validate.Struct(req); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := ctx.Err(); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	payload := wireRequest{LineItems: make([]wireLineItem, 0, len(req.LineItems))}
	for _, item := range req.LineItems {
		payload.LineItems = append(payload.LineItems, wireLineItem{
			ID:       item.ProductID,
			Title:    item.Title,
			Price:    json.Number(item.UnitPrice.StringFixed(2)),
			Quantity: item.Quantity,
		})
	}

	agent := fiber.Post(c.cfg.URL)
	agent.JSON(payload)
	if c.cfg.Timeout > 0 {
		agent.Timeout(c.cfg.Timeout)
	}
	if c.cfg.APIKey != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cfg.APIKey)
	}
	if err := agent.Parse(); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrTransport, errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return models.GatewaySession{}, fmt.Errorf("%w: status %d: %s", ErrRejected, code, truncate(body, 200))
	}

	var resp wireResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.URL == nil || *resp.URL == "" {
		return models.GatewaySession{ID: resp.ID}, nil
	}
	if err := c.validate.Var(*resp.URL, "url"); err != nil {
		return models.GatewaySession{}, fmt.Errorf("%w: url %q is not valid", ErrMalformedResponse, *resp.URL)
	}
	return models.GatewaySession{ID: resp.ID, RedirectURL: *resp.URL}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
