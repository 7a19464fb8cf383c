package nsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// TokenSource supplies the current bearer token for NSP API calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Subscription identifies a standing NSP-FAULT subscription and the
// Kafka topic its events land on.
type Subscription struct {
	ID      string `json:"subscription_id"`
	TopicID string `json:"topic_id"`
}

// SubscriptionManager creates, renews and deletes the NSP-FAULT event
// subscription. Every call carries the current bearer token.
type SubscriptionManager struct {
	client  *Client
	baseURL string
	tokens  TokenSource
	logger  *slog.Logger
}

// NewSubscriptionManager creates a manager for the subscriptions
// endpoint at baseURL.
func NewSubscriptionManager(client *Client, baseURL string, tokens TokenSource, logger *slog.Logger) *SubscriptionManager {
	return &SubscriptionManager{
		client:  client,
		baseURL: baseURL,
		tokens:  tokens,
		logger:  logger.With("component", "subscription"),
	}
}

// subscriptionResponse unwraps the NSP envelope around subscription data.
type subscriptionResponse struct {
	Response struct {
		Data struct {
			SubscriptionID string `json:"subscriptionId"`
			TopicID        string `json:"topicId"`
		} `json:"data"`
	} `json:"response"`
}

// Create registers a subscription for the NSP-FAULT category and
// returns its id and Kafka topic.
func (sm *SubscriptionManager) Create(ctx context.Context) (*Subscription, error) {
	payload := map[string]any{
		"categories": []map[string]string{{"name": "NSP-FAULT"}},
	}

	resp, err := sm.doAuthorized(ctx, http.MethodPost, sm.baseURL, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, sm.client.readError(resp)
	}

	var result subscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding subscription response: %w", err)
	}

	data := result.Response.Data
	if data.SubscriptionID == "" || data.TopicID == "" {
		return nil, fmt.Errorf("subscription response missing id or topic")
	}

	sm.logger.Info("subscription created",
		"subscription_id", data.SubscriptionID,
		"topic", data.TopicID,
	)
	return &Subscription{ID: data.SubscriptionID, TopicID: data.TopicID}, nil
}

// Renew extends the subscription lease. NSP expires subscriptions that
// are not renewed, so this runs on a periodic tick.
func (sm *SubscriptionManager) Renew(ctx context.Context, subscriptionID string) error {
	url := fmt.Sprintf("%s/%s/renewals", sm.baseURL, subscriptionID)
	resp, err := sm.doAuthorized(ctx, http.MethodPost, url, map[string]any{})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return sm.client.readError(resp)
	}

	sm.logger.Debug("subscription renewed", "subscription_id", subscriptionID)
	return nil
}

// Delete removes the subscription during shutdown.
func (sm *SubscriptionManager) Delete(ctx context.Context, subscriptionID string) error {
	url := fmt.Sprintf("%s/%s", sm.baseURL, subscriptionID)
	resp, err := sm.doAuthorized(ctx, http.MethodDelete, url, map[string]any{})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
		return sm.client.readError(resp)
	}

	sm.logger.Info("subscription deleted", "subscription_id", subscriptionID)
	return nil
}

func (sm *SubscriptionManager) doAuthorized(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	token, err := sm.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting access token: %w", err)
	}

	req, err := sm.client.newRequest(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return sm.client.do(req)
}
