package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bell-registry/domain"
)

// apiClient is a thin wrapper around the server's JSON endpoints.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *apiClient) Token() string {
	return a.token
}

func (a *apiClient) Login(email, password string) error {
	var body struct {
		Token string `json:"token"`
	}
	err := a.call(http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &body)
	if err != nil {
		return err
	}
	a.token = body.Token
	return nil
}

func (a *apiClient) ListConversations() ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := a.call(http.MethodGet, "/api/conversations/", nil, &conversations)
	return conversations, err
}

func (a *apiClient) SendMessage(conversationID, content string) (domain.Message, error) {
	var message domain.Message
	err := a.call(http.MethodPost, "/api/messages", map[string]string{
		"conversationId": conversationID,
		"content":        content,
	}, &message)
	return message, err
}

func (a *apiClient) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}
