package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// apiResponse mirrors the server's response envelope
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Total   *int            `json:"total"`
}

// apiClient talks to the TaskFlow HTTP API
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(getAPIURL(), "/"),
		token:   loadToken(),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// call sends a request and decodes the envelope. Non-2xx responses are
// returned as errors carrying the server message.
func (c *apiClient) call(method, path string, body any) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !out.Success {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, out.Message)
	}
	return &out, nil
}

// into decodes the envelope data into dst
func (r *apiResponse) into(dst any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, dst)
}

func getAPIURL() string {
	if url := os.Getenv("TASKFLOW_API"); url != "" {
		return url
	}
	return "http://localhost:5000/api"
}

func tokenDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taskflow")
}

func tokenFile() string {
	return filepath.Join(tokenDir(), "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(tokenDir(), 0o700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0o600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}
