//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// apiContext holds the HTTP state shared across steps within a scenario.
type apiContext struct {
	baseURL      string
	client       *http.Client
	response     *http.Response
	responseBody []byte
}

func newAPIContext() *apiContext {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &apiContext{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (ac *apiContext) reset() {
	if ac.response != nil && ac.response.Body != nil {
		ac.response.Body.Close()
	}

	ac.response = nil
	ac.responseBody = nil
}

func (ac *apiContext) register(ctx *godog.ScenarioContext) {
	ctx.Step(`^the service is running$`, ac.theServiceIsRunning)
	ctx.Step(`^I request GET "([^"]*)"$`, ac.iRequestGET)
	ctx.Step(`^I POST to "([^"]*)" with body:$`, ac.iPOSTWithBody)
	ctx.Step(`^I follow the Location header$`, ac.iFollowTheLocationHeader)
	ctx.Step(`^the response status should be (\d+)$`, ac.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, ac.theResponseShouldContain)
	ctx.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, ac.theJSONFieldShouldBe)
	ctx.Step(`^the response header "([^"]*)" should be set$`, ac.theResponseHeaderShouldBeSet)
}

func (ac *apiContext) theServiceIsRunning() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ac.baseURL+"/-/live", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := ac.client.Do(req)
	if err != nil {
		return fmt.Errorf("service is not running at %s: %w", ac.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service liveness check failed with status %d", resp.StatusCode)
	}

	return nil
}

func (ac *apiContext) iRequestGET(path string) error {
	return ac.do(http.MethodGet, path, nil)
}

func (ac *apiContext) iPOSTWithBody(path string, body *godog.DocString) error {
	return ac.do(http.MethodPost, path, strings.NewReader(body.Content))
}

func (ac *apiContext) iFollowTheLocationHeader() error {
	if ac.response == nil {
		return fmt.Errorf("no response received")
	}

	location := ac.response.Header.Get("Location")
	if location == "" {
		return fmt.Errorf("response has no Location header")
	}

	return ac.do(http.MethodGet, location, nil)
}

func (ac *apiContext) do(method, path string, body io.Reader) error {
	ac.reset()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, ac.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ac.response, err = ac.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	ac.responseBody, err = io.ReadAll(ac.response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

func (ac *apiContext) theResponseStatusShouldBe(expectedCode int) error {
	if ac.response == nil {
		return fmt.Errorf("no response received")
	}

	if ac.response.StatusCode != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s",
			expectedCode, ac.response.StatusCode, string(ac.responseBody))
	}

	return nil
}

func (ac *apiContext) theResponseShouldContain(text string) error {
	if !bytes.Contains(ac.responseBody, []byte(text)) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, ac.responseBody)
	}

	return nil
}

// theJSONFieldShouldBe compares a dotted path into the response body, e.g.
// "error.code", against want. A JSON null matches "null".
func (ac *apiContext) theJSONFieldShouldBe(path, want string) error {
	var doc any
	if err := json.Unmarshal(ac.responseBody, &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}

	value := doc
	for _, key := range strings.Split(path, ".") {
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q: %v is not an object", path, value)
		}

		value, ok = obj[key]
		if !ok {
			return fmt.Errorf("field %q not found in %s", path, ac.responseBody)
		}
	}

	got := fmt.Sprint(value)
	if value == nil {
		got = "null"
	}

	if got != want {
		return fmt.Errorf("field %q: expected %q, got %q", path, want, got)
	}

	return nil
}

func (ac *apiContext) theResponseHeaderShouldBeSet(name string) error {
	if ac.response == nil {
		return fmt.Errorf("no response received")
	}

	if ac.response.Header.Get(name) == "" {
		return fmt.Errorf("response header %q is not set", name)
	}

	return nil
}
