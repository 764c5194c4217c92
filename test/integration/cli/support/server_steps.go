package support

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/server"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) startServer(cfg server.Config) error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
	}
	cfg.Pipeline = pipeline.DefaultConfig()
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	s, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	testCtx.HTTPServer = httptest.NewServer(s.Handler())
	return nil
}

func (testCtx *TestContext) theScanServerIsRunning() error {
	return testCtx.startServer(server.Config{})
}

func (testCtx *TestContext) theScanServerIsRunningWithARateLimitOfRequestsPerMinute(n int) error {
	return testCtx.startServer(server.Config{
		RateLimit: server.RateLimitConfig{Enabled: true, RequestsPerMinute: n},
	})
}

func (testCtx *TestContext) theScanServerIsRunningWithAMaximumUploadSizeOfMB(mb int) error {
	return testCtx.startServer(server.Config{MaxUploadMB: int64(mb)})
}

func (testCtx *TestContext) do(req *http.Request) error {
	if testCtx.HTTPServer == nil {
		return errors.New("the scan server is not running")
	}
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastResponse = &HTTPResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	return nil
}

func (testCtx *TestContext) iSendARequestTo(method, endpoint string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("the scan server is not running")
	}
	req, err := http.NewRequest(method, testCtx.HTTPServer.URL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Origin", "http://example.com")
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTTo(file, endpoint string) error {
	return testCtx.iPOSTToWith(file, endpoint, "")
}

// iPOSTToWith uploads file as the "image" form field. fields is a URL
// query string of extra form fields, e.g. "corners=1,2,...&format=png".
func (testCtx *TestContext) iPOSTToWith(file, endpoint, fields string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("the scan server is not running")
	}
	data, err := os.ReadFile(testCtx.Path(file))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	values, err := url.ParseQuery(fields)
	if err != nil {
		return fmt.Errorf("invalid fields %q: %w", fields, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(file))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k, vs := range values {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				return err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, testCtx.HTTPServer.URL+endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) lastResponse() (*HTTPResponse, error) {
	if testCtx.LastResponse == nil {
		return nil, errors.New("no request was made")
	}
	return testCtx.LastResponse, nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	resp, err := testCtx.lastResponse()
	if err != nil {
		return err
	}
	if resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, resp.StatusCode, resp.Body)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	resp, err := testCtx.lastResponse()
	if err != nil {
		return err
	}
	if got := resp.Header.Get(name); got != expected {
		return fmt.Errorf("header %s is %q, expected %q", name, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBeSet(name string) error {
	resp, err := testCtx.lastResponse()
	if err != nil {
		return err
	}
	if resp.Header.Get(name) == "" {
		return fmt.Errorf("header %s is not set", name)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, expected string) error {
	resp, err := testCtx.lastResponse()
	if err != nil {
		return err
	}
	return jsonFieldEquals(resp.Body, path, expected)
}

func (testCtx *TestContext) theResponseBodyShouldContain(text string) error {
	resp, err := testCtx.lastResponse()
	if err != nil {
		return err
	}
	if !strings.Contains(string(resp.Body), text) {
		return fmt.Errorf("response does not contain %q: %s", text, resp.Body)
	}
	return nil
}

func (testCtx *TestContext) theResponseImageShouldBePixels(w, h int) error {
	resp, err := testCtx.lastResponse()
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("response is not an image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("response image is %dx%d, expected %dx%d", b.Dx(), b.Dy(), w, h)
	}
	return nil
}

// RegisterServerSteps registers HTTP API steps backed by an in-process
// test server.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the scan server is running$`, testCtx.theScanServerIsRunning)
	sc.Step(`^the scan server is running with a rate limit of (\d+) requests? per minute$`,
		testCtx.theScanServerIsRunningWithARateLimitOfRequestsPerMinute)
	sc.Step(`^the scan server is running with a maximum upload size of (\d+) MB$`,
		testCtx.theScanServerIsRunningWithAMaximumUploadSizeOfMB)

	sc.Step(`^I send a (GET|POST|PUT|DELETE|OPTIONS) request to "([^"]*)"$`, testCtx.iSendARequestTo)
	sc.Step(`^I POST "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTTo)
	sc.Step(`^I POST "([^"]*)" to "([^"]*)" with "([^"]*)"$`, testCtx.iPOSTToWith)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response header "([^"]*)" should be set$`, testCtx.theResponseHeaderShouldBeSet)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, testCtx.theResponseBodyShouldContain)
	sc.Step(`^the response image should be (\d+)x(\d+) pixels$`, testCtx.theResponseImageShouldBePixels)
}
