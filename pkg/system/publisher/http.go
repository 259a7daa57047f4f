package publisher

import (
	"context"
	"fmt"
	"time"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

var _ wifiscan.Publisher = &HTTPPublisher{}

// HTTPPublisher POSTs every successful scan as JSON to a fixed URL. It
// makes one attempt per cycle, the next cycle is the retry.
type HTTPPublisher struct {
	url    string
	client *resty.Client
}

func NewHTTPPublisher(url string) *HTTPPublisher {
	client := resty.New()
	client.SetTimeout(defaultTimeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Content-Type", "application/json")
	client.SetContentLength(true)

	return &HTTPPublisher{
		url:    url,
		client: client,
	}
}

func (t *HTTPPublisher) Publish(ctx context.Context, report wifiscan.ScanReport) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(report).
		Post(t.url)

	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("failed to publish scan to %s: %s: %s", t.url, resp.Status(), resp.String())
	}

	return nil
}
