package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/server"
)

// ClientV1 reads from the HTTP API
type ClientV1 struct {
	client *resty.Client
}

func NewClientV1(baseURL string) *ClientV1 {
	return &ClientV1{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
	}
}

func (c *ClientV1) GetInscriptionIds(ctx context.Context, fingerprint string) ([]string, error) {
	var out server.FingerprintResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("fp", fingerprint).
		Get("/inscriptionIds/{fp}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return out.InscriptionIds, nil
}

func (c *ClientV1) GetHeight(ctx context.Context) (int64, error) {
	var out server.HeightResponse
	resp, err := c.client.R().SetContext(ctx).SetResult(&out).Get("/height")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Height, nil
}

// BenchmarkV1 looks up every fingerprint through the HTTP API and logs the throughput
func BenchmarkV1(ctx context.Context, fingerprints []string, baseURL string) Result {
	logging.L.Info().Msgf("Starting v1 HTTP benchmark over %d fingerprints", len(fingerprints))
	client := NewClientV1(baseURL)
	return run(ctx, "v1 HTTP", fingerprints, client.GetInscriptionIds)
}
