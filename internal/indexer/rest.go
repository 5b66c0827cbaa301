package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

type ChainInfo struct {
	Chain                string   `json:"chain"`
	Blocks               int64    `json:"blocks"`
	Headers              int64    `json:"headers"`
	BestBlockHash        string   `json:"bestblockhash"`
	Difficulty           float64  `json:"difficulty"`
	Time                 int64    `json:"time"`
	MedianTime           int64    `json:"mediantime"`
	VerificationProgress float64  `json:"verificationprogress"`
	InitialBlockDownload bool     `json:"initialblockdownload"`
	ChainWork            string   `json:"chainwork"`
	SizeOnDisk           int64    `json:"size_on_disk"`
	Pruned               bool     `json:"pruned"`
	Warnings             []string `json:"warnings"`
}

// RestSource reads from the unauthenticated REST interface of Bitcoin Core (-rest=1).
type RestSource struct {
	client *resty.Client
}

func NewRestSource(endpoint string, timeout time.Duration) *RestSource {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("User-Agent", "xfp-indexer")
	return &RestSource{client: client}
}

func (s *RestSource) get(ctx context.Context, path string, result any) (*resty.Response, error) {
	req := s.client.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Get(path)
	if err != nil {
		logging.L.Err(err).Str("path", path).Msg("error performing request")
		return nil, errors.Mark(errors.Wrapf(err, "GET %s", path), ErrBlockFetch)
	}
	if resp.IsError() {
		logging.L.Warn().
			Str("path", path).
			Str("status", resp.Status()).
			Msg("bad status code")
		return nil, errors.Wrapf(ErrBlockFetch, "GET %s: %s", path, resp.Status())
	}
	return resp, nil
}

func (s *RestSource) GetChainInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo
	if _, err := s.get(ctx, "/rest/chaininfo.json", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *RestSource) GetChainHeight(ctx context.Context) (int64, error) {
	info, err := s.GetChainInfo(ctx)
	if err != nil {
		return 0, err
	}
	return info.Blocks, nil
}

func (s *RestSource) GetBlockHashAtHeight(ctx context.Context, height int64) (chainhash.Hash, error) {
	var out struct {
		BlockHash string `json:"blockhash"`
	}
	if _, err := s.get(ctx, fmt.Sprintf("/rest/blockhashbyheight/%d.json", height), &out); err != nil {
		return chainhash.Hash{}, err
	}

	hash, err := chainhash.NewHashFromStr(out.BlockHash)
	if err != nil {
		return chainhash.Hash{}, errors.Mark(errors.Wrapf(err, "block hash %q", out.BlockHash), ErrBlockFetch)
	}
	return *hash, nil
}

func (s *RestSource) GetBlockByHash(ctx context.Context, hash chainhash.Hash) ([]byte, error) {
	resp, err := s.get(ctx, fmt.Sprintf("/rest/block/%s.bin", hash), nil)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
