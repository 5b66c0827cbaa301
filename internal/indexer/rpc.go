package indexer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

const rpcID = "xfp-indexer"

type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type RPCResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCSource talks JSON-RPC to Bitcoin Core with basic auth.
type RPCSource struct {
	client *resty.Client
}

func NewRPCSource(endpoint, user, pass string, timeout time.Duration) *RPCSource {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetBasicAuth(user, pass).
		SetHeader("Content-Type", "application/json")
	return &RPCSource{client: client}
}

func (s *RPCSource) call(ctx context.Context, result any, method string, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	rpcData := RPCRequest{JSONRPC: "1.0", ID: rpcID, Method: method, Params: params}
	logging.L.Trace().Any("req", rpcData).Msg("")

	var rpcResponse RPCResponse
	// core answers rpc errors with a 500 and a json body, so the body is parsed either way
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(rpcData).
		Post("")
	if err != nil {
		logging.L.Err(err).Str("method", method).Msg("error performing request")
		return errors.Mark(errors.Wrapf(err, "rpc %s", method), ErrBlockFetch)
	}

	if err = json.Unmarshal(resp.Body(), &rpcResponse); err != nil {
		logging.L.Err(err).
			Int("status_code", resp.StatusCode()).
			Str("body", string(resp.Body())).
			Msg("error unmarshaling response")
		return errors.Mark(errors.Wrapf(err, "rpc %s: status %s", method, resp.Status()), ErrBlockFetch)
	}

	if rpcResponse.Error != nil {
		return errors.Wrapf(ErrBlockFetch, "rpc %s: %d %s",
			method, rpcResponse.Error.Code, rpcResponse.Error.Message)
	}
	if resp.IsError() {
		return errors.Wrapf(ErrBlockFetch, "rpc %s: %s", method, resp.Status())
	}

	if err = json.Unmarshal(rpcResponse.Result, result); err != nil {
		return errors.Mark(errors.Wrapf(err, "rpc %s result", method), ErrBlockFetch)
	}
	return nil
}

func (s *RPCSource) GetChainHeight(ctx context.Context) (int64, error) {
	var info ChainInfo
	if err := s.call(ctx, &info, "getblockchaininfo"); err != nil {
		return 0, err
	}
	return info.Blocks, nil
}

func (s *RPCSource) GetBlockHashAtHeight(ctx context.Context, height int64) (chainhash.Hash, error) {
	var hashStr string
	if err := s.call(ctx, &hashStr, "getblockhash", height); err != nil {
		return chainhash.Hash{}, err
	}

	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return chainhash.Hash{}, errors.Mark(errors.Wrapf(err, "block hash %q", hashStr), ErrBlockFetch)
	}
	return *hash, nil
}

func (s *RPCSource) GetBlockByHash(ctx context.Context, hash chainhash.Hash) ([]byte, error) {
	var blockHex string
	// verbosity 0 returns the serialised block as hex
	if err := s.call(ctx, &blockHex, "getblock", hash.String(), 0); err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "block hex"), ErrBlockFetch)
	}
	return raw, nil
}
