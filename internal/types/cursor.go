package types

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Cursor marks indexing progress. Hash is empty on first start and right after a rollback.
type Cursor struct {
	Height int64  `json:"lastHeight"`
	Hash   string `json:"lastBlockHash"`
}

func (c Cursor) SerialiseData() ([]byte, error) {
	return json.Marshal(c)
}

func (c *Cursor) DeSerialiseData(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty cursor value")
	}
	return json.Unmarshal(data, c)
}
