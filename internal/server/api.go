package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/types"
)

// ApiHandler serves reads from the in-memory index. It never touches the store.
type ApiHandler struct {
	State *types.IndexState
}

func NewApiHandler(state *types.IndexState) *ApiHandler {
	return &ApiHandler{State: state}
}

type FingerprintResponse struct {
	XfpPairFingerprint string   `json:"xfpPairFingerprint"`
	InscriptionIds     []string `json:"inscriptionIds"`
}

type HeightResponse struct {
	Height int64 `json:"height"`
}

type InscriptionIdsResponse struct {
	InscriptionIds []string `json:"inscriptionIds"`
	Count          int      `json:"count"`
}

type InfoResponse struct {
	Height               int64  `json:"height"`
	BlockHash            string `json:"blockHash"`
	Fingerprints         int    `json:"fingerprints"`
	MinInscriptionLength int    `json:"minInscriptionLength"`
	RollbackWindow       int64  `json:"rollbackWindow"`
	SyncStartHeight      int64  `json:"syncStartHeight"`
}

func (h *ApiHandler) GetInscriptionIdsByFingerprint(c *gin.Context) {
	fp := c.GetString(keyFingerprint)
	c.JSON(http.StatusOK, FingerprintResponse{
		XfpPairFingerprint: fp,
		InscriptionIds:     h.State.Lookup(fp),
	})
}

func (h *ApiHandler) GetHeight(c *gin.Context) {
	c.JSON(http.StatusOK, HeightResponse{Height: h.State.Height()})
}

func (h *ApiHandler) GetInscriptionIds(c *gin.Context) {
	ids := h.State.InscriptionIDs()
	c.JSON(http.StatusOK, InscriptionIdsResponse{
		InscriptionIds: ids,
		Count:          len(ids),
	})
}

func (h *ApiHandler) GetInfo(c *gin.Context) {
	cursor := h.State.Cursor()
	c.JSON(http.StatusOK, InfoResponse{
		Height:               cursor.Height,
		BlockHash:            cursor.Hash,
		Fingerprints:         h.State.FingerprintCount(),
		MinInscriptionLength: config.MinInscriptionLength,
		RollbackWindow:       config.RollbackWindow,
		SyncStartHeight:      config.SyncStartHeight,
	})
}
