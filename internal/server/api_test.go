package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/setavenger/xfp-indexer/internal/metrics"
	"github.com/setavenger/xfp-indexer/internal/types"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) (*types.IndexState, func(path string) *httptest.ResponseRecorder) {
	t.Helper()
	state := types.NewIndexState(types.XfpPairs{
		"deadbeef": {"aai0", "bbi1"},
		"0badf00d": {"bbi1"},
	}, types.Cursor{Height: 870_600, Hash: "00000000000000000001"})

	router := NewRouter(NewApiHandler(state))
	return state, func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		return w
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetInscriptionIdsByFingerprint(t *testing.T) {
	_, get := testRouter(t)

	w := get("/inscriptionIds/deadbeef")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, FingerprintResponse{
		XfpPairFingerprint: "deadbeef",
		InscriptionIds:     []string{"aai0", "bbi1"},
	}, decode[FingerprintResponse](t, w))

	// upper case is folded to the stored form
	w = get("/inscriptionIds/DEADBEEF")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"aai0", "bbi1"}, decode[FingerprintResponse](t, w).InscriptionIds)

	// unknown keys return an empty list, not null
	w = get("/inscriptionIds/12345678")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"xfpPairFingerprint":"12345678","inscriptionIds":[]}`, w.Body.String())

	for _, bad := range []string{"deadbee", "deadbeef00", "zzzzzzzz"} {
		w = get("/inscriptionIds/" + bad)
		require.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestGetHeightFollowsState(t *testing.T) {
	state, get := testRouter(t)

	w := get("/height")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"height":870600}`, w.Body.String())

	state.SetCursor(types.Cursor{Height: 870_594})
	require.Equal(t, int64(870_594), decode[HeightResponse](t, get("/height")).Height)
}

func TestGetInscriptionIds(t *testing.T) {
	_, get := testRouter(t)

	w := get("/inscriptionIds")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, InscriptionIdsResponse{
		InscriptionIds: []string{"aai0", "bbi1"},
		Count:          2,
	}, decode[InscriptionIdsResponse](t, w))
}

func TestGetInfo(t *testing.T) {
	_, get := testRouter(t)

	info := decode[InfoResponse](t, get("/info"))
	require.Equal(t, int64(870_600), info.Height)
	require.Equal(t, "00000000000000000001", info.BlockHash)
	require.Equal(t, 2, info.Fingerprints)
}

func TestMetricsEndpoint(t *testing.T) {
	_, get := testRouter(t)
	metrics.BlocksProcessed.Inc()

	w := get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "xfp_indexer_blocks_processed_total"))
}
