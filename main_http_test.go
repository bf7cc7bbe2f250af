package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	mathrand "math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"world-protocol/internal/content"
	"world-protocol/internal/game"
	"world-protocol/internal/store"
	"world-protocol/internal/store/mocks"
)

type apiResponse struct {
	OK      bool            `json:"ok"`
	Reason  string          `json:"reason"`
	Message string          `json:"message"`
	State   *game.State     `json:"state"`
	Result  json.RawMessage `json:"result"`
}

func newTestEngine(t *testing.T) *game.Engine {
	t.Helper()
	catalog, err := content.Load()
	require.NoError(t, err)
	return game.New(catalog, mathrand.New(mathrand.NewSource(1)))
}

func newTestHandler(t *testing.T, repo store.Repository) (http.Handler, *game.Engine) {
	t.Helper()
	engine := newTestEngine(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newRouter(newServer(engine, repo, logger)), engine
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr.Code, resp
}

func seedSlot(t *testing.T, repo store.Repository, slot store.Slot, st *game.State) {
	t.Helper()
	blob, err := json.Marshal(st)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), slot, blob))
}

func TestHealthzAndCatalog(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryRepository())

	code, resp := doJSON(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.OK)

	code, resp = doJSON(t, h, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, code)
	var catalog game.Catalog
	require.NoError(t, json.Unmarshal(resp.Result, &catalog))
	require.Contains(t, catalog.Nations, "Brazil")
	require.Len(t, catalog.Missions, 5)
}

func TestNewGameTurnAndSlots(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, _ := newTestHandler(t, repo)

	code, resp := doJSON(t, h, http.MethodPost, "/slots/2", `{"name":"Ada","nation":"Brazil"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "Ada", resp.State.Player.Name)
	require.Equal(t, "Brazil", resp.State.Player.Nation)
	require.Zero(t, resp.State.Turn)

	code, resp = doJSON(t, h, http.MethodGet, "/slots", "")
	require.Equal(t, http.StatusOK, code)
	var slots slotsView
	require.NoError(t, json.Unmarshal(resp.Result, &slots))
	require.Equal(t, store.Slot(2), slots.Active)
	require.True(t, slots.Slots[0].Empty)
	require.False(t, slots.Slots[1].Empty)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/save-slot-2/turn", "")
	require.Equal(t, http.StatusOK, code)
	var result game.TurnResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.True(t, result.Advanced)
	require.Equal(t, 1, resp.State.Turn)

	code, resp = doJSON(t, h, http.MethodGet, "/slots/2", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, resp.State.Turn)

	code, _ = doJSON(t, h, http.MethodDelete, "/slots/2", "")
	require.Equal(t, http.StatusOK, code)
	code, resp = doJSON(t, h, http.MethodGet, "/slots/2", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, reasonSlotEmpty, resp.Reason)
}

func TestNewGameValidatesInput(t *testing.T) {
	h, _ := newTestHandler(t, store.NewMemoryRepository())

	code, resp := doJSON(t, h, http.MethodPost, "/slots/1", `{"name":"Ada"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, reasonMalformed, resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1", `{"nation":"Atlantis"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, resp.Message, "Atlantis")

	code, resp = doJSON(t, h, http.MethodPost, "/slots/4", `{"nation":"Brazil"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, reasonInvalidSlot, resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1", `{"nation":"Chile"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, defaultPlayerName, resp.State.Player.Name)
}

func TestSetActiveSlot(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, _ := newTestHandler(t, repo)

	code, _ := doJSON(t, h, http.MethodPut, "/slots/active", `{"slot":"save-slot-3"}`)
	require.Equal(t, http.StatusOK, code)
	active, err := repo.ActiveSlot(context.Background())
	require.NoError(t, err)
	require.Equal(t, store.Slot(3), active)

	code, _ = doJSON(t, h, http.MethodPut, "/slots/active", `{"slot":2}`)
	require.Equal(t, http.StatusOK, code)
	active, err = repo.ActiveSlot(context.Background())
	require.NoError(t, err)
	require.Equal(t, store.Slot(2), active)

	code, resp := doJSON(t, h, http.MethodPut, "/slots/active", `{"slot":7}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, reasonInvalidSlot, resp.Reason)
}

func TestWarCommands(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, _ := newTestHandler(t, repo)
	code, _ := doJSON(t, h, http.MethodPost, "/slots/1", `{"nation":"Brazil"}`)
	require.Equal(t, http.StatusCreated, code)

	code, resp := doJSON(t, h, http.MethodPost, "/slots/1/wars", `{"target":"  "}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonInvalidTarget), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/wars", `{"target":"Argentina"}`)
	require.Equal(t, http.StatusOK, code)
	var war game.War
	require.NoError(t, json.Unmarshal(resp.Result, &war))
	require.Equal(t, "Argentina", war.Target)
	require.NotEmpty(t, war.ID)
	require.Len(t, resp.State.World.Wars, 1)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/wars", `{"target":"Argentina"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonAlready), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPatch, "/slots/1/wars/"+war.ID, `{"army":2,"navy":0.3}`)
	require.Equal(t, http.StatusOK, code)
	var patched game.War
	require.NoError(t, json.Unmarshal(resp.Result, &patched))
	require.Equal(t, 1.0, patched.Commitment.Army)
	require.Equal(t, 0.3, patched.Commitment.Navy)

	code, resp = doJSON(t, h, http.MethodPatch, "/slots/1/wars/nope", `{"army":0.5}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonUnknownWar), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPatch, "/slots/1/wars/"+war.ID, `{"marines":0.5}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, reasonMalformed, resp.Reason)
}

func TestEventAndMissionRejections(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, _ := newTestHandler(t, repo)
	code, _ := doJSON(t, h, http.MethodPost, "/slots/1", `{"nation":"Japan"}`)
	require.Equal(t, http.StatusCreated, code)

	code, resp := doJSON(t, h, http.MethodPost, "/slots/1/event", `{"choice":0}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonNoPendingEvent), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/event", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, reasonMalformed, resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/missions/m9/claim", "")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonUnknownMission), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/missions/m1/claim", "")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonNotCompleted), resp.Reason)
}

func TestPendingEventResolvesOverHTTP(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, engine := newTestHandler(t, repo)

	st := engine.NewState("Ada", "Kenya")
	st.PendingEvent = &game.PendingEvent{
		ID:    "audit",
		Title: "Audit",
		Choices: []game.Choice{
			{Label: "Comply", Effects: game.Effects{Funds: -1000}},
		},
	}
	seedSlot(t, repo, 1, st)

	code, resp := doJSON(t, h, http.MethodPost, "/slots/1/turn", "")
	require.Equal(t, http.StatusOK, code)
	var result game.TurnResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.False(t, result.Advanced)
	require.Zero(t, resp.State.Turn)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/event", `{"choice":3}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonInvalidChoice), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/event", `{"choice":0}`)
	require.Equal(t, http.StatusOK, code)
	require.Nil(t, resp.State.PendingEvent)
	require.Equal(t, st.Economy.Funds-1000, resp.State.Economy.Funds)
}

func TestSpendingCommands(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, _ := newTestHandler(t, repo)
	code, start := doJSON(t, h, http.MethodPost, "/slots/3", `{"nation":"Germany"}`)
	require.Equal(t, http.StatusCreated, code)
	funds := start.State.Economy.Funds

	code, resp := doJSON(t, h, http.MethodPost, "/slots/3/infrastructure", `{"sector":"transport","delta":100000}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, funds-100000, resp.State.Economy.Funds)
	require.Equal(t, int64(100000), resp.State.Infrastructure["transport"])

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/infrastructure", `{"sector":"moonbase","delta":1}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonUnknownSector), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/military", `{"branch":"Navy","delta":2}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, start.State.Military.Navy+2, resp.State.Military.Navy)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/military", `{"branch":"marines","delta":2}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonUnknownBranch), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/influence", `{"region":"Europe"}`)
	require.Equal(t, http.StatusOK, code)
	var gained game.InfluenceResult
	require.NoError(t, json.Unmarshal(resp.Result, &gained))
	require.Equal(t, game.RegionEurope, gained.Region)
	require.GreaterOrEqual(t, gained.Gain, 2)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/influence", `{"region":"atlantis","operation":"intel"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonUnknownRegion), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/influence", `{"region":"asia","operation":"coup"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, reasonMalformed, resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/research", `{"techId":"logistics_grid"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "logistics_grid", resp.State.Research.ActiveID)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/3/research", `{"techId":"drone_wings"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonTechLocked), resp.Reason)
}

func TestFinishedCampaignRefusesCommands(t *testing.T) {
	repo := store.NewMemoryRepository()
	h, engine := newTestHandler(t, repo)

	st := engine.NewState("Ada", "Peru")
	st.Flags.GameOver = true
	st.Turn = 40
	seedSlot(t, repo, 1, st)

	code, resp := doJSON(t, h, http.MethodPost, "/slots/1/wars", `{"target":"Chile"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonGameOver), resp.Reason)

	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/turn", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 40, resp.State.Turn)
	require.True(t, resp.State.Flags.GameOver)
}

func TestRejectedCommandIsNotSaved(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	h, engine := newTestHandler(t, repo)

	blob, err := json.Marshal(engine.NewState("Ada", "India"))
	require.NoError(t, err)
	repo.EXPECT().Load(gomock.Any(), store.Slot(1)).Return(blob, nil)

	code, resp := doJSON(t, h, http.MethodPost, "/slots/1/wars", `{"target":""}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, string(game.ReasonInvalidTarget), resp.Reason)
}

func TestAcceptedCommandIsSaved(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	h, engine := newTestHandler(t, repo)

	blob, err := json.Marshal(engine.NewState("Ada", "India"))
	require.NoError(t, err)
	gomock.InOrder(
		repo.EXPECT().Load(gomock.Any(), store.Slot(2)).Return(blob, nil),
		repo.EXPECT().Save(gomock.Any(), store.Slot(2), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ store.Slot, data []byte) error {
				saved, err := game.DecodeState(data)
				require.NoError(t, err)
				require.Len(t, saved.World.Wars, 1)
				require.Equal(t, "China", saved.World.Wars[0].Target)
				return nil
			}),
	)

	code, _ := doJSON(t, h, http.MethodPost, "/slots/2/wars", `{"target":"China"}`)
	require.Equal(t, http.StatusOK, code)
}

func TestRepositoryFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	h, engine := newTestHandler(t, repo)

	repo.EXPECT().Load(gomock.Any(), store.Slot(1)).Return(nil, errors.New("disk unavailable"))
	code, resp := doJSON(t, h, http.MethodPost, "/slots/1/turn", "")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, reasonInternal, resp.Reason)
	require.NotContains(t, resp.Message, "disk")

	repo.EXPECT().Load(gomock.Any(), store.Slot(1)).Return([]byte("not json"), nil)
	code, resp = doJSON(t, h, http.MethodGet, "/slots/1", "")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, reasonUnreadable, resp.Reason)

	blob, err := json.Marshal(engine.NewState("Ada", "India"))
	require.NoError(t, err)
	repo.EXPECT().Load(gomock.Any(), store.Slot(1)).Return(blob, nil)
	repo.EXPECT().Save(gomock.Any(), store.Slot(1), gomock.Any()).Return(errors.New("read-only"))
	code, resp = doJSON(t, h, http.MethodPost, "/slots/1/turn", "")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, reasonInternal, resp.Reason)

	repo.EXPECT().List(gomock.Any()).Return(nil, errors.New("locked"))
	code, _ = doJSON(t, h, http.MethodGet, "/slots", "")
	require.Equal(t, http.StatusInternalServerError, code)
}
