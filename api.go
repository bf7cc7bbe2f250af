package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"world-protocol/internal/game"
	"world-protocol/internal/store"
)

const defaultPlayerName = "Commander"

// Reasons for failures raised outside the engine.
const (
	reasonSlotEmpty   = "slot_empty"
	reasonInvalidSlot = "invalid_slot"
	reasonMalformed   = "malformed_request"
	reasonUnreadable  = "unreadable_save"
	reasonInternal    = "internal"
)

var errUnreadableSave = errors.New("save blob cannot be decoded")

type inputError struct{ msg string }

func (e inputError) Error() string { return e.msg }

func malformed(format string, args ...any) error {
	return inputError{msg: fmt.Sprintf(format, args...)}
}

type server struct {
	mu     sync.Mutex
	engine *game.Engine
	repo   store.Repository
	log    *slog.Logger
}

func newServer(engine *game.Engine, repo store.Repository, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{engine: engine, repo: repo, log: logger}
}

type response struct {
	OK      bool        `json:"ok"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
	State   *game.State `json:"state,omitempty"`
	Result  any         `json:"result,omitempty"`
}

type slotsView struct {
	Active store.Slot       `json:"active"`
	Slots  []store.SlotInfo `json:"slots"`
}

type slotView struct {
	Slot  store.Slot `json:"slot"`
	Phase game.Phase `json:"phase"`
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{OK: true})
	})
	r.Get("/catalog", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{OK: true, Result: s.engine.Catalog()})
	})

	r.Route("/slots", func(r chi.Router) {
		r.Get("/", s.handleListSlots)
		r.Put("/active", s.handleSetActiveSlot)

		r.Route("/{slot}", func(r chi.Router) {
			r.Post("/", s.handleNewGame)
			r.Get("/", s.handleGetSlot)
			r.Delete("/", s.handleDeleteSlot)

			r.Post("/turn", s.command(func(_ *http.Request, st *game.State) (any, error) {
				return s.engine.NextTurn(st), nil
			}))
			r.Post("/wars", s.command(s.guarded(s.startWar)))
			r.Patch("/wars/{warID}", s.command(s.guarded(s.setCommitment)))
			r.Post("/event", s.command(s.guarded(s.resolveEvent)))
			r.Post("/missions/{missionID}/claim", s.command(s.guarded(s.claimMission)))
			r.Post("/infrastructure", s.command(s.guarded(s.invest)))
			r.Post("/military", s.command(s.guarded(s.recruit)))
			r.Post("/influence", s.command(s.guarded(s.influence)))
			r.Post("/research", s.command(s.guarded(s.research)))
		})
	})
	return r
}

type commandFunc func(r *http.Request, st *game.State) (any, error)

// command wraps a state mutation: the slot is re-read from the repository,
// normalized, mutated and written back. Rejected commands are not saved.
func (s *server) command(fn commandFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := store.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			s.fail(w, r, err)
			return
		}

		// Lock for the full handler so load, mutate and save happen as one step.
		s.mu.Lock()
		defer s.mu.Unlock()

		ctx := r.Context()
		st, err := s.load(ctx, slot)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		result, err := fn(r, st)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.save(ctx, slot, st); err != nil {
			s.fail(w, r, err)
			return
		}
		s.log.Info("command applied",
			"slot", int(slot),
			"route", routePattern(r),
			"turn", st.Turn,
			"phase", game.PhaseOf(st),
		)
		writeJSON(w, http.StatusOK, response{OK: true, State: st, Result: result})
	}
}

// guarded refuses fn once the campaign has ended.
func (s *server) guarded(fn commandFunc) commandFunc {
	return func(r *http.Request, st *game.State) (any, error) {
		switch game.PhaseOf(st) {
		case game.PhaseGameOver, game.PhaseVictory:
			return nil, game.ErrGameOver
		}
		return fn(r, st)
	}
}

func (s *server) load(ctx context.Context, slot store.Slot) (*game.State, error) {
	blob, err := s.repo.Load(ctx, slot)
	if err != nil {
		return nil, err
	}
	st, err := game.DecodeState(blob)
	if err != nil {
		s.log.Error("save unreadable", "slot", int(slot), "err", err)
		return nil, fmt.Errorf("%w: %v", errUnreadableSave, err)
	}
	return s.engine.Normalize(st), nil
}

func (s *server) save(ctx context.Context, slot store.Slot, st *game.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.repo.Save(ctx, slot, blob); err != nil {
		s.log.Error("save failed", "slot", int(slot), "err", err)
		return err
	}
	return nil
}

func (s *server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := s.repo.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	active, err := s.repo.ActiveSlot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Result: slotsView{Active: active, Slots: infos}})
}

func (s *server) handleSetActiveSlot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slot json.RawMessage `json:"slot"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	slot, err := store.ParseSlot(strings.Trim(string(req.Slot), `"`))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SetActiveSlot(r.Context(), slot); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, Result: slotsView{Active: slot}})
}

func (s *server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	slot, err := store.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		Name   string `json:"name"`
		Nation string `json:"nation"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultPlayerName
	}
	nation := strings.TrimSpace(req.Nation)
	if nation == "" {
		s.fail(w, r, malformed("nation is required"))
		return
	}
	if nations := s.engine.Catalog().Nations; len(nations) > 0 && !slices.Contains(nations, nation) {
		s.fail(w, r, malformed("unknown nation %q", nation))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	st := s.engine.NewState(name, nation)
	if err := s.save(ctx, slot, st); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.repo.SetActiveSlot(ctx, slot); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("new campaign", "slot", int(slot), "nation", nation)
	writeJSON(w, http.StatusCreated, response{OK: true, State: st, Result: slotView{Slot: slot, Phase: game.PhaseOf(st)}})
}

func (s *server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := store.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(r.Context(), slot)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true, State: st, Result: slotView{Slot: slot, Phase: game.PhaseOf(st)}})
}

func (s *server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := store.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(r.Context(), slot); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("slot deleted", "slot", int(slot))
	writeJSON(w, http.StatusOK, response{OK: true})
}

func (s *server) startWar(r *http.Request, st *game.State) (any, error) {
	var req struct {
		Target string `json:"target"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return s.engine.StartWar(st, req.Target)
}

func (s *server) setCommitment(r *http.Request, st *game.State) (any, error) {
	var patch game.CommitmentPatch
	if err := decodeBody(r, &patch); err != nil {
		return nil, err
	}
	warID := chi.URLParam(r, "warID")
	if err := s.engine.SetWarCommitment(st, warID, patch); err != nil {
		return nil, err
	}
	for _, war := range st.World.Wars {
		if war.ID == warID {
			return war, nil
		}
	}
	return nil, nil
}

func (s *server) resolveEvent(r *http.Request, st *game.State) (any, error) {
	var req struct {
		Choice *int `json:"choice"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.Choice == nil {
		return nil, malformed("choice is required")
	}
	return nil, s.engine.ResolvePendingEvent(st, *req.Choice)
}

func (s *server) claimMission(r *http.Request, st *game.State) (any, error) {
	return nil, s.engine.ClaimMissionReward(st, chi.URLParam(r, "missionID"))
}

func (s *server) invest(r *http.Request, st *game.State) (any, error) {
	var req struct {
		Sector string `json:"sector"`
		Delta  int64  `json:"delta"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return nil, s.engine.Invest(st, req.Sector, req.Delta)
}

func (s *server) recruit(r *http.Request, st *game.State) (any, error) {
	var req struct {
		Branch string `json:"branch"`
		Delta  int    `json:"delta"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	return nil, s.engine.Recruit(st, game.Branch(strings.ToLower(req.Branch)), req.Delta)
}

func (s *server) influence(r *http.Request, st *game.State) (any, error) {
	var req struct {
		Region    string `json:"region"`
		Operation string `json:"operation"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	region, _ := game.ParseRegion(req.Region)
	switch strings.ToLower(req.Operation) {
	case "", "campaign":
		return s.engine.RunInfluenceCampaign(st, region)
	case "intel":
		return s.engine.RunIntelOperation(st, region)
	default:
		return nil, malformed("unknown operation %q", req.Operation)
	}
}

func (s *server) research(r *http.Request, st *game.State) (any, error) {
	var req struct {
		TechID string `json:"techId"`
	}
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := s.engine.StartResearch(st, req.TechID); err != nil {
		return nil, err
	}
	return st.Research, nil
}

// fail maps err onto a status code and a reason tag.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		gameErr  *game.Error
		inputErr inputError
	)
	switch {
	case errors.As(err, &gameErr):
		s.log.Debug("command rejected", "route", routePattern(r), "reason", gameErr.Reason)
		writeJSON(w, http.StatusConflict, response{Reason: string(gameErr.Reason), Message: gameErr.Message})
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusUnprocessableEntity, response{Reason: reasonMalformed, Message: inputErr.msg})
	case errors.Is(err, store.ErrInvalidSlot):
		writeJSON(w, http.StatusUnprocessableEntity, response{Reason: reasonInvalidSlot, Message: err.Error()})
	case errors.Is(err, store.ErrSlotEmpty):
		writeJSON(w, http.StatusNotFound, response{Reason: reasonSlotEmpty, Message: err.Error()})
	case errors.Is(err, errUnreadableSave):
		writeJSON(w, http.StatusInternalServerError, response{Reason: reasonUnreadable, Message: err.Error()})
	default:
		s.log.Error("request failed", "route", routePattern(r), "err", err)
		writeJSON(w, http.StatusInternalServerError, response{Reason: reasonInternal, Message: "internal error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return malformed("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return malformed("decode request: %v", err)
	}
	return nil
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "err", err)
	}
}
