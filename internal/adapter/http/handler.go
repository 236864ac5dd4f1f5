package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"savekeep/internal/adapter/collab"
	"savekeep/internal/app/persistence"
	"savekeep/internal/app/ports"
	"savekeep/internal/app/sequence"
	"savekeep/internal/domain/conditions"
)

var (
	ErrSequenceNotFound = errors.New("sequence not found")
	ErrInvalidRequest   = errors.New("invalid request")
)

type SequenceEntry struct {
	Sequencer *sequence.Sequencer
	Dialogue  *collab.DialogueBridge
}

type Handler struct {
	Persistence *persistence.Orchestrator
	Board       *conditions.Board
	Sequences   map[string]SequenceEntry
	Steps       *collab.StepRegistry
	KPI         kpiSnapshotProvider
	// Events is optional; set when the host keeps recent events in memory.
	Events recentEvents
}

type recentEvents interface {
	Events() []ports.Event
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	api := s.Group("/api")
	api.GET("/profiles", h.listProfiles)
	api.DELETE("/profiles/:id", h.deleteProfile)
	api.GET("/profile", h.profile)
	api.POST("/profile/select", h.selectProfile)

	api.POST("/game/new", h.newGame)
	api.POST("/game/load", h.loadGame)
	api.POST("/game/save", h.saveGame)
	api.GET("/game/snapshot", h.snapshot)
	api.POST("/game/mode", h.setMode)

	api.GET("/conditions", h.listConditions)
	api.POST("/conditions", h.setCondition)

	api.GET("/sequences", h.listSequences)
	api.POST("/sequences/:name/dialogue-ended", h.dialogueEnded)
	api.POST("/steps/:id/outcome", h.stepOutcome)

	s.GET("/ops/kpi", h.kpi)
	s.GET("/ops/events", h.recentEvents)
}

type selectProfileRequest struct {
	ProfileID string `json:"profile_id"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type conditionRequest struct {
	Name  string `json:"name"`
	Value *bool  `json:"value"`
}

type stepOutcomeRequest struct {
	Succeeded *bool `json:"succeeded"`
}

type sequenceView struct {
	sequence.Status
	Dialogue string `json:"dialogue,omitempty"`
}

func (h Handler) listProfiles(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"profiles": h.Persistence.AllProfiles(c),
	})
}

func (h Handler) profile(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"profile_id": h.Persistence.ActiveProfile(),
		"mode":       h.Persistence.LoadedMode(),
		"has_record": h.Persistence.HasRecord(),
		"disabled":   h.Persistence.Disabled(),
	})
}

func (h Handler) selectProfile(c context.Context, ctx *app.RequestContext) {
	var body selectProfileRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := ports.ValidateProfileID(body.ProfileID); err != nil {
		writeError(ctx, err)
		return
	}
	result := h.Persistence.SetActiveProfile(c, body.ProfileID)
	ctx.JSON(consts.StatusOK, map[string]any{
		"profile_id":  body.ProfileID,
		"load_result": result,
	})
}

func (h Handler) deleteProfile(c context.Context, ctx *app.RequestContext) {
	id := string(ctx.Param("id"))
	if err := ports.ValidateProfileID(id); err != nil {
		writeError(ctx, err)
		return
	}
	reload, _ := strconv.ParseBool(string(ctx.Query("reload")))
	deleted := h.Persistence.DeleteProfile(c, id, reload)
	ctx.JSON(consts.StatusOK, map[string]any{
		"deleted":        deleted,
		"active_profile": h.Persistence.ActiveProfile(),
	})
}

func (h Handler) newGame(_ context.Context, ctx *app.RequestContext) {
	h.Persistence.NewGame()
	ctx.JSON(consts.StatusOK, map[string]any{"has_record": true})
}

func (h Handler) loadGame(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"load_result": h.Persistence.LoadGame(c)})
}

func (h Handler) saveGame(c context.Context, ctx *app.RequestContext) {
	result := h.Persistence.SaveGame(c)
	if result == persistence.SaveFailed {
		writeErrorBody(ctx, consts.StatusInternalServerError, "save_failed", "save failed")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"save_result": result})
}

func (h Handler) snapshot(c context.Context, ctx *app.RequestContext) {
	rec, ok := h.Persistence.Snapshot(c)
	if !ok {
		writeError(ctx, ports.ErrNoActiveRecord)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

func (h Handler) setMode(_ context.Context, ctx *app.RequestContext) {
	var body modeRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	mode, ok := persistence.ParseLoadedMode(strings.ToLower(strings.TrimSpace(body.Mode)))
	if !ok {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_mode", "mode must be normal or gallery")
		return
	}
	h.Persistence.SetLoadedMode(mode)
	ctx.JSON(consts.StatusOK, map[string]any{"mode": mode})
}

func (h Handler) listConditions(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"conditions": h.Board.Snapshot()})
}

func (h Handler) setCondition(_ context.Context, ctx *app.RequestContext) {
	var body conditionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if strings.TrimSpace(body.Name) == "" || body.Value == nil {
		writeError(ctx, ErrInvalidRequest)
		return
	}
	h.Board.Set(body.Name, *body.Value)
	ctx.JSON(consts.StatusOK, map[string]any{"name": body.Name, "value": *body.Value})
}

func (h Handler) listSequences(_ context.Context, ctx *app.RequestContext) {
	names := make([]string, 0, len(h.Sequences))
	for name := range h.Sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]sequenceView, 0, len(names))
	for _, name := range names {
		entry := h.Sequences[name]
		view := sequenceView{Status: entry.Sequencer.Status()}
		if entry.Dialogue != nil {
			view.Dialogue = entry.Dialogue.Current()
		}
		out = append(out, view)
	}
	ctx.JSON(consts.StatusOK, map[string]any{"sequences": out})
}

func (h Handler) dialogueEnded(_ context.Context, ctx *app.RequestContext) {
	name := string(ctx.Param("name"))
	entry, ok := h.Sequences[name]
	if !ok {
		writeError(ctx, ErrSequenceNotFound)
		return
	}
	if entry.Dialogue != nil {
		entry.Dialogue.Clear()
	}
	entry.Sequencer.NotifyDialogueEnded()
	ctx.JSON(consts.StatusOK, map[string]any{"sequence": name})
}

func (h Handler) stepOutcome(_ context.Context, ctx *app.RequestContext) {
	var body stepOutcomeRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Succeeded == nil {
		writeError(ctx, ErrInvalidRequest)
		return
	}
	if h.Steps == nil {
		writeError(ctx, collab.ErrStepNotFound)
		return
	}
	outcome := ports.StepFailed
	if *body.Succeeded {
		outcome = ports.StepSucceeded
	}
	id := string(ctx.Param("id"))
	if err := h.Steps.Report(id, outcome); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"step": id, "outcome": outcome.String()})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) recentEvents(_ context.Context, ctx *app.RequestContext) {
	if h.Events == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "event log not configured")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"events": h.Events.Events()})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ports.ErrInvalidProfileID):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNoActiveRecord):
		writeErrorBody(ctx, consts.StatusNotFound, "no_active_record", err.Error())
	case errors.Is(err, ErrSequenceNotFound),
		errors.Is(err, collab.ErrStepNotFound),
		errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, collab.ErrStepNotPlaying):
		writeErrorBody(ctx, consts.StatusConflict, "step_not_playing", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
