package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type healthResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
}

type sessionPath struct {
	ID string `path:"sessionID"`
}

type contrastingQuery struct {
	Difficulty string `query:"difficulty" enum:"easy,medium,hard"`
}

type leaderboardQuery struct {
	Limit int `query:"limit" minimum:"1" maximum:"100"`
}

type wsPlayQuery struct {
	Difficulty string `query:"difficulty" enum:"easy,medium,hard"`
	Player     string `query:"player"`
}

type choiceInput struct {
	ID     string `path:"sessionID"`
	Choice string `json:"choice" enum:"A,B"`
}

type difficultyInput struct {
	ID         string `path:"sessionID"`
	Difficulty string `json:"difficulty" enum:"easy,medium,hard"`
}

type finishInput struct {
	ID         string `path:"sessionID"`
	PlayerName string `json:"playerName"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Road Risk API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Accident risk predictions and the \"which road is riskier\" quiz.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Checks SQLite, Redis when configured, and the risk oracle.")
	getHealthz.AddRespStructure(map[string]healthResult{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]healthResult{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/status
	getStatus, _ := r.NewOperationContext(http.MethodGet, "/api/status")
	getStatus.SetSummary("API status")
	getStatus.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStatus)

	// POST /api/predict
	postPredict, _ := r.NewOperationContext(http.MethodPost, "/api/predict")
	postPredict.SetSummary("Predict accident risk")
	postPredict.SetDescription("Scores one road scenario and buckets the risk into a level.")
	postPredict.AddReqStructure(roadrisk.Scenario{})
	postPredict.AddRespStructure(PredictResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPredict.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPredict.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postPredict)

	// POST /api/compare
	postCompare, _ := r.NewOperationContext(http.MethodPost, "/api/compare")
	postCompare.SetSummary("Compare two scenarios")
	postCompare.SetDescription("Scores both scenarios. higher is 0 for a, 1 for b; ties go to b.")
	postCompare.AddReqStructure(CompareRequest{})
	postCompare.AddRespStructure(CompareResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCompare.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCompare.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postCompare)

	// GET /api/scenarios/random
	getRandom, _ := r.NewOperationContext(http.MethodGet, "/api/scenarios/random")
	getRandom.SetSummary("Random scenario")
	getRandom.AddRespStructure(ScenarioResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getRandom)

	// GET /api/scenarios/contrasting
	getPair, _ := r.NewOperationContext(http.MethodGet, "/api/scenarios/contrasting")
	getPair.SetSummary("Contrasting pair")
	getPair.SetDescription("Draws two scenarios whose contrast depends on the difficulty.")
	getPair.AddReqStructure(contrastingQuery{})
	getPair.AddRespStructure(PairResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPair.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getPair)

	// POST /api/sessions
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	postSession.SetSummary("Start a session")
	postSession.AddReqStructure(CreateSessionRequest{})
	postSession.AddRespStructure(game.View{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postSession)

	// GET /api/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}")
	getSession.SetSummary("Get session")
	getSession.AddReqStructure(sessionPath{})
	getSession.AddRespStructure(game.View{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// POST /api/sessions/{sessionID}/choice
	postChoice, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/choice")
	postChoice.SetSummary("Answer the round")
	postChoice.SetDescription("Picks the road believed riskier. Only valid while awaiting a choice.")
	postChoice.AddReqStructure(choiceInput{})
	postChoice.AddRespStructure(ChoiceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postChoice.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postChoice.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postChoice.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postChoice.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postChoice)

	// POST /api/sessions/{sessionID}/next
	postNext, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/next")
	postNext.SetSummary("Next round")
	postNext.SetDescription("Deals a new pair. Only valid while a result is shown.")
	postNext.AddReqStructure(sessionPath{})
	postNext.AddRespStructure(game.View{}, openapi.WithHTTPStatus(http.StatusOK))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postNext)

	// POST /api/sessions/{sessionID}/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/reset")
	postReset.SetSummary("Reset session")
	postReset.SetDescription("Zeroes the counters and deals a new pair.")
	postReset.AddReqStructure(sessionPath{})
	postReset.AddRespStructure(game.View{}, openapi.WithHTTPStatus(http.StatusOK))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postReset)

	// PUT /api/sessions/{sessionID}/difficulty
	putDifficulty, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{sessionID}/difficulty")
	putDifficulty.SetSummary("Change difficulty")
	putDifficulty.SetDescription("Applies from the next dealt pair.")
	putDifficulty.AddReqStructure(difficultyInput{})
	putDifficulty.AddRespStructure(game.View{}, openapi.WithHTTPStatus(http.StatusOK))
	putDifficulty.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putDifficulty.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(putDifficulty)

	// GET /api/sessions/{sessionID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{sessionID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events for a session: a state snapshot, then round, next, reset, difficulty and finished events.")
	getEvents.AddReqStructure(sessionPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	// POST /api/sessions/{sessionID}/finish
	postFinish, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{sessionID}/finish")
	postFinish.SetSummary("Finish run")
	postFinish.SetDescription("Ends the session and records it on the leaderboard.")
	postFinish.AddReqStructure(finishInput{})
	postFinish.AddRespStructure(FinishResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postFinish)

	// GET /api/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.AddReqStructure(leaderboardQuery{})
	getBoard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getBoard)

	// GET /ws/play
	getWSPlay, _ := r.NewOperationContext(http.MethodGet, "/ws/play")
	getWSPlay.SetSummary("WebSocket play")
	getWSPlay.SetDescription("One session per connection. Send {type: choose|next|reset|difficulty}; replies are view, result or error messages.")
	getWSPlay.AddReqStructure(wsPlayQuery{})
	getWSPlay.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWSPlay)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
