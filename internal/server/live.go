package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API has no cookies or credentials to protect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveRequest is one text frame sent by the client while the user types.
type liveRequest struct {
	calculationRequest
	// ID is echoed back so the client can drop stale answers.
	ID string `json:"id,omitempty"`
}

type liveResponse struct {
	ID          string                     `json:"id,omitempty"`
	Result      *pricing.Result            `json:"result,omitempty"`
	Formatted   map[string]string          `json:"formatted,omitempty"`
	Sensitivity []pricing.SensitivityPoint `json:"sensitivity,omitempty"`
	Cached      bool                       `json:"cached,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// handleLive recalculates on every frame received. Malformed frames get an
// error frame and the connection stays open.
func (h *handler) handleLive(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLive"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.String("op", op), zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.LiveConnections.Inc()
	defer h.metrics.LiveConnections.Dec()

	conn.SetReadLimit(h.maxUploadSize)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(livePingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("live connection closed", zap.String("op", op), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		if messageType != websocket.TextMessage {
			continue
		}
		h.metrics.LiveMessages.Inc()

		resp := h.liveCalculate(r, data)
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Debug("live write failed", zap.String("op", op), zap.Error(err))
			return
		}
	}
}

func (h *handler) liveCalculate(r *http.Request, data []byte) liveResponse {
	var req liveRequest
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return liveResponse{Error: "failed to decode request: " + err.Error()}
	}

	display := req.display()
	if err := validateDisplay(display); err != nil {
		return liveResponse{ID: req.ID, Error: err.Error()}
	}

	calc, cached := h.compute(r.Context(), req.mode(), req.Inputs)
	result := calc.Result
	return liveResponse{
		ID:          req.ID,
		Result:      &result,
		Formatted:   formatResult(result, display),
		Sensitivity: calc.Sensitivity,
		Cached:      cached,
	}
}
