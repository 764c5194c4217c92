package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

// WebSocketRequest is the text message form of a frame. Binary messages
// carry the encoded frame directly.
type WebSocketRequest struct {
	Type  string `json:"type"` // "detect" or "ping"
	Image []byte `json:"image,omitempty"`
}

// WebSocketResponse answers one frame.
type WebSocketResponse struct {
	Type              string               `json:"type"` // "detection", "pong" or "error"
	Frame             int                  `json:"frame,omitempty"`
	RequestID         string               `json:"request_id,omitempty"`
	Result            *pipeline.ScanResult `json:"result,omitempty"`
	NormalizedCorners *utils.Quad          `json:"normalized_corners,omitempty"`
	Error             string               `json:"error,omitempty"`
}

// WebSocketConnWriter is the subset of *websocket.Conn used for replies.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// detectWebSocketHandler streams boundary detections for live preview
// frames. Every received frame is answered with one JSON message.
func (s *Server) detectWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	wsConnections.Inc()
	defer wsConnections.Dec()

	conn.SetReadLimit(s.maxUploadBytes())
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	requestID := requestIDFrom(r.Context())
	for frame := 1; ; frame++ {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket read failed", "request_id", requestID, "error", err)
			}
			return
		}
		wsMessages.WithLabelValues("received").Inc()

		resp := s.handleFrame(r.Context(), messageType, data)
		resp.Frame = frame
		resp.RequestID = requestID
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := sendWebSocketResponse(conn, resp); err != nil {
			slog.Warn("WebSocket write failed", "request_id", requestID, "error", err)
			return
		}
	}
}

// handleFrame decodes one message and runs detection on it.
func (s *Server) handleFrame(ctx context.Context, messageType int, data []byte) WebSocketResponse {
	switch messageType {
	case websocket.BinaryMessage:
	case websocket.TextMessage:
		var req WebSocketRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return errorResponse("invalid JSON message: " + err.Error())
		}
		switch req.Type {
		case "ping":
			return WebSocketResponse{Type: "pong"}
		case "detect", "":
			data = req.Image
		default:
			return errorResponse("unknown message type: " + req.Type)
		}
	default:
		return errorResponse("unsupported message type")
	}
	if len(data) == 0 {
		return errorResponse("empty frame")
	}

	img, _, err := utils.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return errorResponse("invalid image: " + err.Error())
	}
	res, err := s.detect(ctx, img)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errorResponse("connection closed")
		}
		return errorResponse(err.Error())
	}
	normalized := res.NormalizedCorners()
	return WebSocketResponse{Type: "detection", Result: res, NormalizedCorners: &normalized}
}

func errorResponse(msg string) WebSocketResponse {
	return WebSocketResponse{Type: "error", Error: msg}
}

func sendWebSocketResponse(conn WebSocketConnWriter, resp WebSocketResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	wsMessages.WithLabelValues("sent").Inc()
	return nil
}

// pingLoop keeps the connection alive until done is closed. WriteControl
// may run concurrently with WriteMessage.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
