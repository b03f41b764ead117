package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"scriptsum/internal/apperr"
	"scriptsum/internal/service"
)

const wsWriteWait = 10 * time.Second

type wsFrame struct {
	Type      string   `json:"type"`
	Stage     string   `json:"stage,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	ActorList []string `json:"actorList,omitempty"`
	Error     string   `json:"error,omitempty"`
	Code      string   `json:"code,omitempty"`
}

// SummaryWebSocket runs the pipeline like GetSummary but streams a progress
// frame per stage, then one result or error frame, then closes.
func (h *Handler) SummaryWebSocket(c *gin.Context) {
	id := sessionID(c)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return originAllowed(h.origins, r) },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err, "request_id", c.GetString(ctxRequestID))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// The client sends nothing; a failed read means it went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	write := func(f wsFrame) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(f)
	}

	sum, err := h.svc.Summarize(ctx, id, func(stage service.Stage, detail string) {
		if werr := write(wsFrame{Type: "progress", Stage: string(stage), Detail: detail}); werr != nil {
			h.log.Debug("websocket progress write failed", "err", werr)
		}
	})
	if err != nil {
		ae := apperr.From(err)
		if ae.Status() >= http.StatusInternalServerError {
			h.log.Error("websocket summary failed", "code", ae.Code(), "err", err)
		}
		_ = write(wsFrame{Type: "error", Error: ae.Message, Code: ae.Code()})
	} else {
		_ = write(wsFrame{Type: "result", Summary: sum.Summary, ActorList: sum.ActorList})
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
}
