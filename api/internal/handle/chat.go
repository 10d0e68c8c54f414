package handle

import (
	"context"
	"net/http"

	"azure-playground/api/internal/chat"
)

type ChatRequest struct {
	LLMName  string         `json:"llm_name"`
	Messages []chat.Message `json:"messages"`
	chat.Options
}

func (h *Handle) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodePost(w, r, &req) {
		return
	}
	if err := chat.Validate(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.Engines == nil {
		notConfigured(w, "chat")
		return
	}
	engine, err := h.Engines.GetEngine(req.LLMName)
	if err != nil {
		writeError(w, http.StatusBadGateway, "chat error: "+err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var reply chat.Reply
	last := req.Messages[len(req.Messages)-1].Content
	_, err = h.Journal.Track(ctx, "chat", engine.Name(), last, func(ctx context.Context) (string, error) {
		var err error
		reply, err = engine.Chat(ctx, req.Messages, req.Options)
		return reply.Text, err
	})
	if err != nil {
		writeVendorError(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
