package telegram

import (
	"context"
	"fmt"
	"strings"

	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/translator"
)

func (r *Router) notConfigured(chatID int64, service string) {
	r.send(chatID, service+" is not configured on this bot.")
}

// splitLangText splits "/translate fr some text" arguments into the target
// language and the text.
func splitLangText(args string) (lang, text string, ok bool) {
	lang, text, _ = strings.Cut(strings.TrimSpace(args), " ")
	text = strings.TrimSpace(text)
	if lang == "" || text == "" {
		return "", "", false
	}
	return lang, text, true
}

func (r *Router) onTranslate(ctx context.Context, chatID int64, args string) {
	if r.Translator == nil {
		r.notConfigured(chatID, "Translator")
		return
	}
	lang, text, ok := splitLangText(args)
	if !ok {
		r.send(chatID, "Usage: /translate <lang> <text>")
		return
	}
	if err := translator.ValidateLanguages(lang); err != nil {
		r.send(chatID, err.Error())
		return
	}
	out, err := r.Journal.Track(ctx, "translator", "translate", lang+" "+text, func(ctx context.Context) (string, error) {
		return r.Translator.TranslateText(ctx, text, "", lang)
	})
	if err != nil {
		r.SendError(chatID, "translate", err)
		return
	}
	r.send(chatID, fmt.Sprintf("[%s] %s", lang, out))
}

func (r *Router) onDetect(ctx context.Context, chatID int64, text string) {
	if r.Language == nil {
		r.notConfigured(chatID, "Language")
		return
	}
	if text == "" {
		r.send(chatID, "Usage: /detect <text>")
		return
	}
	out, err := r.Journal.Track(ctx, "language", "detect_language", text, func(ctx context.Context) (string, error) {
		b, err := r.Language.DetectLanguage(ctx, []string{text}, "")
		if err != nil {
			return "", err
		}
		o := b.Ordered(1)[0]
		switch {
		case o.Err != nil:
			return "", fmt.Errorf("%s", o.Err.String())
		case o.Result == nil || o.Result.DetectedLanguage == nil:
			return "", fmt.Errorf("no language returned")
		}
		dl := o.Result.DetectedLanguage
		return fmt.Sprintf("Language: %s (%s), confidence %.2f", dl.Name, dl.ISO6391Name, dl.ConfidenceScore), nil
	})
	if err != nil {
		r.SendError(chatID, "detect", err)
		return
	}
	r.send(chatID, out)
}

func (r *Router) onModerate(ctx context.Context, chatID int64, text string) {
	if r.Safety == nil {
		r.notConfigured(chatID, "Content Safety")
		return
	}
	if text == "" {
		r.send(chatID, "Usage: /moderate <text>")
		return
	}
	out, err := r.Journal.Track(ctx, "contentsafety", "analyze_text", text, func(ctx context.Context) (string, error) {
		res, err := r.Safety.AnalyzeText(ctx, contentsafety.TextOptions{Text: text})
		if err != nil {
			return "", err
		}
		lines := contentsafety.Report(res.CategoriesAnalysis)
		for _, m := range res.BlocklistsMatch {
			lines = append(lines, fmt.Sprintf("Blocklist %s: %q", m.BlocklistName, m.BlocklistItemText))
		}
		return strings.Join(lines, "\n"), nil
	})
	if err != nil {
		r.SendError(chatID, "moderate", err)
		return
	}
	r.send(chatID, out)
}

func (r *Router) onAsk(ctx context.Context, chatID int64, prompt string) {
	if r.Engines == nil {
		r.notConfigured(chatID, "Chat")
		return
	}
	if prompt == "" {
		r.send(chatID, "Usage: /ask <prompt>")
		return
	}
	eng, err := r.Engines.GetEngine(r.engineFor(chatID))
	if err != nil {
		r.send(chatID, err.Error())
		return
	}
	msgs := []chat.Message{{Role: chat.RoleUser, Content: prompt}}
	out, err := r.Journal.Track(ctx, "chat", eng.Name(), prompt, func(ctx context.Context) (string, error) {
		rep, err := eng.Chat(ctx, msgs, chat.Options{})
		return rep.Text, err
	})
	if err != nil {
		r.SendError(chatID, "ask", err)
		return
	}
	r.send(chatID, clipReply(out))
}

// engineFor is the chat engine picked with /engine, empty for the default.
func (r *Router) engineFor(chatID int64) string {
	if v, ok := r.engine.Load(chatID); ok {
		return v.(string)
	}
	return ""
}

func (r *Router) onEngine(chatID int64, args string) {
	if r.Engines == nil {
		r.notConfigured(chatID, "Chat")
		return
	}
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		cur := "azure"
		if n := r.engineFor(chatID); n != "" {
			cur = n
		}
		r.sendEngineChoice(chatID, cur)
		return
	}
	r.switchEngine(chatID, name)
}

func (r *Router) switchEngine(chatID int64, name string) {
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		r.send(chatID, err.Error())
		return
	}
	r.engine.Store(chatID, eng.Name())
	r.send(chatID, fmt.Sprintf("Chat engine: %s (%s)", eng.Name(), eng.GetModel()))
}
