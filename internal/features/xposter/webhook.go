package xposter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/messenger"
)

// NewWebhookServer поднимает HTTP-поверхность автопостера.
// Аутентификация: per-account секрет, заданный при добавлении.
func NewWebhookServer(addr string, svc *Service, msgr messenger.Messenger) *http.Server {
	h := &webhookHandler{svc: svc, msgr: msgr}
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/webhook/xposter", func(r chi.Router) {
		r.Post("/add", h.add)
		r.Post("/config", h.config)
		r.Post("/test", h.test)
		r.Get("/list", h.list)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // /test качает медиа
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type webhookHandler struct {
	svc  *Service
	msgr messenger.Messenger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Не удалось закодировать ответ вебхука")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "пустое тело запроса")
			return false
		}
		writeError(w, http.StatusBadRequest, "некорректный JSON")
		return false
	}
	return true
}

// add — POST /webhook/xposter/add
func (h *webhookHandler) add(w http.ResponseWriter, r *http.Request) {
	var p AddParams
	if !decodeBody(w, r, &p) {
		return
	}

	acc, err := h.svc.Add(r.Context(), p)
	if errors.Is(err, ErrAccountExists) {
		writeError(w, http.StatusConflict, "аккаунт уже добавлен")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"username": acc.Username,
		"interval": acc.IntervalMinutes,
	})
}

type configRequest struct {
	Username        string `json:"username"`
	Secret          string `json:"secret"`
	IntervalMinutes *int   `json:"intervalMinutes"`
	Template        string `json:"template"`
	TargetChatID    string `json:"targetChatId"`
	Enabled         *bool  `json:"enabled"`
}

// config — POST /webhook/xposter/config
func (h *webhookHandler) config(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acc, err := h.svc.Get(r.Context(), req.Username)
	if errors.Is(err, ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "аккаунт не найден")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
		return
	}
	if !h.svc.VerifySecret(acc, req.Secret) {
		writeError(w, http.StatusForbidden, "неверный секрет")
		return
	}

	patch := map[string]any{}
	if req.IntervalMinutes != nil {
		m := *req.IntervalMinutes
		if m < minIntervalMinutes {
			m = minIntervalMinutes
		}
		patch["intervalMinutes"] = m
	}
	if req.Template != "" {
		patch["template"] = req.Template
	}
	if req.TargetChatID != "" {
		patch["targetChatId"] = req.TargetChatID
	}
	if req.Enabled != nil {
		patch["enabled"] = *req.Enabled
	}
	if len(patch) == 0 {
		writeError(w, http.StatusBadRequest, "нечего менять")
		return
	}

	if err := h.svc.Configure(r.Context(), acc.Username, patch); err != nil {
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type testRequest struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// test — POST /webhook/xposter/test: шлёт последний пост сразу.
func (h *webhookHandler) test(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acc, err := h.svc.Get(r.Context(), req.Username)
	if errors.Is(err, ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "аккаунт не найден")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
		return
	}
	if !h.svc.VerifySecret(acc, req.Secret) {
		writeError(w, http.StatusForbidden, "неверный секрет")
		return
	}

	if err := h.svc.Test(r.Context(), acc.Username, h.msgr); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// list — GET /webhook/xposter/list (без токенов и секретов)
func (h *webhookHandler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
		return
	}

	type item struct {
		Username        string    `json:"username"`
		TargetChatID    string    `json:"targetChatId"`
		IntervalMinutes int       `json:"intervalMinutes"`
		Enabled         bool      `json:"enabled"`
		LastRunAt       time.Time `json:"lastRunAt"`
		LastPostedID    string    `json:"lastPostedId,omitempty"`
	}
	out := make([]item, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, item{
			Username:        a.Username,
			TargetChatID:    a.TargetChatID,
			IntervalMinutes: a.IntervalMinutes,
			Enabled:         a.Enabled,
			LastRunAt:       a.LastRunAt,
			LastPostedID:    a.LastPostedID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}
