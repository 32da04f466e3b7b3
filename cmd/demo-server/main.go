package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	mem "loyaltykit/adapters/memory"
	ws "loyaltykit/adapters/websocket"
	"loyaltykit/core"
	"loyaltykit/engine"
	"loyaltykit/realtime"
)

// Demo server with the default tea shop loyalty program and a tiny
// built-in quiz. Everything lives in memory; restart wipes it.
func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	store := mem.New()
	bus := engine.NewEventBus(engine.DispatchAsync)
	svc := engine.NewLoyaltyService(store, bus, engine.DefaultRuleEngine())
	hub := realtime.NewHub()

	// Forward loyalty events to WebSocket clients
	bus.Subscribe(core.EventXPAdded, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventLevelUp, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	bus.Subscribe(core.EventQuizRecommended, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })

	loyaltyCfg := demoLoyaltyConfig()
	quizCfg := demoQuizConfig()

	r := chi.NewRouter()
	r.Handle("/ws", ws.Handler(hub))

	r.Post("/users/{id}/purchases", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		result, err := svc.RecordPurchase(req.Context(), core.UserID(chi.URLParam(req, "id")), body.Amount, loyaltyCfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, result)
	})

	r.Get("/users/{id}/loyalty", func(w http.ResponseWriter, req *http.Request) {
		status, err := svc.Status(req.Context(), core.UserID(chi.URLParam(req, "id")), loyaltyCfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, status)
	})

	r.Get("/loyalty/levels", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"levels": core.LevelTable(loyaltyCfg)})
	})

	r.Post("/quiz/recommendation", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			UserID  string           `json:"userId"`
			Answers core.QuizAnswers `json:"answers"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		teaType, matched, err := svc.Recommend(req.Context(), core.UserID(body.UserID), body.Answers, quizCfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"teaType": teaType, "matched": matched})
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", r); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func demoLoyaltyConfig() core.LoyaltyConfig {
	return core.LoyaltyConfig{
		XPMultiplier: 1,
		Tiers: [core.TierCount]core.LoyaltyTier{
			{MinXP: 0},
			{MinXP: 3000, DiscountPercent: 5, Perks: []string{"Ранний доступ к новинкам"}},
			{MinXP: 7000, DiscountPercent: 10, Perks: []string{"Бесплатная доставка"}},
			{MinXP: 15000, DiscountPercent: 15, Perks: []string{"Личный чайный сомелье"}},
		},
	}
}

func demoQuizConfig() core.QuizConfig {
	return core.QuizConfig{
		Questions: []core.QuizQuestion{
			{
				ID:     "taste",
				Prompt: "Какой вкус вам ближе?",
				Options: []core.QuizOption{
					{Value: "earthy", Label: "Землистый"},
					{Value: "floral", Label: "Цветочный"},
					{Value: "fresh", Label: "Свежий"},
				},
			},
			{
				ID:     "strength",
				Prompt: "Насколько крепкий чай вы любите?",
				Options: []core.QuizOption{
					{Value: "strong", Label: "Крепкий"},
					{Value: "light", Label: "Лёгкий"},
				},
			},
		},
		Rules: []core.RecommendationRule{
			{Conditions: []string{"earthy", "strong"}, TeaType: "Шу Пуэр", Priority: 1},
			{Conditions: []string{"floral", "light"}, TeaType: "Улун", Priority: 2},
			{Conditions: []string{"fresh"}, TeaType: "Зелёный чай", Priority: 3},
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
