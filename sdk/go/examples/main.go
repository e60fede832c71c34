package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/SaucerHedge/agents/sdk/go/saucerhedge"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/chat", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(saucerhedge.ChatResponse{
			ID:        "demo-1",
			Role:      "assistant",
			Content:   "**Opening Hedged LP Position** 🚀",
			Timestamp: time.Now().UTC(),
			TxHash:    "0x1a2b3c4d",
			ToolUsed:  "open-hedged-position",
		})
	})
	mux.HandleFunc("/api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(saucerhedge.Stats{TotalTurns: 1, ActiveConversations: 1})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := saucerhedge.NewClient(srv.URL, srv.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Chat(ctx, saucerhedge.ChatRequest{
		UserID:  "demo",
		Message: "open a hedged position with 200 USDC and 500 HBAR",
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("agent replied (tool=%s tx=%s):\n%s\n", resp.ToolUsed, resp.TxHash, resp.Content)

	stats, err := client.Stats(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("stats: turns=%d active=%d\n", stats.TotalTurns, stats.ActiveConversations)
}
