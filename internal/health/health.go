// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package health serve o endpoint de liveness do robotd: uma única rota,
// GET /healthz, que responde 200 OK sem corpo assim que o próprio
// listener HTTP estiver de pé; não consulta o estado do accept loop.
// Não publica contadores nem histórico de sessões.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run sobe o listener HTTP do healthcheck em background e o encerra
// gracefully quando o context é cancelado. Retorna imediatamente; erros
// de ListenAndServe são apenas logados, pois o healthcheck nunca deve
// derrubar o accept loop principal.
func Run(ctx context.Context, listen string, logger *slog.Logger) {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              listen,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		logger.Info("health endpoint listening", "address", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health endpoint error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("health endpoint shutdown error", "error", err)
		}
	}()
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
