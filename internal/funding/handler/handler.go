package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"fundingarb/internal/domain"
)

// SnapshotProvider is the pull interface exposed by the funding service.
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context) (domain.Snapshot, error)
}

type Handler struct {
	service SnapshotProvider
}

func NewFundingHandler(service SnapshotProvider) *Handler {
	return &Handler{service: service}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
