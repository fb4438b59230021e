package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/funding"
)

// GetSnapshot serves the current funding snapshot through the cache
// contract. Partial upstream failure is invisible here; only a total failure
// with no prior snapshot produces the error envelope.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetSnapshot(r.Context())
	if err != nil {
		logrus.WithError(err).WithField("handler", "GetSnapshot").Error("Failed to serve funding snapshot")
		writeJSON(w, http.StatusInternalServerError, funding.NewErrorView(err))
		return
	}
	writeJSON(w, http.StatusOK, funding.NewSnapshotView(snapshot))
}
