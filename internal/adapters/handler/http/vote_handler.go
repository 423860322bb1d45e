package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/livepoll/api/internal/core/domain"
	"github.com/livepoll/api/internal/core/ports"
)

type VoteHandler struct {
	service  ports.VoteService
	identity *IdentityResolver
}

func NewVoteHandler(service ports.VoteService, identity *IdentityResolver) *VoteHandler {
	return &VoteHandler{
		service:  service,
		identity: identity,
	}
}

type voteRequest struct {
	OptionID string `json:"option_id"`
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, domain.ErrInvalidPollID.Error(), http.StatusBadRequest)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		http.Error(w, domain.ErrInvalidOption.Error(), http.StatusBadRequest)
		return
	}

	input := ports.VoteInput{
		PollID:   pollID,
		OptionID: optionID,
		VoterID:  h.identity.VoterID(w, r),
		RateKey:  h.identity.RateKey(r),
	}

	poll, err := h.service.Vote(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidOption):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrAlreadyVoted):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrRateLimited):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		default:
			http.Error(w, "failed to submit vote", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newPollResponse(poll)); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
