package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

type networkBody struct {
	ID      string `json:"id"`
	ChainID uint64 `json:"chainId"`
	Label   string `json:"label"`
}

type networksBody struct {
	Networks []networkBody `json:"networks"`
}

type refreshForkRequest struct {
	NetworkID string `json:"networkId"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func (s *Server) handleSimulate(sim *usecase.Simulator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.SimulateRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.NewFailureResponse("Invalid request body: "+err.Error()))
			return
		}
		if err := req.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, domain.NewFailureResponse(err.Error()))
			return
		}

		out := sim.Run(r.Context(), req)
		writeJSON(w, simulateStatus(out.Failure), out.Response)
	}
}

// simulateStatus maps a simulation failure to an HTTP status. Reverts and
// unexpected failures are still 200: the body carries success=false.
func simulateStatus(failure error) int {
	var cfgErr *domain.ConfigurationError
	switch {
	case failure == nil:
		return http.StatusOK
	case errors.As(failure, &cfgErr):
		return http.StatusBadRequest
	case domain.IsForkStartFailure(failure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

func (s *Server) handleHealth(health *usecase.ForkHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, health.Run())
	}
}

func (s *Server) handleNetworks(list *usecase.ListNetworks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := list.Run(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		body := networksBody{Networks: make([]networkBody, 0, len(result.Networks))}
		for _, n := range result.Networks {
			body.Networks = append(body.Networks, networkBody{
				ID:      n.Network.ID,
				ChainID: n.Network.ChainID,
				Label:   n.Network.Label,
			})
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) handleRefreshFork(refresh *usecase.RefreshFork) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshForkRequest
		if err := decodeBody(w, r, &req); err != nil || req.NetworkID == "" {
			writeJSON(w, http.StatusBadRequest, usecase.RefreshForkResult{
				Success: false,
				Message: "networkId is required",
			})
			return
		}

		result, err := refresh.Run(r.Context(), req.NetworkID)
		if err != nil {
			s.log.Warn("Fork refresh failed", "network", req.NetworkID, "error", err)
			writeJSON(w, http.StatusBadRequest, usecase.RefreshForkResult{
				Success: false,
				Message: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
