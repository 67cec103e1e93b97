package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/foodcoach/internal/domain"
	"github.com/vbonduro/foodcoach/internal/service"
)

const maxSaveBody = 64 << 10

// flexNumber accepts a JSON number or a numeric string. null, an empty string
// and an absent key all leave it unset.
type flexNumber struct {
	value *float64
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		n.value = nil
		return nil
	}

	var f float64
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			n.value = nil
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		f = parsed
	} else if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %s", b)
	}
	n.value = &f
	return nil
}

type saveRequest struct {
	Cal      flexNumber `json:"cal"`
	Sugar    flexNumber `json:"sugar"`
	Carbs    flexNumber `json:"carbs"`
	UserID   string     `json:"userId"`
	FoodName string     `json:"foodName"`
}

type saveResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    *domain.FoodLogEntry `json:"data"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := s.service.Save(r.Context(), service.SaveInput{
		Calories: req.Cal.value,
		Carbs:    req.Carbs.value,
		Sugar:    req.Sugar.value,
		UserID:   req.UserID,
		FoodName: req.FoodName,
	})
	switch {
	case errors.Is(err, service.ErrMissingRequiredField),
		errors.Is(err, service.ErrNegativeValue),
		errors.Is(err, service.ErrMissingUserID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("save food log failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to save food log", err)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{
		Success: true,
		Message: "Food log saved successfully",
		Data:    entry,
	})
}
