package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/param"
	"github.com/justyntemme/plugcore/pkg/framework/state"
)

const maxStateBytes = 1 << 20

// ParamView is the JSON form of a parameter and its current value.
type ParamView struct {
	ID        uint32   `json:"id"`
	Name      string   `json:"name"`
	ShortName string   `json:"shortName"`
	Unit      string   `json:"unit,omitempty"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Default   float64  `json:"default"`
	Steps     int32    `json:"steps,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Automate  bool     `json:"automatable"`
	Modulate  bool     `json:"modulatable"`
	ReadOnly  bool     `json:"readOnly"`
	Hidden    bool     `json:"hidden,omitempty"`
	Value     float64  `json:"value"`
	Plain     float64  `json:"plain"`
	Display   string   `json:"display"`
}

// SetRequest sets a parameter by exactly one of its fields.
type SetRequest struct {
	Value *float64 `json:"value,omitempty"` // normalized
	Plain *float64 `json:"plain,omitempty"`
	Text  *string  `json:"text,omitempty"` // display text, e.g. "1.2 kHz"
}

// ModulationRequest sets a modulation offset.
type ModulationRequest struct {
	Offset float64 `json:"offset"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) view(d *param.Descriptor) ParamView {
	v, _ := s.ctrl.CurrentValue(d.ID)
	return ParamView{
		ID:        d.ID,
		Name:      d.Name,
		ShortName: d.ShortName,
		Unit:      d.Unit,
		Min:       d.Min,
		Max:       d.Max,
		Default:   d.DefaultValue,
		Steps:     d.StepCount,
		Labels:    d.Labels(),
		Automate:  d.Automatable(),
		Modulate:  d.Modulatable(),
		ReadOnly:  d.Flags&param.IsReadOnly != 0,
		Hidden:    d.Flags&param.IsHidden != 0,
		Value:     v,
		Plain:     d.Denormalize(v),
		Display:   d.FormatValue(v),
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       s.info.ID,
		"uid":      s.info.UID().String(),
		"name":     s.info.Name,
		"version":  s.info.Version,
		"vendor":   s.info.Vendor,
		"category": s.info.Category,
		"instance": s.states.Instance().String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Stats())
}

func (s *Server) handleListParams(w http.ResponseWriter, r *http.Request) {
	descs := s.ctrl.Descriptors()
	out := make([]ParamView, 0, len(descs))
	for _, d := range descs {
		out = append(out, s.view(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) descriptor(w http.ResponseWriter, r *http.Request) (*param.Descriptor, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	d, err := s.ctrl.Descriptor(uint32(id))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return d, true
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	d, ok := s.descriptor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(d))
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	d, ok := s.descriptor(w, r)
	if !ok {
		return
	}
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	var value float64
	switch {
	case req.Value != nil:
		value = *req.Value
	case req.Plain != nil:
		value = d.Normalize(*req.Plain)
	case req.Text != nil:
		v, err := d.ParseValue(*req.Text)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("parse %q: %w", *req.Text, err))
			return
		}
		value = v
	default:
		writeError(w, http.StatusBadRequest, errors.New("one of value, plain or text is required"))
		return
	}

	if err := s.ctrl.SetValue(d.ID, value); err != nil {
		writeSendError(w, err)
		return
	}
	s.changed()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleModulation(w http.ResponseWriter, r *http.Request) {
	d, ok := s.descriptor(w, r)
	if !ok {
		return
	}
	if !d.Modulatable() {
		writeError(w, http.StatusConflict, fmt.Errorf("%s is not modulatable", d.Name))
		return
	}
	var req ModulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.ctrl.SetModulation(d.ID, req.Offset); err != nil {
		writeSendError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	d, ok := s.descriptor(w, r)
	if !ok {
		return
	}
	var err error
	if mux.Vars(r)["phase"] == "begin" {
		err = s.ctrl.BeginGesture(d.ID)
	} else {
		err = s.ctrl.EndGesture(d.ID)
	}
	if err != nil {
		writeSendError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.states.Save(&buf, s.ctrl.Snapshot()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(buf.Bytes())
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.states.Load(io.LimitReader(r.Body, maxStateBytes))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, state.ErrWrongPlugin) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	if err := s.ctrl.Restore(r.Context(), snap.Values); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.log.Info("restored %d values from instance %s", len(snap.Values), snap.Instance)
	s.changed()
	w.WriteHeader(http.StatusNoContent)
}

func writeSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, channel.ErrQueueFull):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, channel.ErrReadOnly):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, channel.ErrUnknownParam):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
