package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mrsinham/radtech/internal/engine"
	"github.com/mrsinham/radtech/internal/export"
	"github.com/mrsinham/radtech/internal/kvmas"
	"github.com/mrsinham/radtech/internal/metrics"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
)

const maxProtocolBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// rawNumber accepts a JSON number or string and keeps its text.
type rawNumber string

func (n *rawNumber) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = rawNumber(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	*n = rawNumber(b)
	return nil
}

type deriveRequest struct {
	Age               string    `json:"age"`
	BodyType          string    `json:"bodyType"`
	Region            string    `json:"region"`
	EquipmentConstant rawNumber `json:"equipmentConstant"`
}

type deriveResponse struct {
	Protocol  string           `json:"protocol"`
	Selection engine.Selection `json:"selection"`
	Complete  bool             `json:"complete"`
	Missing   []string         `json:"missing,omitempty"`
	Result    *engine.Result   `json:"result,omitempty"`
	Display   engine.Display   `json:"display"`
}

// derive runs one derivation on e, resolving the equipment constant from
// its raw text.
func derive(e *engine.Engine, age, bodyType, region, constant string) deriveResponse {
	p := e.Protocol()
	sel := engine.SelectionFromKeys(age, bodyType, region)

	var opts []engine.DeriveOption
	if strings.TrimSpace(constant) != "" {
		opts = append(opts, engine.WithEquipmentConstant(engine.EquipmentConstant(constant, p)))
	}
	res, err := e.Derive(sel, opts...)

	resp := deriveResponse{
		Protocol:  p.Label(),
		Selection: sel,
		Display:   e.Format(res, err),
	}
	var incomplete *engine.IncompleteSelectionError
	if errors.As(err, &incomplete) {
		resp.Missing = incomplete.Missing
		return resp
	}
	resp.Complete = true
	resp.Result = &res
	return resp
}

// POST /api/derive
func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	writeJSON(w, http.StatusOK, derive(s.Engine(), req.Age, req.BodyType, req.Region, string(req.EquipmentConstant)))
}

// POST /api/kvmas
func (s *Server) handleKVMAs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EquipmentConstant rawNumber `json:"equipmentConstant"`
		Distance          rawNumber `json:"distance"`
		Structure         string    `json:"structure"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	res, err := kvmas.Run(s.Engine().Protocol(), string(req.EquipmentConstant), string(req.Distance), req.Structure)
	if err != nil {
		var fe *kvmas.FormError
		if errors.As(err, &fe) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  kvmas.FormMessage,
				"fields": fe.Fields,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/protocol
func (s *Server) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	p := s.Engine().Protocol()
	if r.URL.Query().Get("format") == "yaml" {
		data, err := protocol.Marshal(p)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /api/protocol (YAML body, admin only)
func (s *Server) handlePutProtocol(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProtocolBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("protocol exceeds %d bytes", maxProtocolBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	p, err := protocol.Parse(data)
	if err == nil {
		err = s.SetProtocol(p)
	}
	metrics.RecordProtocolReload(err == nil)
	if err != nil {
		s.logger.Warn("protocol upload rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"protocol": p.Label()})
}

type regionInfo struct {
	Key          protocol.Region    `json:"key"`
	Description  string             `json:"description"`
	Equipment    protocol.Equipment `json:"equipment"`
	ViewPosition string             `json:"viewPosition,omitempty"`
}

type regionGroupInfo struct {
	Key     protocol.RegionGroup `json:"key"`
	Label   string               `json:"label"`
	Regions []regionInfo         `json:"regions"`
}

func regionGroups(p *protocol.Protocol) []regionGroupInfo {
	groups := make([]regionGroupInfo, 0, len(protocol.AllRegionGroups()))
	for _, g := range protocol.AllRegionGroups() {
		info := regionGroupInfo{Key: g, Label: g.Label()}
		for _, r := range g.Regions() {
			row := p.Regions[r]
			info.Regions = append(info.Regions, regionInfo{
				Key:          r,
				Description:  row.Description,
				Equipment:    row.Equipment,
				ViewPosition: r.ViewPosition(),
			})
		}
		groups = append(groups, info)
	}
	return groups
}

// GET /api/regions
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, regionGroups(s.Engine().Protocol()))
}

// GET /api/selection
func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Load(r.Context())
	if errors.Is(err, selection.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("load selection", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load selection")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// PUT /api/selection
func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Age      string `json:"age"`
		BodyType string `json:"bodyType"`
		BodyPart string `json:"bodyPart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	sel := engine.SelectionFromKeys(req.Age, req.BodyType, req.BodyPart)
	rec := selection.FromSelection(sel, s.now())
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.logger.Error("save selection", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save selection")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// sheetFromQuery derives the technique named by the query string.
func (s *Server) sheetFromQuery(r *http.Request) (*export.TechniqueSheet, int, error) {
	q := r.URL.Query()
	e := s.Engine()
	sel := engine.SelectionFromKeys(q.Get("age"), q.Get("bodyType"), q.Get("region"))

	var constant *float64
	if raw := q.Get("equipmentConstant"); raw != "" {
		c := engine.EquipmentConstant(raw, e.Protocol())
		constant = &c
	}
	sheet, err := export.NewSheet(e, sel, constant, s.now())
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	if tags := q["tag"]; len(tags) > 0 {
		parsed, err := export.ParseTagFlags(tags)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		sheet.Tags = parsed
	}
	return sheet, http.StatusOK, nil
}

// GET /api/print
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	sheet, status, err := s.sheetFromQuery(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := export.RenderHTML(&buf, sheet); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// GET /api/export.dcm
func (s *Server) handleExportDICOM(w http.ResponseWriter, r *http.Request) {
	sheet, status, err := s.sheetFromQuery(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := export.EncodeDICOM(&buf, sheet); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/dicom")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(sheet.Selection.Region)+".dcm"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
