package api

import (
	"encoding/json"
	"net/http"

	"github.com/sqlporter/sqlporter/internal/rules"
	"github.com/sqlporter/sqlporter/internal/runner"
	"github.com/sqlporter/sqlporter/internal/sqlast"
)

func (s *Server) handleDialects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DialectsResponse{Dialects: sqlast.Names()})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if source == "" || target == "" {
		writeError(w, http.StatusBadRequest, "source and target query parameters are required")
		return
	}

	loader := rules.NewLoader(s.cfg.Conversion.RulesRoot, s.logger)
	writeJSON(w, http.StatusOK, RulesResponse{
		Source:    source,
		Target:    target,
		Behaviors: loader.Document(source, target, rules.CategoryDDL, rules.FileBehaviors),
		DataTypes: loader.Document(source, target, rules.CategoryDDL, rules.FileDataTypes),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceDir == "" {
		writeError(w, http.StatusBadRequest, "source_dir is required")
		return
	}
	if req.SourceDialect == "" {
		req.SourceDialect = s.cfg.Conversion.SourceDialect
	}
	if req.TargetDialect == "" {
		req.TargetDialect = s.cfg.Conversion.TargetDialect
	}

	run, err := runner.New(runner.Options{
		Source:          req.SourceDialect,
		Target:          req.TargetDialect,
		TargetVersion:   req.TargetVersion,
		RulesRoot:       s.cfg.Conversion.RulesRoot,
		GenerateCleanup: req.GenerateCleanup,
		Workers:         s.cfg.Conversion.Workers,
		Log:             s.logger,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := run.Run(r.Context(), req.SourceDir)
	resp := ConvertResponse{RunResult: res}
	if err != nil {
		// run-level fatal: no input or unwritable output
		resp.Error = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
