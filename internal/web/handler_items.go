package web

import (
	"net/http"
	"strconv"
)

func (s *Server) handleItemSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.inventory.Summary(r.Context(), r.PathValue("stableID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSummaryView(summary))
}

func (s *Server) handleTagNames(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.TagNames(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

func (s *Server) handleTagUsage(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.badRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	counts, err := s.tags.Usage(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]tagCountView, 0, len(counts))
	for _, c := range counts {
		out = append(out, tagCountView{Tag: c.Tag, Count: c.Count})
	}
	s.writeJSON(w, http.StatusOK, map[string][]tagCountView{"usage": out})
}
