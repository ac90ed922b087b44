package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devtoc/infograph/pkg/buildinfo"
	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/engine"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/navigate"
	"github.com/devtoc/infograph/pkg/observability"
	"github.com/devtoc/infograph/pkg/records"
	"github.com/devtoc/infograph/pkg/render"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

const maxBody = 4 << 20

// Result is the JSON form of engine.Result.
type Result struct {
	Type    string          `json:"type"`
	Changed bool            `json:"changed"`
	Page    document.PageID `json:"page,omitempty"`
	Created []widget.ID     `json:"created,omitempty"`
	Removed []widget.ID     `json:"removed,omitempty"`
}

// CheckReport lists the structural violations of a document.
type CheckReport struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations,omitempty"`
}

// Selection is the body of selection requests and responses.
type Selection struct {
	IDs    []widget.ID       `json:"ids"`
	Active []navigate.Active `json:"active,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()
	info.Commands = engine.CommandTypes()
	info.Schemas = s.loader.Migrator.Versions()
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.loader.Repo.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"documents": ids})
}

// withStore resolves the {docID} session before calling fn.
func (s *Server) withStore(fn func(http.ResponseWriter, *http.Request, *docstore.Store)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		if err := errors.ValidateDocumentID(docID); err != nil {
			s.fail(w, r, err)
			return
		}
		st, err := s.session(r.Context(), docID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		fn(w, r, st)
	}
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		writeJSON(w, http.StatusOK, st.Document())
	})(w, r)
}

func (s *Server) closeDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	s.mu.Lock()
	_, ok := s.sessions[docID]
	delete(s.sessions, docID)
	s.mu.Unlock()
	if !ok {
		s.fail(w, r, errors.New(errors.ErrCodeDocumentNotFound, "document %s is not open", docID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkDocument(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		rep := CheckReport{OK: true}
		for _, v := range document.Check(st.Document()) {
			rep.OK = false
			rep.Violations = append(rep.Violations, v.String())
		}
		writeJSON(w, http.StatusOK, rep)
	})(w, r)
}

func (s *Server) postCommands(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
			return
		}
		cmds, err := decodeCommands(body)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		res, err := st.DispatchAll(r.Context(), cmds)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out := make([]Result, len(res))
		for i, x := range res {
			out[i] = Result{
				Type:    cmds[i].CommandType(),
				Changed: x.Changed,
				Page:    x.Page,
				Created: x.Created,
				Removed: x.Removed,
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": out})
	})(w, r)
}

// decodeCommands accepts a single command envelope or an array of them.
func decodeCommands(body []byte) ([]engine.Command, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		cmd, err := engine.UnmarshalCommand(trimmed)
		if err != nil {
			return nil, err
		}
		return []engine.Command{cmd}, nil
	}
	return engine.UnmarshalCommands(body)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		ok, err := st.Undo(r.Context())
		s.traveled(w, r, ok, err)
	})(w, r)
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		ok, err := st.Redo(r.Context())
		s.traveled(w, r, ok, err)
	})(w, r)
}

func (s *Server) traveled(w http.ResponseWriter, r *http.Request, ok bool, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": ok})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		if err := s.loader.Save(r.Context(), st.Document()); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		writeJSON(w, http.StatusOK, selection(st))
	})(w, r)
}

func (s *Server) putSelection(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		var body Selection
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
			s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode selection"))
			return
		}
		st.Select(r.Context(), body.IDs...)
		writeJSON(w, http.StatusOK, selection(st))
	})(w, r)
}

func selection(st *docstore.Store) Selection {
	ids := st.Selection()
	if ids == nil {
		ids = []widget.ID{}
	}
	return Selection{IDs: ids, Active: st.Active()}
}

// page resolves {pageID} against the open document.
func page(r *http.Request, st *docstore.Store) (*document.Document, document.PageID, error) {
	d := st.Document()
	pid := document.PageID(chi.URLParam(r, "pageID"))
	if _, ok := d.Page(pid); !ok {
		return nil, "", errors.New(errors.ErrCodePageNotFound, "page %s not found in %s", pid, d.ID)
	}
	return d, pid, nil
}

func (s *Server) readingOrder(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		d, pid, err := page(r, st)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		p, _ := d.Page(pid)
		order := tree.Flatten(p.Tree)
		if order == nil {
			order = []widget.ID{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"page": pid, "order": order})
	})(w, r)
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz",
	render.FormatSVG: "image/svg+xml",
	render.FormatPDF: "application/pdf",
	render.FormatPNG: "image/png",
}

func (s *Server) diagram(w http.ResponseWriter, r *http.Request) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		d, pid, err := page(r, st)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		format := r.URL.Query().Get("format")
		if format == "" {
			format = render.FormatSVG
		}
		ctype, ok := contentTypes[format]
		if !ok {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format))
			return
		}
		opts := render.Options{
			Labels:   r.URL.Query().Get("labels") != "false",
			Sequence: r.URL.Query().Get("sequence") == "true",
		}

		out, err := s.renderPage(r, d, pid, format, opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", ctype)
		_, _ = w.Write(out)
	})(w, r)
}

func (s *Server) renderPage(r *http.Request, d *document.Document, pid document.PageID, format string, opts render.Options) ([]byte, error) {
	ctx := r.Context()
	if !cache.Enabled(s.cache) {
		return renderDiagram(ctx, d, pid, format, opts)
	}
	recs, err := records.Export(d)
	if err != nil {
		return nil, err
	}
	key := s.keyer.RenderKey(records.Hash(recs), cache.RenderKeyOpts{
		Page:     string(pid),
		Format:   format,
		Labels:   opts.Labels,
		Sequence: opts.Sequence,
	})
	if data, ok, _ := s.cache.Get(ctx, key); ok {
		observability.Cache().OnCacheHit(ctx, cache.KeyTypeRender)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, cache.KeyTypeRender)

	out, err := renderDiagram(ctx, d, pid, format, opts)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, cache.TTLRender); err == nil {
		observability.Cache().OnCacheSet(ctx, cache.KeyTypeRender, len(out))
	}
	return out, nil
}

func renderDiagram(ctx context.Context, d *document.Document, pid document.PageID, format string, opts render.Options) ([]byte, error) {
	dot, err := render.ToDOT(d, pid, opts)
	if err != nil {
		return nil, err
	}
	out, err := render.Render(ctx, dot, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return out, nil
}

func (s *Server) next(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*docstore.Store).Next)
}

func (s *Server) previous(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*docstore.Store).Previous)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, move func(*docstore.Store, context.Context, document.PageID) (widget.ID, bool)) {
	s.withStore(func(w http.ResponseWriter, r *http.Request, st *docstore.Store) {
		_, pid, err := page(r, st)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		id, ok := move(st, r.Context(), pid)
		writeJSON(w, http.StatusOK, map[string]any{"moved": ok, "id": id, "selection": selection(st)})
	})(w, r)
}
