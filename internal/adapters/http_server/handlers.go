package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"online_store/internal/app"
	"online_store/internal/domain"
)

type ReviewAPI interface {
	Create(ctx context.Context, actor domain.Actor, in app.ReviewInput) (domain.Review, error)
	Delete(ctx context.Context, actor domain.Actor, reviewID int64) (domain.Review, error)
	ListActive(ctx context.Context) ([]domain.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error)
}

type CatalogAPI interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProducts(ctx context.Context, q domain.ProductsQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

type AccountAPI interface {
	Register(ctx context.Context, email, password string, role domain.Role) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type Handlers struct {
	Reviews  ReviewAPI
	Catalog  CatalogAPI
	Accounts AccountAPI
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Method(http.MethodPost, "/", s.writeLimit(h.createReview))
		r.Method(http.MethodDelete, "/{review_id}", s.writeLimit(h.deleteReview))
		r.Get("/products/{product_id}/reviews/", h.listProductReviews)
	})
	s.mux.Route("/users", func(r chi.Router) {
		r.Method(http.MethodPost, "/", s.writeLimit(h.register))
		r.Method(http.MethodPost, "/token", s.writeLimit(h.token))
	})
	s.mux.Get("/categories/", h.listCategories)
	s.mux.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{product_id}", h.getProduct)
	})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable answers GETs with a weak ETag and honours If-None-Match.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "internal error", nil)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidInput(name + " must be a positive integer")
	}
	return id, nil
}

// ---- reviews ----

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Reviews.Create(r.Context(), actorFrom(r.Context()), app.ReviewInput{
		ProductID: req.ProductID,
		Comment:   req.Comment,
		Grade:     req.Grade,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "review_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Reviews.Delete(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.Reviews.ListActive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) listProductReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Reviews.ListByProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

// ---- catalog ----

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	var q domain.ProductsQuery
	if cs := r.URL.Query().Get("category_id"); cs != "" {
		c, err := strconv.ParseInt(cs, 10, 64)
		if err != nil || c <= 0 {
			writeError(w, r, domain.InvalidInput("category_id must be a positive integer"))
			return
		}
		q.CategoryID = &c
	}
	out, err := h.Catalog.ListProducts(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, toProductViews(out))
}

func (h *Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, toProductView(p))
}

// ---- users ----

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Accounts.Register(r.Context(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userView{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive})
}

// token implements the OAuth2 password grant form: username carries the email.
func (h *Handlers) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, domain.InvalidInput("request body must be a form"))
		return
	}
	req := tokenRequest{Username: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := h.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenView{AccessToken: tok, TokenType: "bearer"})
}
