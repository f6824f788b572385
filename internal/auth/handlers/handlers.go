package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/brizzai/discord-verify/internal/auth/constants"
	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/store"
	"github.com/brizzai/discord-verify/internal/utils"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// IndexBody is the liveness string served on /
const IndexBody = "Discord OAuth Server Running ✅"

var (
	// ErrMissingCode is reported when Discord redirected without a code
	ErrMissingCode = errors.New("authorization code missing")

	// ErrAccessDenied is reported when the user declined the consent screen
	ErrAccessDenied = errors.New("authorization denied by user")
)

// Failure reasons shown to the user. Upstream detail only goes to the log.
const (
	reasonMissingCode  = "لم يتم استلام كود التفويض"
	reasonAccessDenied = "تم إلغاء التفويض من قبل المستخدم"
	reasonGeneric      = "حدث خطأ أثناء التفويض، حاول مرة أخرى لاحقاً"
)

// Exchanger turns an authorization code into a record
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*models.AuthorizationRecord, error)
}

// Handler serves the redirect target of the OAuth flow
type Handler struct {
	exchanger  Exchanger
	store      store.Store
	cdnBaseURL string
	scopes     string
}

// NewHandler creates a new Handler instance
func NewHandler(exchanger Exchanger, st store.Store, cfg *config.DiscordConfig) *Handler {
	return &Handler{
		exchanger:  exchanger,
		store:      st,
		cdnBaseURL: cfg.CDNBaseURL,
		scopes:     strings.Join(cfg.Scopes, ", "),
	}
}

type successPage struct {
	Title       string
	AvatarURL   string
	DisplayName string
	Username    string
	UserID      string
	Email       string
	Guilds      []string
	Scopes      string
}

type failurePage struct {
	Title  string
	Reason string
}

// HandleIndex handles GET /
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(IndexBody))
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"})
}

// HandleAuthCallback handles the redirect back from Discord. The page is
// always served with 200, success or not.
func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get(constants.CodeQueryParam)

	if errCode := query.Get(constants.ErrorQueryParam); errCode != "" {
		logger.Info("Authorization declined",
			zap.Error(ErrAccessDenied),
			zap.String("error", errCode),
			zap.String("error_description", query.Get(constants.ErrorDescriptionQueryParam)),
		)
		h.renderFailure(w, reasonAccessDenied)
		return
	}

	if code == "" {
		logger.Info("Callback without authorization code", zap.Error(ErrMissingCode))
		h.renderFailure(w, reasonMissingCode)
		return
	}

	logger.Debug("Exchanging authorization code", zap.Int("code_length", len(code)))

	rec, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("Authorization exchange failed", zap.Error(err))
		h.renderFailure(w, reasonGeneric)
		return
	}

	if err := h.store.Put(r.Context(), *rec); err != nil {
		logger.Error("Failed to persist authorization", zap.String("user_id", rec.UserID), zap.Error(err))
		h.renderFailure(w, reasonGeneric)
		return
	}

	logger.Info("User authorized",
		zap.String("user_id", rec.UserID),
		zap.String("username", rec.Profile.Username),
		zap.Int("guilds", len(rec.Guilds)),
	)

	utils.WriteHTML(w, pages, "success.html", successPage{
		Title:       "نجح التفويض",
		AvatarURL:   rec.Profile.AvatarURL(h.cdnBaseURL),
		DisplayName: rec.Profile.DisplayName(),
		Username:    rec.Profile.Username,
		UserID:      rec.UserID,
		Email:       rec.Profile.Email,
		Guilds:      rec.GuildNames(),
		Scopes:      h.scopes,
	}, http.StatusOK)
}

func (h *Handler) renderFailure(w http.ResponseWriter, reason string) {
	utils.WriteHTML(w, pages, "failure.html", failurePage{
		Title:  "فشل التفويض",
		Reason: reason,
	}, http.StatusOK)
}
