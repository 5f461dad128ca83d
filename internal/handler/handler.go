package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/rsvp"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	CoupleNames string
	WeddingDate string
	CeremonyAt  time.Time
}

// Handler serves the invitation page and the RSVP endpoints
type Handler struct {
	rsvp   *rsvp.Service
	config *Config
	tmpl   *template.Template
	log    zerolog.Logger
	now    func() time.Time
}

// NewHandler creates a new invitation handler
func NewHandler(svc *rsvp.Service, cfg *Config, log zerolog.Logger) *Handler {
	return &Handler{
		rsvp:   svc,
		config: cfg,
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
		log:    log.With().Str("component", "HTTP").Logger(),
		now:    time.Now,
	}
}

// NewServer builds the echo instance with every route registered
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := h.log.Info()
			if v.Error != nil {
				evt = h.log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Request")
			return nil
		},
	}))

	e.GET("/", h.ServePage)
	e.POST("/rsvp", h.SubmitForm)
	e.GET("/api/invitation", h.GetInvitation)
	e.POST("/api/rsvp", h.SubmitRSVP)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	return e
}

// pageView is everything the invitation template renders
type pageView struct {
	CoupleNames string
	WeddingDate string
	Visibility  invitation.VisibilitySet
	Countdown   invitation.Countdown
	UI          invitation.UIState
	Widget      *rsvp.Widget
	OpenURL     string
	FormAction  string
	Error       string
}

func (h *Handler) newPageView(rawName, rawGuest string, w *rsvp.Widget, ui invitation.UIState) pageView {
	q := url.Values{}
	if rawName != "" {
		q.Set("name", rawName)
	}
	if rawGuest != "" {
		q.Set("guest", rawGuest)
	}
	formAction := "/rsvp"
	if len(q) > 0 {
		formAction += "?" + q.Encode()
	}
	q.Set("open", "1")

	return pageView{
		CoupleNames: h.config.CoupleNames,
		WeddingDate: h.config.WeddingDate,
		Visibility:  invitation.Customize(w.Form.Record),
		Countdown:   invitation.CountdownTo(h.now(), h.config.CeremonyAt),
		UI:          ui,
		Widget:      w,
		OpenURL:     "/?" + q.Encode(),
		FormAction:  formAction,
	}
}

func (h *Handler) render(c echo.Context, status int, view pageView) error {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "invitation.html", view); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}
