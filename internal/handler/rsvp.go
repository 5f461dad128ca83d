package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"wedding-invitation/internal/directory"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/rsvp"
)

const (
	msgNameNotFound = "We couldn't find that name on our guest list. Please use the name on your invitation."
	msgTransport    = "Sorry, there was an error sending your RSVP. Please try again or contact us directly."
	msgInFlight     = "Your RSVP is already on its way. Please wait a moment."
	msgInvalid      = "Please check the form and try again."
	msgInternal     = "Something went wrong. Please try again later."
)

// ServePage renders the invitation for the guest named in the link
func (h *Handler) ServePage(c echo.Context) error {
	rawName := c.QueryParam("name")
	rawGuest := c.QueryParam("guest")

	w, err := h.rsvp.Open(c.Request().Context(), rawName, rawGuest)
	if err != nil {
		h.log.Error().Err(err).Str("name", rawName).Msg("Failed to open RSVP widget")
	}

	ui := invitation.UIState{EnvelopeOpened: c.QueryParam("open") != ""}
	return h.render(c, http.StatusOK, h.newPageView(rawName, rawGuest, w, ui))
}

// GetInvitation returns the personalised invitation as JSON
func (h *Handler) GetInvitation(c echo.Context) error {
	rawName := c.QueryParam("name")

	w, err := h.rsvp.Open(c.Request().Context(), rawName, c.QueryParam("guest"))
	if err != nil {
		h.log.Error().Err(err).Str("name", rawName).Msg("Failed to open RSVP widget")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"visibility": invitation.Customize(w.Form.Record),
		"rsvp":       w,
		"canSubmit":  w.CanSubmit(),
		"countdown":  invitation.CountdownTo(h.now(), h.config.CeremonyAt),
	})
}

// SubmitRSVP accepts an RSVP as JSON or form data
func (h *Handler) SubmitRSVP(c echo.Context) error {
	var req rsvp.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msgInvalid})
	}
	req.QueryName = c.QueryParam("name")

	w, err := h.rsvp.Submit(c.Request().Context(), req)
	if err != nil {
		status, msg := h.describe(err)
		return c.JSON(status, echo.Map{
			"error": msg,
			"retry": errors.Is(err, rsvp.ErrSubmissionTransport),
			"rsvp":  w,
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{"rsvp": w})
}

// SubmitForm handles the HTML form and renders the page with the outcome
func (h *Handler) SubmitForm(c echo.Context) error {
	rawName := c.QueryParam("name")
	rawGuest := c.QueryParam("guest")
	ui := invitation.UIState{EnvelopeOpened: true}

	var req rsvp.SubmitRequest
	if err := c.Bind(&req); err != nil {
		w, _ := h.rsvp.Open(c.Request().Context(), rawName, rawGuest)
		view := h.newPageView(rawName, rawGuest, w, ui)
		view.Error = msgInvalid
		return h.render(c, http.StatusBadRequest, view)
	}
	req.QueryName = rawName

	w, err := h.rsvp.Submit(c.Request().Context(), req)
	view := h.newPageView(rawName, rawGuest, w, ui)
	if err == nil {
		return h.render(c, http.StatusCreated, view)
	}

	status, msg := h.describe(err)
	if errors.Is(err, rsvp.ErrAlreadySubmitted) {
		msg = ""
	}
	if !w.Form.NameLocked && w.State != rsvp.StateLockedInvalid {
		w.Form.Name = req.GuestName
	}
	if !w.Form.GuestCountLocked && req.GuestCount > 0 {
		w.Form.GuestCount = req.GuestCount
	}
	view.Error = msg
	return h.render(c, status, view)
}

func (h *Handler) describe(err error) (int, string) {
	switch {
	case errors.Is(err, rsvp.ErrInvalidRequest):
		return http.StatusBadRequest, msgInvalid
	case errors.Is(err, directory.ErrNameNotFound):
		return http.StatusForbidden, msgNameNotFound
	case errors.Is(err, rsvp.ErrAlreadySubmitted):
		return http.StatusConflict, "You have already sent your RSVP."
	case errors.Is(err, rsvp.ErrSubmissionInFlight):
		return http.StatusConflict, msgInFlight
	case errors.Is(err, rsvp.ErrSubmissionTransport):
		return http.StatusBadGateway, msgTransport
	}
	h.log.Error().Err(err).Msg("RSVP failed")
	return http.StatusInternalServerError, msgInternal
}
