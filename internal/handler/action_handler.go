package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
	"github.com/yourusername/eventreg-api/internal/service"
	"github.com/yourusername/eventreg-api/pkg/auth"
)

// Version is reported by the health endpoint.
const Version = "2.1.0"

// Action names accepted by the dispatch endpoint.
const (
	ActionRegister         = "REGISTER"
	ActionGetSlots         = "GET_SLOTS"
	ActionGetRegistrations = "GET_REGISTRATIONS"
	ActionCreateEvent      = "CREATE_EVENT"
	ActionGetEvents        = "GET_EVENTS"
	ActionUpdateEvent      = "UPDATE_EVENT"
	ActionDeleteEvent      = "DELETE_EVENT"
	ActionSendOTP          = "SEND_OTP"
	ActionVerifyOTP        = "VERIFY_OTP"
)

// ActionHandler parses incoming action requests and dispatches to the
// services. The action selector and its payload share one flat JSON body.
type ActionHandler struct {
	registrationService *service.RegistrationService
	otpService          *service.OTPService
	eventService        *service.EventService
	tokenService        *auth.TokenService
}

func NewActionHandler(
	registrationService *service.RegistrationService,
	otpService *service.OTPService,
	eventService *service.EventService,
	tokenService *auth.TokenService,
) *ActionHandler {
	return &ActionHandler{
		registrationService: registrationService,
		otpService:          otpService,
		eventService:        eventService,
		tokenService:        tokenService,
	}
}

// HandleAction is the single POST endpoint. It reads the body once, picks
// the action, and re-unmarshals the same bytes into the typed payload.
func (h *ActionHandler) HandleAction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, fmt.Errorf("%w: could not read request body", apperrors.ErrValidation))
		return
	}

	var selector struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &selector); err != nil {
		respondError(c, fmt.Errorf("%w: request body must be JSON", apperrors.ErrValidation))
		return
	}

	switch strings.ToUpper(strings.TrimSpace(selector.Action)) {
	case ActionRegister:
		h.register(c, body)
	case ActionGetSlots:
		h.getSlots(c)
	case ActionGetRegistrations:
		h.getRegistrations(c)
	case ActionCreateEvent:
		h.createEvent(c, body)
	case ActionGetEvents:
		h.getEvents(c)
	case ActionUpdateEvent:
		h.updateEvent(c, body)
	case ActionDeleteEvent:
		h.deleteEvent(c, body)
	case ActionSendOTP:
		h.sendOTP(c, body)
	case ActionVerifyOTP:
		h.verifyOTP(c, body)
	default:
		respondError(c, fmt.Errorf("%w: unknown action %q", apperrors.ErrValidation, selector.Action))
	}
}

// Health is the GET variant: a static health/version payload.
func (h *ActionHandler) Health(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "service is up", gin.H{
		"service": "eventreg-api",
		"version": Version,
		"status":  "ok",
	})
}

func (h *ActionHandler) register(c *gin.Context, body []byte) {
	var sub service.RegistrationSubmission
	if err := json.Unmarshal(body, &sub); err != nil {
		respondError(c, fmt.Errorf("%w: malformed registration payload", apperrors.ErrValidation))
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), &sub)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "registration successful", result)
}

func (h *ActionHandler) getSlots(c *gin.Context) {
	info, err := h.eventService.Slots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "slots fetched", info)
}

func (h *ActionHandler) getRegistrations(c *gin.Context) {
	if _, err := h.requireAdmin(c); err != nil {
		respondError(c, err)
		return
	}

	regs, err := h.registrationService.ListRegistrations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "registrations fetched", regs)
}

func (h *ActionHandler) createEvent(c *gin.Context, body []byte) {
	if _, err := h.requireAdmin(c); err != nil {
		respondError(c, err)
		return
	}

	var input service.EventInput
	if err := json.Unmarshal(body, &input); err != nil {
		respondError(c, fmt.Errorf("%w: malformed event payload", apperrors.ErrValidation))
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "event created", event)
}

func (h *ActionHandler) getEvents(c *gin.Context) {
	events, err := h.eventService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "events fetched", events)
}

func (h *ActionHandler) updateEvent(c *gin.Context, body []byte) {
	if _, err := h.requireAdmin(c); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		ID string `json:"id"`
		service.EventInput
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, fmt.Errorf("%w: malformed event payload", apperrors.ErrValidation))
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), req.ID, &req.EventInput)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "event updated", event)
}

func (h *ActionHandler) deleteEvent(c *gin.Context, body []byte) {
	if _, err := h.requireAdmin(c); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, fmt.Errorf("%w: malformed event payload", apperrors.ErrValidation))
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "event deleted", gin.H{"id": req.ID})
}

func (h *ActionHandler) sendOTP(c *gin.Context, body []byte) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, fmt.Errorf("%w: malformed otp payload", apperrors.ErrValidation))
		return
	}

	result, err := h.otpService.Issue(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "OTP sent", result)
}

func (h *ActionHandler) verifyOTP(c *gin.Context, body []byte) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, fmt.Errorf("%w: malformed otp payload", apperrors.ErrValidation))
		return
	}

	result, err := h.otpService.Verify(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "OTP verified", result)
}

// requireAdmin checks the bearer token minted by VERIFY_OTP. Registration
// and slot actions stay public; everything the admin portal does goes
// through here.
func (h *ActionHandler) requireAdmin(c *gin.Context) (*auth.AdminClaims, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, fmt.Errorf("%w: missing bearer token", apperrors.ErrUnauthorized)
	}
	return h.tokenService.Parse(strings.TrimPrefix(header, "Bearer "))
}
