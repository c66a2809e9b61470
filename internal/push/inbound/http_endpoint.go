package inbound

import (
	"github.com/otterhq/otter/internal/pkg/router"
	"github.com/otterhq/otter/internal/push/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the push confirmation flow.
type HTTPEndpoint struct {
	uc uc
}

// Register binds a principal to a record and registers its push channel.
// @Summary Register push principal
// @Description Binds the username to the OTP record and registers the push channel for later confirmations.
// @Tags Push
// @Accept json
// @Produce json
// @Param uuid path string true "Record correlation id"
// @Param request body RegisterRequest true "Registration payload"
// @Success 200 {object} router.successResponse "Channel registered"
// @Failure 400 {object} router.errorResponse "Unknown record"
// @Failure 409 {object} router.errorResponse "Record bound to another principal"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /register-push/{uuid} [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.Register(r.Context(), usecase.RegisterInput{
		RecordID:    r.GetParam("uuid"),
		Username:    req.Username,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{}, nil
}

// Send pushes a fresh confirmation code to the record's bound principal.
// @Summary Send confirmation code
// @Description Generates a refer code, pushes it to the bound principal's channel, and returns it for audit.
// @Tags Push
// @Produce json
// @Param uuid path string true "Record correlation id"
// @Success 200 {object} router.successResponse{data=SendResponse} "Code sent"
// @Failure 400 {object} router.errorResponse "Unknown record or no channel"
// @Failure 500 {object} router.errorResponse "Delivery failure"
// @Router /send-push/{uuid} [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	resp, err := h.uc.Send(r.Context(), usecase.SendInput{RecordID: r.GetParam("uuid")})
	if err != nil {
		return nil, err
	}

	return SendResponse{ReferCode: resp.ReferCode}, nil
}

// Decide consumes a pending confirmation code with an accept/deny outcome.
// @Summary Decide on a confirmation
// @Description Accepts or denies the pending refer code for the principal and reports the outcome to the callback sink.
// @Tags Push
// @Accept json
// @Produce json
// @Param request body DecideRequest true "Decision payload"
// @Success 200 {object} router.successResponse "Decision recorded"
// @Failure 400 {object} router.errorResponse "Code expired or unknown"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /decide-push [post]
func (h *HTTPEndpoint) Decide(r *router.Request) (any, error) {
	var req DecideRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.Decide(r.Context(), usecase.DecideInput{
		Username:  req.Username,
		ReferCode: req.ReferCode,
		Accept:    req.Accept,
	})
	if err != nil {
		return nil, err
	}

	return DecideResponse{}, nil
}
