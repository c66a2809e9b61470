package inbound

import (
	"github.com/otterhq/otter/internal/otp/usecase"
	"github.com/otterhq/otter/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for OTP generation and verification.
type HTTPEndpoint struct {
	uc uc
}

// GenerateHOTP creates a counter-based record and returns its first code.
// @Summary Generate HOTP record
// @Description Creates a counter-based OTP record seeded at count and returns the record id with the first code.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body GenerateHOTPRequest true "Generation payload"
// @Success 201 {object} router.successResponse{data=GenerateResponse} "Record created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /generate-otp/hotp [post]
func (h *HTTPEndpoint) GenerateHOTP(r *router.Request) (any, error) {
	var req GenerateHOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.GenerateHOTP(r.Context(), usecase.GenerateHOTPInput{Count: req.Count})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{OtpUUID: resp.RecordID, Otp: resp.Code}, nil
}

// GenerateTOTP creates a time-based record and returns the current code.
// @Summary Generate TOTP record
// @Description Creates a time-based OTP record with the given step width and returns the record id with the current code.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body GenerateTOTPRequest true "Generation payload"
// @Success 201 {object} router.successResponse{data=GenerateResponse} "Record created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /generate-otp/totp [post]
func (h *HTTPEndpoint) GenerateTOTP(r *router.Request) (any, error) {
	var req GenerateTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.GenerateTOTP(r.Context(), usecase.GenerateTOTPInput{Timeout: req.Timeout})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{OtpUUID: resp.RecordID, Otp: resp.Code}, nil
}

// ProvisionHOTP creates a counter-based record and returns an otpauth URI.
// @Summary Generate HOTP provisioning URI
// @Description Creates a counter-based record and returns a provisioning URI for authenticator apps. The raw code is withheld.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body ProvisionHOTPRequest true "Provisioning payload"
// @Success 201 {object} router.successResponse{data=ProvisionResponse} "Record created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /generate-otp/hotp/provision-uri [post]
func (h *HTTPEndpoint) ProvisionHOTP(r *router.Request) (any, error) {
	var req ProvisionHOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ProvisionHOTP(r.Context(), usecase.ProvisionHOTPInput{
		Count:        req.Count,
		Name:         req.Name,
		IssuerName:   req.IssuerName,
		InitialCount: req.InitialCount,
	})
	if err != nil {
		return nil, err
	}

	return ProvisionResponse{OtpUUID: resp.RecordID, ProvisioningURI: resp.ProvisioningURI}, nil
}

// ProvisionTOTP creates a time-based record and returns an otpauth URI.
// @Summary Generate TOTP provisioning URI
// @Description Creates a time-based record and returns a provisioning URI for authenticator apps. The raw code is withheld.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body ProvisionTOTPRequest true "Provisioning payload"
// @Success 201 {object} router.successResponse{data=ProvisionResponse} "Record created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /generate-otp/totp/provision-uri [post]
func (h *HTTPEndpoint) ProvisionTOTP(r *router.Request) (any, error) {
	var req ProvisionTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ProvisionTOTP(r.Context(), usecase.ProvisionTOTPInput{
		Timeout:    req.Timeout,
		Name:       req.Name,
		IssuerName: req.IssuerName,
	})
	if err != nil {
		return nil, err
	}

	return ProvisionResponse{OtpUUID: resp.RecordID, ProvisioningURI: resp.ProvisioningURI}, nil
}

// Verify checks a candidate code against the stored record.
// @Summary Verify an OTP code
// @Description Verifies the submitted code for the record. Rejections are deliberately generic.
// @Tags OTP
// @Accept json
// @Produce json
// @Param otp_type path string true "hotp or totp"
// @Param uuid path string true "Record correlation id"
// @Param request body VerifyRequest true "Candidate payload"
// @Success 200 {object} router.successResponse "Code accepted"
// @Failure 400 {object} router.errorResponse "Code rejected"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /verify-otp/{otp_type}/{uuid} [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		OtpType:  r.GetParam("otp_type"),
		RecordID: r.GetParam("uuid"),
		Code:     req.Otp,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{}, nil
}
