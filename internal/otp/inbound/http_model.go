package inbound

import "net/http"

type GenerateHOTPRequest struct {
	Count uint64 `json:"count"`
}

type GenerateTOTPRequest struct {
	Timeout uint `json:"timeout"`
}

type GenerateResponse struct {
	OtpUUID string `json:"otp_uuid"`
	Otp     string `json:"otp"`
}

func (GenerateResponse) StatusCode() int {
	return http.StatusCreated
}

func (GenerateResponse) Message() string {
	return "OTP record created."
}

type ProvisionHOTPRequest struct {
	Count        uint64  `json:"count"`
	Name         string  `json:"name"`
	IssuerName   string  `json:"issuer_name"`
	InitialCount *uint64 `json:"initial_count,omitempty"`
}

type ProvisionTOTPRequest struct {
	Timeout    uint   `json:"timeout"`
	Name       string `json:"name"`
	IssuerName string `json:"issuer_name"`
}

type ProvisionResponse struct {
	OtpUUID         string `json:"otp_uuid"`
	ProvisioningURI string `json:"provisioning_uri"`
}

func (ProvisionResponse) StatusCode() int {
	return http.StatusCreated
}

func (ProvisionResponse) Message() string {
	return "OTP record created."
}

type VerifyRequest struct {
	Otp string `json:"otp"`
}

type VerifyResponse struct{}

func (VerifyResponse) Message() string {
	return "OTP verified."
}
