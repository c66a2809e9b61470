package event

const OtpVerifiedDestination string = "otp_verified"

type OtpVerifiedMessage struct {
	RecordID string `json:"record_id"`
	Mode     string `json:"mode"`
	Accepted bool   `json:"accepted"`
}
