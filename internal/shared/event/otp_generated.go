package event

const OtpGeneratedDestination string = "otp_generated"

type OtpGeneratedMessage struct {
	RecordID string `json:"record_id"`
	Mode     string `json:"mode"`
}
