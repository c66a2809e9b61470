package inbound

type RegisterRequest struct {
	Username    string `json:"username"`
	DeviceToken string `json:"device_token,omitempty"`
}

type RegisterResponse struct{}

func (RegisterResponse) Message() string {
	return "Push channel registered."
}

type SendResponse struct {
	ReferCode string `json:"refer_code"`
}

func (SendResponse) Message() string {
	return "Confirmation code sent."
}

type DecideRequest struct {
	Username  string `json:"username"`
	ReferCode string `json:"refer_code"`
	Accept    bool   `json:"accept"`
}

type DecideResponse struct{}

func (DecideResponse) Message() string {
	return "Decision recorded."
}
