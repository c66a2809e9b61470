package event

const PushDeliveryDestination string = "push_delivery"

type PushDeliveryMessage struct {
	DeliveryID int64  `json:"delivery_id"`
	RecordID   string `json:"record_id"`
	Principal  string `json:"principal"`
	Status     string `json:"status"`
}
