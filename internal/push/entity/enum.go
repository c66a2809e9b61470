package entity

// DeliveryStatus tracks a confirmation send through its lifecycle.
type DeliveryStatus int16

const (
	// DeliveryStatusUnknown is mean status is not known / not set.
	DeliveryStatusUnknown DeliveryStatus = 0

	// DeliveryStatusSent mean the notifier accepted the message.
	DeliveryStatusSent DeliveryStatus = 1

	// DeliveryStatusAccepted mean the principal confirmed the refer code.
	DeliveryStatusAccepted DeliveryStatus = 2

	// DeliveryStatusDenied mean the principal rejected the refer code.
	DeliveryStatusDenied DeliveryStatus = 3
)

func (ds DeliveryStatus) String() string {
	switch ds {
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusAccepted:
		return "accepted"
	case DeliveryStatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}
