package domain

import (
	"encoding/json"
	"strings"
)

// NotificationEvent is one inbound asynchronous signal from the gateway. It
// resolves to exactly one TransactionRecord via the stored correlation key.
type NotificationEvent struct {
	// MerchantReference is the reference the mediator supplied on the
	// outbound call (the internal transaction id).
	MerchantReference string
	// PSPReference is the gateway's own identifier for the attempt.
	PSPReference string
	Success      bool
	EventCode    string
	Reason       string
	// AdditionalData is the gateway-specific payload carried verbatim.
	AdditionalData map[string]string
}

// webhook wire format: a list of wrapped notification items, the success flag
// serialized as the string "true"/"false".
type notificationRequest struct {
	Live              string                `json:"live"`
	NotificationItems []notificationWrapper `json:"notificationItems"`
}

type notificationWrapper struct {
	NotificationRequestItem notificationItem `json:"NotificationRequestItem"`
}

type notificationItem struct {
	EventCode         string            `json:"eventCode"`
	MerchantReference string            `json:"merchantReference"`
	PSPReference      string            `json:"pspReference"`
	Success           string            `json:"success"`
	Reason            string            `json:"reason"`
	AdditionalData    map[string]string `json:"additionalData"`
}

// ParseNotification decodes a raw webhook payload into its events. A payload
// that is not valid JSON, or that carries no items, fails with
// NOTIFICATION_MALFORMED.
func ParseNotification(raw string) ([]NotificationEvent, error) {
	var req notificationRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, WrapError(ErrorCodeNotificationMalformed, "notification payload could not be parsed", err)
	}
	if len(req.NotificationItems) == 0 {
		return nil, NewDomainError(ErrorCodeNotificationMalformed, "notification payload contains no items")
	}

	events := make([]NotificationEvent, 0, len(req.NotificationItems))
	for _, wrapper := range req.NotificationItems {
		item := wrapper.NotificationRequestItem
		events = append(events, NotificationEvent{
			MerchantReference: item.MerchantReference,
			PSPReference:      item.PSPReference,
			Success:           strings.EqualFold(item.Success, "true"),
			EventCode:         item.EventCode,
			Reason:            item.Reason,
			AdditionalData:    item.AdditionalData,
		})
	}
	return events, nil
}

// StatusForEvent derives the terminal status the notification dictates.
func (e NotificationEvent) StatusForEvent() TransactionStatus {
	if e.Success {
		return StatusProcessed
	}
	return StatusError
}
