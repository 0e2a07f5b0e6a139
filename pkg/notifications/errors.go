package notifications

import "errors"

var (
	ErrTemplateNotFound     = errors.New("notifications: template not found")
	ErrInvalidTemplate      = errors.New("notifications: invalid template")
	ErrChannelNotConfigured = errors.New("notifications: channel not configured")
	ErrChannelDisabled      = errors.New("notifications: channel disabled")
	ErrChannelDelivery      = errors.New("notifications: channel delivery failed")
	ErrUnknownChannel       = errors.New("notifications: unknown channel")
	ErrInvalidPriority      = errors.New("notifications: invalid priority")
	ErrMessageNotFound      = errors.New("notifications: message not found")
)
