package service

import (
	"time"

	"github.com/pavi2410/droidkit/models"
)

// WebSocketBroadcaster interface to avoid import cycle
type WebSocketBroadcaster interface {
	BroadcastToDevice(deviceID string, message interface{})
	BroadcastToAll(message interface{})
}

func newEvent(eventType, deviceID string, data interface{}) models.Event {
	return models.Event{
		Type:      eventType,
		DeviceID:  deviceID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}
