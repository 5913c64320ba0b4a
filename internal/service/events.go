package service

import "encoding/json"

// Broadcaster is the websocket hub seam; nil disables event broadcasting
type Broadcaster interface {
	GetBroadcast() chan []byte
}

// broadcastEvent pushes a workflow event to connected dashboards. The send is
// non-blocking: a slow or absent hub never stalls a workflow write.
func broadcastEvent(hub Broadcaster, event string, payload map[string]interface{}) {
	if hub == nil {
		return
	}
	payload["event"] = event
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case hub.GetBroadcast() <- msg:
	default:
	}
}
