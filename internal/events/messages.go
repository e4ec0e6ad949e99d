// Package events publishes activity notifications for successful
// mutations. Publishing is best effort and never affects the user action.
package events

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

type Resource string

const (
	ResourceExpense  Resource = "expense"
	ResourceCategory Resource = "category"
)

// ActivityMessage records one successful create, update or delete.
// Session is the credential fingerprint, never the credential.
type ActivityMessage struct {
	Action    Action    `json:"action"`
	Resource  Resource  `json:"resource"`
	ID        int64     `json:"id"`
	Session   string    `json:"session,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityMessage(action Action, resource Resource, id int64, session string) ActivityMessage {
	return ActivityMessage{
		Action:    action,
		Resource:  resource,
		ID:        id,
		Session:   session,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "<resource>.<action>", e.g. "expense.created".
func (m ActivityMessage) RoutingKey() string {
	return string(m.Resource) + "." + string(m.Action)
}

func (m ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityMessageFromJSON(data []byte) (ActivityMessage, error) {
	var msg ActivityMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
