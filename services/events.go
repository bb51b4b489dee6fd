package services

// Publisher broadcasts lifecycle events to live dashboards. Publishing never
// blocks and never fails the operation that triggered it.
type Publisher interface {
	Publish(eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}
