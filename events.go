package modkit

import (
	"context"
	"sort"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// ModuleSubscription records that a module's handler hook wants events of
// some type.
type ModuleSubscription struct {
	Module  string `json:"module"`
	Handler string `json:"handler"`
}

// EventRouter dispatches CloudEvents between modules. Modules declare the
// event types they publish and the handler hooks they subscribe with in
// their configuration; Publish delivers synchronously to every subscriber,
// logging and continuing past handler failures.
type EventRouter struct {
	manager *ModuleManager
	hooks   *HookRegistry
	logger  Logger
}

// NewEventRouter creates a router over an already-discovered manager.
func NewEventRouter(manager *ModuleManager, hooks *HookRegistry, logger Logger) *EventRouter {
	if hooks == nil {
		hooks = manager.Hooks()
	}
	return &EventRouter{
		manager: manager,
		hooks:   hooks,
		logger:  logger,
	}
}

// NewModuleEvent builds a CloudEvent with a UUIDv7 id (time-ordered;
// falls back to v4 if v7 generation fails) and JSON-encoded data.
func NewModuleEvent(eventType, source string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(newEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// Subscriptions aggregates every module's event subscriptions, keyed by
// event type.
func (er *EventRouter) Subscriptions() map[string][]ModuleSubscription {
	result := make(map[string][]ModuleSubscription)

	names := make([]string, 0, len(er.manager.configs))
	for name := range er.manager.configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		config := er.manager.configs[name]
		if config == nil {
			continue
		}
		for eventType, handler := range config.EventSubscriptions {
			result[eventType] = append(result[eventType], ModuleSubscription{
				Module:  name,
				Handler: handler,
			})
		}
	}
	return result
}

// PublishedEvents aggregates every module's declared published events,
// keyed by event type, valued by the declaring module.
func (er *EventRouter) PublishedEvents() map[string]string {
	result := make(map[string]string)
	for name, config := range er.manager.configs {
		if config == nil {
			continue
		}
		for eventType := range config.PublishedEvents {
			result[eventType] = name
		}
	}
	return result
}

// Publish delivers the event to every subscribed module handler,
// synchronously and in module-name order. A handler error is logged and
// dispatch continues; subscribers never see each other's failures. An event
// type no module declares as published is delivered anyway but logged at
// warn level, since it points at a missing declaration.
func (er *EventRouter) Publish(ctx context.Context, event cloudevents.Event) error {
	eventType := event.Type()

	if _, declared := er.PublishedEvents()[eventType]; !declared {
		er.logger.Warn("Publishing undeclared event type", "type", eventType, "source", event.Source())
	}

	subs := er.Subscriptions()[eventType]
	if len(subs) == 0 {
		er.logger.Debug("No subscribers for event", "type", eventType)
		return nil
	}

	for _, sub := range subs {
		hook, ok := er.hooks.EventHandler(sub.Handler)
		if !ok {
			er.logger.Warn("Event handler hook not registered, skipping",
				"module", sub.Module, "handler", sub.Handler, "type", eventType)
			continue
		}
		if err := hook(ctx, event); err != nil {
			er.logger.Error("Event handler failed",
				"module", sub.Module, "handler", sub.Handler,
				"type", eventType, "error", err)
		}
	}

	return nil
}
