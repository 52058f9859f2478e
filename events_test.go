package modkit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModuleEvent(t *testing.T) {
	event := NewModuleEvent("user.registered", "modules/user", map[string]string{"id": "42"})

	assert.Equal(t, "user.registered", event.Type())
	assert.Equal(t, "modules/user", event.Source())
	assert.Equal(t, cloudevents.VersionV1, event.SpecVersion())
	assert.False(t, event.Time().IsZero())

	_, err := uuid.Parse(event.ID())
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(event.Data(), &payload))
	assert.Equal(t, "42", payload["id"])
}

func TestEventRouterDispatch(t *testing.T) {
	mm, hooks, logger := newTestManager(t)

	var received []string
	require.NoError(t, hooks.RegisterEventHandler("session.on_user_registered", func(ctx context.Context, event cloudevents.Event) error {
		received = append(received, "session:"+event.Type())
		return nil
	}))
	require.NoError(t, hooks.RegisterEventHandler("security.on_user_registered", func(ctx context.Context, event cloudevents.Event) error {
		received = append(received, "security:"+event.Type())
		return nil
	}))

	registerConfiguredModule(t, mm, "user", &ModuleConfig{
		Version:         "1.0.0",
		PublishedEvents: map[string]string{"user.registered": "A user account was created"},
	})
	registerConfiguredModule(t, mm, "session", &ModuleConfig{
		Version:            "1.0.0",
		EventSubscriptions: map[string]string{"user.registered": "session.on_user_registered"},
	})
	registerConfiguredModule(t, mm, "security", &ModuleConfig{
		Version:            "1.0.0",
		EventSubscriptions: map[string]string{"user.registered": "security.on_user_registered"},
	})

	router := NewEventRouter(mm, hooks, logger)
	event := NewModuleEvent("user.registered", "modules/user", nil)
	require.NoError(t, router.Publish(context.Background(), event))

	// Subscribers receive in module-name order.
	assert.Equal(t, []string{"security:user.registered", "session:user.registered"}, received)
}

func TestEventRouterHandlerFailureContinues(t *testing.T) {
	mm, hooks, logger := newTestManager(t)

	var delivered int
	require.NoError(t, hooks.RegisterEventHandler("audit.on_login", func(ctx context.Context, event cloudevents.Event) error {
		return fmt.Errorf("audit store unavailable")
	}))
	require.NoError(t, hooks.RegisterEventHandler("session.on_login", func(ctx context.Context, event cloudevents.Event) error {
		delivered++
		return nil
	}))

	registerConfiguredModule(t, mm, "user", &ModuleConfig{
		Version:         "1.0.0",
		PublishedEvents: map[string]string{"user.login": "A user logged in"},
	})
	registerConfiguredModule(t, mm, "audit", &ModuleConfig{
		Version:            "1.0.0",
		EventSubscriptions: map[string]string{"user.login": "audit.on_login"},
	})
	registerConfiguredModule(t, mm, "session", &ModuleConfig{
		Version:            "1.0.0",
		EventSubscriptions: map[string]string{"user.login": "session.on_login"},
	})

	router := NewEventRouter(mm, hooks, logger)
	require.NoError(t, router.Publish(context.Background(), NewModuleEvent("user.login", "modules/user", nil)))

	assert.Equal(t, 1, delivered)
	assert.True(t, logger.Contains("Event handler failed"))
}

func TestEventRouterUndeclaredTypeWarns(t *testing.T) {
	mm, hooks, logger := newTestManager(t)

	registerConfiguredModule(t, mm, "user", &ModuleConfig{Version: "1.0.0"})

	router := NewEventRouter(mm, hooks, logger)
	require.NoError(t, router.Publish(context.Background(), NewModuleEvent("ghost.event", "modules/ghost", nil)))

	assert.True(t, logger.Contains("Publishing undeclared event type"))
}

func TestEventRouterMissingHandlerSkipped(t *testing.T) {
	mm, hooks, logger := newTestManager(t)

	registerConfiguredModule(t, mm, "user", &ModuleConfig{
		Version:         "1.0.0",
		PublishedEvents: map[string]string{"user.registered": "A user account was created"},
	})
	registerConfiguredModule(t, mm, "mail", &ModuleConfig{
		Version:            "1.0.0",
		EventSubscriptions: map[string]string{"user.registered": "mail.on_user_registered"},
	})

	router := NewEventRouter(mm, hooks, logger)
	require.NoError(t, router.Publish(context.Background(), NewModuleEvent("user.registered", "modules/user", nil)))

	assert.True(t, logger.Contains("Event handler hook not registered, skipping"))
}

func TestEventRouterAggregation(t *testing.T) {
	mm, hooks, logger := newTestManager(t)

	registerConfiguredModule(t, mm, "user", &ModuleConfig{
		Version:         "1.0.0",
		PublishedEvents: map[string]string{"user.registered": "A user account was created"},
	})
	registerConfiguredModule(t, mm, "session", &ModuleConfig{
		Version:            "1.0.0",
		EventSubscriptions: map[string]string{"user.registered": "session.on_user_registered"},
	})

	router := NewEventRouter(mm, hooks, logger)

	published := router.PublishedEvents()
	assert.Equal(t, "user", published["user.registered"])

	subs := router.Subscriptions()
	require.Len(t, subs["user.registered"], 1)
	assert.Equal(t, "session", subs["user.registered"][0].Module)
	assert.Equal(t, "session.on_user_registered", subs["user.registered"][0].Handler)
}
