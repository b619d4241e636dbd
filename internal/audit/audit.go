// Package audit provides an append-only trail of credential and membership
// mutations: who issued, rotated or revoked which code, and when.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one audit record. Actor is the authenticated principal's email,
// or "system" for unattended mutations such as legacy row upgrades.
type Entry struct {
	ID        uuid.UUID
	ProjectID *uuid.UUID
	Actor     string
	Action    string
	Subject   string
	CreatedAt time.Time
}

// Recorder appends entries to the trail. Recording must never fail the
// mutation being recorded; implementations log and swallow storage errors.
type Recorder interface {
	Record(ctx context.Context, projectID *uuid.UUID, action, subject string)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Entry, error)
}

type actorKey struct{}

// WithActor stores the acting principal on the context for recorders.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting principal, or "system" if none is set.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
