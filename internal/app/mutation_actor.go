package app

import (
	"context"
	"strings"
)

// ActorType identifies which surface issued a mutation.
type ActorType string

// ActorType values.
const (
	ActorTypeUser  ActorType = "user"
	ActorTypeAPI   ActorType = "api"
	ActorTypeAgent ActorType = "agent"
)

// MutationActor carries normalized caller identity metadata for mutation attribution.
type MutationActor struct {
	ActorID   string
	ActorType ActorType
}

// mutationActorContextKey stores context keys for mutation actor metadata.
type mutationActorContextKey struct{}

// WithMutationActor attaches normalized mutation-actor identity metadata to context.
func WithMutationActor(ctx context.Context, actor MutationActor) context.Context {
	return context.WithValue(ctx, mutationActorContextKey{}, normalizeMutationActor(actor))
}

// MutationActorFromContext returns the attached actor, defaulting to the local user.
func MutationActorFromContext(ctx context.Context) MutationActor {
	if ctx != nil {
		if actor, ok := ctx.Value(mutationActorContextKey{}).(MutationActor); ok {
			return actor
		}
	}
	return MutationActor{ActorID: "local", ActorType: ActorTypeUser}
}

func normalizeMutationActor(actor MutationActor) MutationActor {
	actor.ActorID = strings.TrimSpace(actor.ActorID)
	if actor.ActorID == "" {
		actor.ActorID = "local"
	}
	switch actor.ActorType {
	case ActorTypeUser, ActorTypeAPI, ActorTypeAgent:
	default:
		actor.ActorType = ActorTypeUser
	}
	return actor
}
