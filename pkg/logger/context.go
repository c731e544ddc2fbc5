package logger

import (
	"context"
	"log/slog"
)

type (
	definitionKey struct{}
	componentKey  struct{}
)

// WithDefinition stores the periodic definition name in ctx.
func WithDefinition(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, definitionKey{}, name)
}

// DefinitionFromContext returns the definition name stored in ctx.
func DefinitionFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(definitionKey{}).(string)
	return name, ok && name != ""
}

// DefinitionExtractor adds a "periodic_task" attribute when ctx carries a
// definition name.
func DefinitionExtractor(ctx context.Context) (slog.Attr, bool) {
	if name, ok := DefinitionFromContext(ctx); ok {
		return slog.String("periodic_task", name), true
	}
	return slog.Attr{}, false
}

// WithComponent stores the name of the running component (beat, worker).
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentKey{}, name)
}

// ComponentExtractor adds a "component" attribute when ctx carries one.
func ComponentExtractor(ctx context.Context) (slog.Attr, bool) {
	if name, ok := ctx.Value(componentKey{}).(string); ok && name != "" {
		return slog.String("component", name), true
	}
	return slog.Attr{}, false
}

// DefaultExtractors returns the extractors used by the beat binaries.
func DefaultExtractors() []ContextExtractor {
	return []ContextExtractor{DefinitionExtractor, ComponentExtractor}
}
