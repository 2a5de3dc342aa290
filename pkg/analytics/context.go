package analytics

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const clientContextKey contextKey = "analytics_client"

// WithClient adds an analytics client to the context
func WithClient(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// FromContext retrieves the analytics client from context
func FromContext(ctx context.Context) *Client {
	if client, ok := ctx.Value(clientContextKey).(*Client); ok {
		return client
	}
	return nil
}

// Track records an event on the client carried by ctx, if any.
func Track(ctx context.Context, name string, value any) {
	if client := FromContext(ctx); client != nil {
		client.Track(name, value)
	}
}
