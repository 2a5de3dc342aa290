// Package analytics is an embeddable usage-analytics client for host plugins
// and themes.
//
// A Client does two things for the product it is constructed for:
//
//   - At most once per six hours it posts an installation snapshot (product,
//     host and database versions, installed plugins, active theme, locale and
//     domain). The window is enforced with a flag in a shared key-value cache.
//   - It buffers named events for the lifetime of the process and posts them
//     as one batch when the client is closed. Batches carry a session
//     identifier that is kept in the same cache for ten minutes, so that
//     successive short-lived processes (for example one per web request)
//     report into the same session.
//
// Sending is fire-and-forget: requests run in the background, are never
// retried and their outcome is never reported to the host. Nothing in this
// package returns transport or host-environment errors to the caller.
//
// Files in this package:
//   - client.go: the Client facade and its lifecycle
//   - dedup.go: the snapshot dedup gate
//   - session.go: session identifier resolution
//   - events.go: the in-process event buffer
//   - http.go: payload dispatch and endpoint routing
//   - snapshot.go: snapshot payload construction
//   - types.go: payloads, identity and timestamps
package analytics
