// Package reelgraph is a social-graph content service: accounts that are
// public or private, a follow lifecycle with requests, images and reels,
// likes and threaded comments, and seeded feeds whose visibility is
// decided by the graph.
//
// The code is organized into subpackages:
//
//   - internal/models: persisted types and the Media variants
//   - internal/repository: gorm data access, one repository per aggregate
//   - internal/visibility: who may see whose content
//   - internal/follow: the follow/request state machine
//   - internal/accounts: signup, profiles and visibility changes
//   - internal/content: publishing and deleting media
//   - internal/engagement: likes, comment threads and their ranking
//   - internal/sampler: deterministic seeded ordering and random sampling
//   - internal/feed: feed composition over the pieces above
//   - internal/container: dependency wiring and shutdown hooks
//   - internal/handlers, internal/middleware, internal/util: the HTTP API
//   - internal/client: typed API client used by cmd/cli
//   - internal/seed: development and test data
package reelgraph
