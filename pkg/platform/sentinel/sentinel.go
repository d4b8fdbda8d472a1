package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and gateways return these
// (optionally wrapped) so the identity service can translate them into domain
// errors without depending on storage details.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrAlreadyUsed: unique value (account-name, nickname) already claimed
// - ErrUnavailable: store or gateway temporarily unreachable
//
// For validation errors (bad input, policy violations), use
// pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
