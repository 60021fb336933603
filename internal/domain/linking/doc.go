// Package linking contains the domain model for connecting a tenant to an
// external advertising/social platform: the durable Integration record, the
// sub-accounts selected under it, the ephemeral pending session used during
// the OAuth handshake, and the provider port implemented by the
// infrastructure layer.
//
// A tenant can hold at most one connected Integration per platform. The
// linking flow is a three-step protocol (initiate, callback, selection) with
// policy guards consulted at both ends; see the application layer for the
// orchestration.
package linking
