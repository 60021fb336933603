package linking

import "github.com/bizgrow/backend/internal/domain/shared"

// Typed linking errors. Every guard and protocol violation in the flow is
// recovered into one of these at the component boundary; only unexpected
// persistence failures surface as generic internal errors.
var (
	// ErrQuotaExceeded is returned when the plan's linked-resource limit is reached
	ErrQuotaExceeded = shared.NewDomainError("QUOTA_EXCEEDED", "Linked account quota exceeded for the current plan")

	// ErrNoActiveSubscription is returned when the tenant has no active or trialing subscription
	ErrNoActiveSubscription = shared.NewDomainError("NO_ACTIVE_SUBSCRIPTION", "No active subscription")

	// ErrAccountAbuse is returned when an external account is already linked to another tenant
	ErrAccountAbuse = shared.NewDomainError("INTEGRATION_ABUSE", "This account is already linked to another workspace")

	// ErrAlreadyLinked is returned when a connected integration already exists
	// for the tenant and platform; the existing one must be disconnected first
	ErrAlreadyLinked = shared.NewDomainError("ALREADY_LINKED", "An account is already connected for this platform")

	// ErrSessionExpired is returned when the pending link session is missing
	// or its TTL has elapsed; the user must restart the flow
	ErrSessionExpired = shared.NewDomainError("SESSION_EXPIRED", "Session expired, please restart the connection")

	// ErrStateMismatch is returned on an unknown, consumed, or forged
	// anti-forgery state. The message is deliberately generic.
	ErrStateMismatch = shared.NewDomainError("CSRF_MISMATCH", "Security check failed, please try again")

	// ErrProviderDenied is returned when the provider redirected back with an
	// error instead of an authorization code
	ErrProviderDenied = shared.NewDomainError("PROVIDER_DENIED", "Authorization was denied by the provider")

	// ErrTokenExchangeFailed is returned when the code-for-token exchange fails
	ErrTokenExchangeFailed = shared.NewDomainError("TOKEN_EXCHANGE_FAILED", "Could not obtain an access token from the provider")

	// ErrNothingSelected is returned when the selection submission contains no account at all
	ErrNothingSelected = shared.NewDomainError("NOTHING_SELECTED", "At least one account must be selected")

	// ErrNotConnected is returned by disconnect/status lookups when no
	// integration exists for the tenant and platform
	ErrNotConnected = shared.NewDomainError("NOT_CONNECTED", "No connected account found")

	// ErrInvalidPlatform is returned for unknown platform codes
	ErrInvalidPlatform = shared.NewDomainError("INVALID_PLATFORM", "Unknown platform")

	// ErrUnsupported marks a provider capability the platform does not offer,
	// such as a long-lived token exchange
	ErrUnsupported = shared.NewDomainError("UNSUPPORTED", "Operation not supported by this provider")
)
