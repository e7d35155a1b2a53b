package recordauth

import "errors"

// Sentinel errors for structural and configuration failures. None of them
// may ever resolve to a more permissive outcome than denial: callers that
// observe any of these must treat the operation as denied and surface the
// error to logs/alerts rather than retrying.
var (
	// ErrMalformedRule is returned when a persisted rule tree uses an
	// operator or shape outside the accepted grammar. Fatal at config
	// load time for the affected record type.
	ErrMalformedRule = errors.New("recordauth: malformed rule")

	// ErrUnresolvedTemplate is returned when a rule references an identity
	// placeholder that cannot be filled for the current caller. The record
	// type is deny-all for that request.
	ErrUnresolvedTemplate = errors.New("recordauth: unresolved template")

	// ErrNoTenantDeterminable is returned when no effective tenant can be
	// computed for a request. The resulting scope matches zero records.
	ErrNoTenantDeterminable = errors.New("recordauth: no tenant determinable")

	// ErrInvalidOverrideFormat is returned when a session override value
	// fails validation. The previous override, if any, is retained.
	ErrInvalidOverrideFormat = errors.New("recordauth: invalid override format")

	// ErrPrivilegeViolation is returned when an override is present but the
	// caller's role does not permit overrides. The override is ignored and
	// the role-derived default applies.
	ErrPrivilegeViolation = errors.New("recordauth: privilege violation")

	// ErrUnknownRecordType is returned when no policy has been registered
	// for a record type. The operation is denied.
	ErrUnknownRecordType = errors.New("recordauth: unknown record type")
)
