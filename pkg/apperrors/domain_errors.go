package apperrors

var (
	// Friendship domain
	ErrSelfRelation       = InvalidOperation("a user cannot hold a relationship with themselves")
	ErrRelationExists     = Conflict("a relationship already exists between these users")
	ErrRequestNotFound    = NotFound("pending friend request not found")
	ErrFriendshipNotFound = NotFound("friendship not found")
	ErrBlockNotFound      = NotFound("no block exists between these users")
	ErrAcceptOwnRequest   = InvalidOperation("cannot accept your own friend request")
	ErrNotRequester       = Forbidden("only the requester can cancel this request")
	ErrNotBlocker         = Forbidden("only the user who blocked can unblock")

	// Attendance domain
	ErrUserNotFound       = NotFound("user not found")
	ErrEventNotFound      = NotFound("event not found")
	ErrNotRegistered      = NotFound("user is not registered for this event")
	ErrInvalidQRFormat    = InvalidArg("invalid QR code format")
	ErrInvalidQRSignature = InvalidArg("invalid QR code signature")
	ErrNotOrganizer       = Forbidden("only the event organizer can access this resource")

	// Verification codes
	ErrCodeMismatch = InvalidArg("invalid or expired verification code")
)
