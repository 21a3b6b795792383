package response

// Business status codes.
const (
	CodeSuccess = 0
	CodeError   = 1

	// user module 100xx
	ErrUserExists     = 10001
	ErrUserNotFound   = 10002
	ErrAuthFailed     = 10003
	ErrTokenInvalid   = 10004
	ErrNoPermission   = 10005
	ErrHandleTaken    = 10006
	ErrHandleInvalid  = 10007

	// social module 200xx
	ErrRequestExists    = 20001
	ErrRequestNotFound  = 20002
	ErrAlreadyFriends   = 20003
	ErrSelfFriend       = 20004

	// chat module 300xx
	ErrRoomNotFound    = 30001
	ErrNotParticipant  = 30002
	ErrEmptyMessage    = 30003

	// community module 400xx
	ErrCommunityNotFound = 40001
	ErrNotOwner          = 40002
	ErrNotMember         = 40003
	ErrCommunityTimeout  = 40004

	// system errors 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003

	// nexus module 600xx
	ErrUpstreamFailed = 60001
	ErrSessionExpired = 60002
	ErrInvalidMode    = 60003

	// keepsake module 700xx
	ErrKeepsakeNotFound = 70001
	ErrCorruptImport    = 70002
)
