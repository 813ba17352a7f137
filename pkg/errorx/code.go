package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Redemption codes
	TokenExpired     Code = 500001
	Inactive         Code = 500002
	AlreadyRevealed  Code = 500003
	AlreadyDelivered Code = 500004
	AlreadyRedeemed  Code = 500005
	NotRevealed      Code = 500006
	NotDelivered     Code = 500007
	FeatureDisabled  Code = 500008

	// Generation codes
	RaceCondition Code = 600001

	// Reusable token codes
	UsageLimitReached Code = 700001
	OutsideTimeWindow Code = 700002

	// Roulette codes
	SessionFinished Code = 800001
	NotEligible     Code = 800002
)
