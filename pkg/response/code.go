package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户/资料模块错误 100xx
	ErrUserExists    = 10001
	ErrUserNotFound  = 10002
	ErrAuthFailed    = 10003
	ErrTokenInvalid  = 10004
	ErrNoPermission  = 10005
	ErrUserBanned    = 10006
	ErrUserMuted     = 10007

	// 内容模块错误 (讨论/悬赏) 200xx
	ErrContentNotFound = 20001
	ErrNotOwner        = 20002
	ErrInvalidTag      = 20003
	ErrInvalidPrice    = 20004
	ErrInvalidStatus   = 20005

	// 聊天模块错误 300xx
	ErrChatNotFound   = 30001
	ErrNotParticipant = 30002
	ErrSelfChat       = 30004

	// 管理模块错误 400xx
	ErrRoleInvalid      = 40001
	ErrModerationClosed = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
