package constants

// 客户端持久化存储键
const (
	StorageKeyCartItems    = "cartItems"
	StorageKeyShippingInfo = "shippingInfo"
)

// 会话级存储键
const (
	SessionKeyCheckoutInProgress = "checkoutInProgress"
	SessionKeyAdminTablePrefix   = "adminTable:"
	SessionKeyAdminRefreshPrefix = "adminRefresh:"
)

// 客户端会话请求头与上下文键
const (
	HeaderClientSession  = "X-Client-Session"
	ContextClientSession = "client_session_id"
	ContextUserID        = "user_id"
	ContextUserEmail     = "user_email"
	ContextUserRole      = "user_role"
	ContextSessionToken  = "session_token"
)

// 用户角色
const (
	RoleAdmin          = "admin"
	RoleCatalogManager = "catalog_manager"
	RoleModerator      = "moderator"
	RoleSupport        = "support"
	RoleCustomer       = "customer"
)

// 管理端资源名
const (
	ResourceCategories = "categories"
	ResourceTeams      = "teams"
	ResourceProducts   = "products"
	ResourceUsers      = "users"
	ResourceReviews    = "reviews"
	ResourceOrders     = "orders"
)

// 提示消息类型
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// 验证码场景
const (
	CaptchaSceneLogin = "login"
)

// 验证码提供方
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// LoginRoute 未授权时的跳转路径
const LoginRoute = "/login"

// 异步队列
const (
	QueueDefault          = "default"
	TaskAdminTableRefresh = "admin:table:refresh"
)
