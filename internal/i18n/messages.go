package i18n

var catalogs = map[string]map[string]string{
	LocaleEnUS: {
		"error.bad_request":              "Invalid request",
		"error.internal":                 "Something went wrong, please try again",
		"error.session_required":         "Client session is missing",
		"error.unauthorized":             "Please sign in to continue",
		"error.forbidden":                "You do not have access to this page",
		"error.auth_header_invalid":      "Authorization header is malformed",
		"error.token_invalid":            "Your session is invalid, please sign in again",
		"error.token_revoked":            "Your session has ended, please sign in again",
		"error.rate_limited":             "Too many attempts, please try again in %d seconds",
		"error.rate_limit_unavailable":   "Service is busy, please try again later",
		"error.product_not_found":        "Product not found",
		"error.catalog_unavailable":      "Products could not be loaded",
		"error.quantity_invalid":         "Quantity must be at least 1",
		"error.quantity_delta_invalid":   "Quantity can only change by one",
		"error.out_of_stock":             "Sorry, this item is out of stock",
		"error.cart_fetch_failed":        "Cart could not be loaded",
		"error.cart_add_failed":          "Item could not be added to the cart",
		"error.cart_update_failed":       "Cart could not be updated",
		"error.cart_empty":               "Your cart is empty",
		"error.shipping_required":        "Please fill in the shipping details",
		"error.checkout_not_started":     "Please start checkout from your cart",
		"error.checkout_failed":          "Checkout failed",
		"error.order_rejected":           "The order could not be placed",
		"error.captcha_required":         "Please complete the captcha",
		"error.captcha_invalid":          "Captcha is incorrect",
		"error.captcha_config_invalid":   "Captcha is misconfigured",
		"error.captcha_unavailable":      "Captcha is not available",
		"error.captcha_generate_failed":  "Captcha could not be generated",
		"error.login_invalid":            "Email or password is incorrect",
		"error.login_failed":             "Sign in failed",
		"error.identity_unavailable":     "Sign in service is unavailable",
		"error.token_exchange_failed":    "Sign in could not be completed",
		"error.logout_failed":            "Sign out failed",
		"error.admin_resource_unknown":   "Unknown admin resource",
		"error.admin_operation_denied":   "This action is not available for the resource",
		"error.admin_validation_failed":  "Please correct the highlighted fields",
		"error.admin_confirm_required":   "Please confirm before deleting",
		"error.admin_row_not_found":      "Row is not on the current page",
		"error.admin_selection_required": "Select at least one row",
		"error.admin_partial_delete":     "Some rows could not be deleted",
		"error.admin_api_failed":         "The shop API rejected the request",
		"error.admin_list_failed":        "Records could not be loaded",
		"error.admin_save_failed":        "Record could not be saved",
		"error.admin_delete_failed":      "Record could not be deleted",
		"error.authz_role_invalid":       "Role name is invalid",
		"error.authz_role_immutable":     "Builtin roles cannot be changed",
		"error.authz_action_required":    "Policy action is required",
		"error.authz_update_failed":      "Permissions could not be updated",
		"error.export_failed":            "Export failed",
		"error.file_missing":             "Please choose an image",
		"error.upload_too_large":         "Image is too large",
		"error.upload_type_invalid":      "Only JPEG, PNG, GIF and WebP images are allowed",
		"error.upload_dimensions":        "Image dimensions are too large",
		"error.upload_too_many":          "Too many images",
		"error.upload_failed":            "Upload could not be processed",
		"notice.cart_item_added":         "Added to cart",
		"notice.cart_item_removed":       "Removed from cart",
		"notice.cart_cleared":            "Cart cleared",
		"notice.shipping_saved":          "Shipping details saved",
		"notice.order_placed":            "Order placed",
		"notice.login_success":           "Signed in",
		"notice.logout_success":          "Signed out",
		"notice.admin_created":           "Created successfully",
		"notice.admin_updated":           "Updated successfully",
		"notice.admin_deleted":           "Deleted successfully",
		"notice.admin_bulk_deleted":      "Selected rows deleted",
		"notice.upload_validated":        "Images are valid",
	},
	LocaleZhCN: {
		"error.bad_request":              "请求参数错误",
		"error.internal":                 "服务异常，请稍后重试",
		"error.session_required":         "缺少客户端会话",
		"error.unauthorized":             "请先登录",
		"error.forbidden":                "无权访问该页面",
		"error.auth_header_invalid":      "认证头格式错误",
		"error.token_invalid":            "登录状态无效，请重新登录",
		"error.token_revoked":            "登录已失效，请重新登录",
		"error.rate_limited":             "尝试次数过多，请 %d 秒后再试",
		"error.rate_limit_unavailable":   "服务繁忙，请稍后再试",
		"error.product_not_found":        "商品不存在",
		"error.catalog_unavailable":      "商品加载失败",
		"error.quantity_invalid":         "数量至少为 1",
		"error.quantity_delta_invalid":   "每次只能增减一件",
		"error.out_of_stock":             "抱歉，该商品已售罄",
		"error.cart_fetch_failed":        "购物车加载失败",
		"error.cart_add_failed":          "加入购物车失败",
		"error.cart_update_failed":       "购物车更新失败",
		"error.cart_empty":               "购物车为空",
		"error.shipping_required":        "请填写收货信息",
		"error.checkout_not_started":     "请从购物车进入结算",
		"error.checkout_failed":          "结算失败",
		"error.order_rejected":           "下单失败",
		"error.captcha_required":         "请完成验证码",
		"error.captcha_invalid":          "验证码错误",
		"error.captcha_config_invalid":   "验证码配置错误",
		"error.captcha_unavailable":      "验证码不可用",
		"error.captcha_generate_failed":  "验证码生成失败",
		"error.login_invalid":            "邮箱或密码错误",
		"error.login_failed":             "登录失败",
		"error.identity_unavailable":     "登录服务不可用",
		"error.token_exchange_failed":    "登录未能完成",
		"error.logout_failed":            "退出登录失败",
		"error.admin_resource_unknown":   "未知的管理资源",
		"error.admin_operation_denied":   "该资源不支持此操作",
		"error.admin_validation_failed":  "请修正标记的字段",
		"error.admin_confirm_required":   "删除前请确认",
		"error.admin_row_not_found":      "当前页没有该行",
		"error.admin_selection_required": "请至少选择一行",
		"error.admin_partial_delete":     "部分记录删除失败",
		"error.admin_api_failed":         "商城 API 拒绝了请求",
		"error.admin_list_failed":        "记录加载失败",
		"error.admin_save_failed":        "记录保存失败",
		"error.admin_delete_failed":      "记录删除失败",
		"error.authz_role_invalid":       "角色名称无效",
		"error.authz_role_immutable":     "预置角色不允许修改",
		"error.authz_action_required":    "策略动作不能为空",
		"error.authz_update_failed":      "权限更新失败",
		"error.export_failed":            "导出失败",
		"error.file_missing":             "请选择图片",
		"error.upload_too_large":         "图片过大",
		"error.upload_type_invalid":      "仅支持 JPEG、PNG、GIF 与 WebP 图片",
		"error.upload_dimensions":        "图片尺寸过大",
		"error.upload_too_many":          "图片数量过多",
		"error.upload_failed":            "上传处理失败",
		"notice.cart_item_added":         "已加入购物车",
		"notice.cart_item_removed":       "已从购物车移除",
		"notice.cart_cleared":            "购物车已清空",
		"notice.shipping_saved":          "收货信息已保存",
		"notice.order_placed":            "下单成功",
		"notice.login_success":           "登录成功",
		"notice.logout_success":          "已退出登录",
		"notice.admin_created":           "创建成功",
		"notice.admin_updated":           "更新成功",
		"notice.admin_deleted":           "删除成功",
		"notice.admin_bulk_deleted":      "已删除所选记录",
		"notice.upload_validated":        "图片校验通过",
	},
}
