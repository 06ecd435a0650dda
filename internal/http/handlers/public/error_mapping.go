package public

import (
	handlershared "github.com/relicvault/storefront/internal/http/handlers/shared"
	"github.com/relicvault/storefront/internal/http/response"
	"github.com/relicvault/storefront/internal/service"
)

var authRemoteErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrUnauthorized, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
}

var catalogErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrCatalogUnavailable, Code: response.CodeBadGateway, Key: "error.catalog_unavailable"},
}

var cartErrorRules = handlershared.ConcatErrorRules([]handlershared.ErrorRule{
	{Target: service.ErrSessionRequired, Code: response.CodeBadRequest, Key: "error.session_required"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrOutOfStock, Code: response.CodeConflict, Key: "error.out_of_stock"},
}, catalogErrorRules)

var checkoutErrorRules = handlershared.ConcatErrorRules([]handlershared.ErrorRule{
	{Target: service.ErrSessionRequired, Code: response.CodeBadRequest, Key: "error.session_required"},
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrShippingRequired, Code: response.CodeBadRequest, Key: "error.shipping_required"},
	{Target: service.ErrCheckoutNotStarted, Code: response.CodeConflict, Key: "error.checkout_not_started"},
	{Target: service.ErrOrderRejected, Code: response.CodeBadGateway, Key: "error.order_rejected", Upstream: true},
}, authRemoteErrorRules)

var loginErrorRules = []handlershared.ErrorRule{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Key: "error.captcha_required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Key: "error.captcha_invalid"},
	{Target: service.ErrCaptchaConfigInvalid, Code: response.CodeInternal, Key: "error.captcha_unavailable"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeBadRequest, Key: "error.login_invalid"},
	{Target: service.ErrIdentityUnavailable, Code: response.CodeBadGateway, Key: "error.identity_unavailable"},
	{Target: service.ErrTokenExchange, Code: response.CodeBadGateway, Key: "error.token_exchange_failed"},
}
