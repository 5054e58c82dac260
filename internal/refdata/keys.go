package refdata

const keyPrefix = "storefront:refdata:"

// KeyShippingMethods is the cache key of the shipping method list.
func KeyShippingMethods() string { return keyPrefix + "shipping-methods" }

// KeyPaymentTypes is the cache key of the payment type list.
func KeyPaymentTypes() string { return keyPrefix + "payment-types" }

// KeyUserPaymentMethods is the per-user cache key of saved payment methods.
func KeyUserPaymentMethods(userID string) string {
	return keyPrefix + "user:" + userID + ":payment-methods"
}

// KeyProductVariants is the cache key of a product's variant prices.
func KeyProductVariants(productID string) string {
	return keyPrefix + "product:" + productID + ":variants"
}
