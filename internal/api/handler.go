package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"karupatti-shop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	carts      *service.CartService
	coupons    *service.CouponService
	orders     *service.OrderService
	payments   *service.PaymentService
	earnings   *service.EarningsService
	refunds    *service.RefundService
	promotions *service.PromotionService
	wishlist   *service.WishlistService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartService,
	coupons *service.CouponService,
	orders *service.OrderService,
	payments *service.PaymentService,
	earnings *service.EarningsService,
	refunds *service.RefundService,
	promotions *service.PromotionService,
	wishlist *service.WishlistService,
) *Handler {
	return &Handler{
		carts:      carts,
		coupons:    coupons,
		orders:     orders,
		payments:   payments,
		earnings:   earnings,
		refunds:    refunds,
		promotions: promotions,
		wishlist:   wishlist,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// webhook endpoint stays outside the authenticated surface; the
	// signature check is its authentication
	router.POST("/webhooks/stripe", h.stripeWebhook)

	v1 := router.Group("/api/v1")

	cart := v1.Group("/cart", sessionTokenRequired())
	{
		cart.GET("", h.getCart)
		cart.DELETE("", h.clearCart)
		cart.POST("/items", h.addCartItem)
		cart.PUT("/items/:productID", h.updateCartItem)
		cart.DELETE("/items/:productID", h.removeCartItem)
		cart.POST("/coupon", userRequired(), h.applyCoupon)
		cart.DELETE("/coupon", h.removeCoupon)
	}

	v1.GET("/coupons", h.listCoupons)
	v1.GET("/products", h.listProducts)
	v1.GET("/products/:id", h.getProduct)

	checkout := v1.Group("/checkout", sessionTokenRequired(), userRequired())
	{
		checkout.GET("", h.checkoutQuote)
		checkout.POST("/success", h.checkoutSuccess)
	}

	orders := v1.Group("/orders", userRequired())
	{
		orders.POST("", sessionTokenRequired(), h.createOrder)
		orders.GET("", h.listOrders)
		orders.GET("/:number", h.getOrder)
		orders.POST("/:number/cancel", h.cancelOrder)
		orders.POST("/:number/checkout-session", h.createCheckoutSession)
		orders.GET("/:number/payment", h.getPayment)
	}

	v1.GET("/addresses", userRequired(), h.listAddresses)

	refunds := v1.Group("/refund-requests", userRequired())
	{
		refunds.POST("", h.createRefundRequest)
		refunds.GET("", h.listRefundRequests)
		refunds.GET("/:number", h.getRefundRequest)
		refunds.POST("/:number/cancel", h.cancelRefundRequest)
	}

	credit := v1.Group("/store-credit", userRequired())
	{
		credit.GET("", h.getStoreCredit)
		credit.GET("/transactions", h.listStoreCreditTransactions)
	}

	wishlist := v1.Group("/wishlist", userRequired())
	{
		wishlist.GET("", h.listWishlist)
		wishlist.POST("/:productID", h.addWishlistItem)
		wishlist.DELETE("/:productID", h.removeWishlistItem)
	}

	seller := v1.Group("/seller", userRequired())
	{
		seller.GET("/wallet", h.getWallet)
		seller.GET("/earnings", h.listEarnings)
		seller.GET("/payouts", h.listPayoutRequests)
		seller.POST("/payouts", h.requestPayout)
	}

	events := v1.Group("/events")
	{
		events.GET("", h.listOngoingEvents)
		events.GET("/upcoming", h.listUpcomingEvents)
		events.GET("/:slug", h.getEvent)
	}

	admin := v1.Group("/admin", adminRequired())
	{
		admin.PUT("/orders/:number/status", h.updateOrderStatus)
		admin.POST("/orders/:number/paid", h.markOrderPaid)
		admin.POST("/payouts/:id/approve", h.approvePayout)
		admin.POST("/payouts/:id/reject", h.rejectPayout)
		admin.POST("/payouts/:id/paid", h.markPayoutPaid)
		admin.POST("/refund-requests/:number/approve", h.approveRefundRequest)
		admin.POST("/refund-requests/:number/reject", h.rejectRefundRequest)
		admin.POST("/refunds/:number/complete", h.completeRefund)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- cart ---

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), sessionToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    cart.Lines,
		"coupon":   cart.Coupon,
		"subtotal": cart.Subtotal(),
	})
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), sessionToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	line, err := h.carts.AddLine(c.Request.Context(), sessionToken(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.carts.UpdateQuantity(c.Request.Context(), sessionToken(c), productID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.carts.RemoveLine(c.Request.Context(), sessionToken(c), productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- coupons ---

type applyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *Handler) applyCoupon(c *gin.Context) {
	var req applyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	discount, err := h.coupons.Apply(c.Request.Context(), sessionToken(c), userID(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discount": discount})
}

func (h *Handler) removeCoupon(c *gin.Context) {
	if err := h.coupons.Remove(c.Request.Context(), sessionToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCoupons(c *gin.Context) {
	coupons, err := h.coupons.ActiveCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

// --- checkout & orders ---

func (h *Handler) checkoutQuote(c *gin.Context) {
	cart, quote, err := h.orders.Checkout(c.Request.Context(), sessionToken(c), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": cart.Lines,
		"quote": quote,
	})
}

func (h *Handler) checkoutSuccess(c *gin.Context) {
	order, err := h.orders.FinishCheckout(c.Request.Context(), sessionToken(c), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if order == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) listAddresses(c *gin.Context) {
	addresses, err := h.orders.ListAddresses(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), sessionToken(c), userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	order, items, err := h.orders.GetOrder(c.Request.Context(), c.Param("number"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

func (h *Handler) cancelOrder(c *gin.Context) {
	if err := h.orders.CancelOrder(c.Request.Context(), c.Param("number"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("number"), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// markOrderPaid records cash collection for a cash-on-delivery order
func (h *Handler) markOrderPaid(c *gin.Context) {
	if err := h.earnings.MarkCODPaid(c.Request.Context(), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- payments ---

func (h *Handler) createCheckoutSession(c *gin.Context) {
	session, err := h.payments.CreateCheckoutSession(c.Request.Context(), c.Param("number"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) getPayment(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable payload"})
		return
	}

	err = h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// --- seller wallet & payouts ---

func (h *Handler) getWallet(c *gin.Context) {
	wallet, err := h.earnings.GetWallet(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) listEarnings(c *gin.Context) {
	earnings, err := h.earnings.ListEarnings(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}

type requestPayoutRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required"`
}

func (h *Handler) requestPayout(c *gin.Context) {
	var req requestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payout, err := h.earnings.RequestPayout(c.Request.Context(), userID(c), req.Amount, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payout)
}

func (h *Handler) listPayoutRequests(c *gin.Context) {
	payouts, err := h.earnings.ListPayoutRequests(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

type payoutActionRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) payoutID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payout ID"})
		return 0, false
	}
	return id, true
}

func (h *Handler) approvePayout(c *gin.Context) {
	id, ok := h.payoutID(c)
	if !ok {
		return
	}
	var req payoutActionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.earnings.ApprovePayout(c.Request.Context(), id, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) rejectPayout(c *gin.Context) {
	id, ok := h.payoutID(c)
	if !ok {
		return
	}
	var req payoutActionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.earnings.RejectPayout(c.Request.Context(), id, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) markPayoutPaid(c *gin.Context) {
	id, ok := h.payoutID(c)
	if !ok {
		return
	}
	var req payoutActionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.earnings.MarkPayoutPaid(c.Request.Context(), id, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- refunds & store credit ---

func (h *Handler) createRefundRequest(c *gin.Context) {
	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	req, err := h.refunds.CreateRequest(c.Request.Context(), userID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) listRefundRequests(c *gin.Context) {
	reqs, err := h.refunds.ListRequests(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refund_requests": reqs})
}

func (h *Handler) getRefundRequest(c *gin.Context) {
	req, err := h.refunds.GetRequest(c.Request.Context(), c.Param("number"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) cancelRefundRequest(c *gin.Context) {
	if err := h.refunds.CancelRequest(c.Request.Context(), c.Param("number"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type refundDecisionRequest struct {
	Method string `json:"method"`
	Notes  string `json:"notes"`
}

func (h *Handler) approveRefundRequest(c *gin.Context) {
	var req refundDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	refund, err := h.refunds.ApproveRequest(c.Request.Context(), c.Param("number"), adminID(c), req.Method, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

func (h *Handler) rejectRefundRequest(c *gin.Context) {
	var req refundDecisionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.refunds.RejectRequest(c.Request.Context(), c.Param("number"), adminID(c), req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type completeRefundRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) completeRefund(c *gin.Context) {
	var req completeRefundRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.refunds.CompleteRefund(c.Request.Context(), c.Param("number"), req.TransactionID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getStoreCredit(c *gin.Context) {
	credit, err := h.refunds.GetStoreCredit(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

func (h *Handler) listStoreCreditTransactions(c *gin.Context) {
	txns, err := h.refunds.ListStoreCreditTransactions(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// --- wishlist ---

func (h *Handler) listWishlist(c *gin.Context) {
	products, err := h.wishlist.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) addWishlistItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.wishlist.Add(c.Request.Context(), userID(c), productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) removeWishlistItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.wishlist.Remove(c.Request.Context(), userID(c), productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- catalog & flash sale events ---

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.promotions.Products(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.promotions.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}


func (h *Handler) listOngoingEvents(c *gin.Context) {
	events, err := h.promotions.OngoingEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) listUpcomingEvents(c *gin.Context) {
	events, err := h.promotions.UpcomingEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) getEvent(c *gin.Context) {
	event, prices, err := h.promotions.EventPrices(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":    event,
		"products": prices,
	})
}
