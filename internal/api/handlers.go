package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/dailit/dailit-server/internal/chatauth"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/report"
	"github.com/dailit/dailit-server/internal/repository"
	"github.com/dailit/dailit-server/internal/service"
	"github.com/dailit/dailit-server/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Options configures the HTTP layer
type Options struct {
	JWTSecret      string
	LoginPerMinute int
	LoginBurst     int
}

// Handler serves the public and admin HTTP APIs
type Handler struct {
	service      service.Service
	chat         chatauth.Authenticator
	logger       *utils.Logger
	jwtSecret    []byte
	loginLimiter *RateLimiter
}

var registerOnce sync.Once

// NewHandler creates a new API handler
func NewHandler(svc service.Service, chat chatauth.Authenticator, logger *utils.Logger, opts Options) *Handler {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := utils.RegisterValidators(v); err != nil {
				logger.LogError("api", "NewHandler", "registering validators", nil, err)
			}
		}
	})

	return &Handler{
		service:      svc,
		chat:         chat,
		logger:       logger,
		jwtSecret:    []byte(opts.JWTSecret),
		loginLimiter: NewRateLimiter(opts.LoginPerMinute, opts.LoginBurst, logger),
	}
}

// LoginLimiter exposes the chat login limiter so its idle entries can be
// pruned.
func (h *Handler) LoginLimiter() *RateLimiter {
	return h.loginLimiter
}

// SetupRoutes registers every route on router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", metricsHandler())

	auth := router.Group("/api/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/chat-login", h.loginLimiter.Middleware(), h.ChatLogin)
		auth.POST("/signup", AuthMiddleware(h.jwtSecret), h.requireAdmin, h.SignUp)
	}

	public := router.Group("/api")
	{
		public.POST("/leads", h.SubmitLead)
		public.POST("/contacts", h.SubmitContact)
	}

	admin := router.Group("/api/admin")
	admin.Use(AuthMiddleware(h.jwtSecret), h.requireAdmin)
	{
		admin.GET("/managers", h.ListManagers)
		admin.POST("/managers", h.CreateManager)
		admin.PUT("/managers/:id", h.UpdateManager)
		admin.PATCH("/managers/:id/active", h.SetManagerActive)

		admin.GET("/resellers", h.ListResellers)
		admin.POST("/resellers", h.CreateReseller)
		admin.PUT("/resellers/:id", h.UpdateReseller)
		admin.PATCH("/resellers/:id/active", h.SetResellerActive)

		admin.GET("/users", h.ListSubscriptionUsers)
		admin.POST("/users", h.CreateSubscriptionUser)
		admin.GET("/users/:id", h.GetSubscriptionUser)
		admin.PUT("/users/:id", h.UpdateSubscriptionUser)
		admin.DELETE("/users/:id", h.DeleteSubscriptionUser)
		admin.GET("/hierarchy", h.ParentAccountHierarchy)
		admin.GET("/expiring-soon", h.ExpiringSoon)

		admin.GET("/payments", h.ListPayments)
		admin.POST("/payments", h.CreatePayment)
		admin.GET("/payments/summary", h.PaymentSummary)

		admin.GET("/submissions", h.ListSubmissions)
		admin.POST("/submissions", h.CreateSubmission)

		admin.GET("/reconciliation", h.Reconciliation)
		admin.GET("/reconciliation/export", h.ExportReconciliation)

		admin.GET("/leads", h.ListLeads)
		admin.PUT("/leads/:id", h.UpdateLead)
		admin.DELETE("/leads/:id", h.DeleteLead)

		admin.GET("/contacts", h.ListContacts)
		admin.PUT("/contacts/:id", h.UpdateContact)
		admin.DELETE("/contacts/:id", h.DeleteContact)
	}
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Status: "error", Code: code, Message: message})
}

func badRequest(c *gin.Context, err error) {
	errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}

// requireAdmin runs after AuthMiddleware and checks the token's admin still
// exists in the store.
func (h *Handler) requireAdmin(c *gin.Context) {
	admin, err := h.service.AuthorizeAdmin(c.Request.Context(), c.GetString("adminId"))
	if errors.Is(err, service.ErrUnknownAdmin) {
		unauthorized(c, "Admin account not found")
		return
	}
	if err != nil {
		h.respondError(c, "requireAdmin", err)
		c.Abort()
		return
	}
	c.Set("adminEmail", admin.Email)
	c.Next()
}

// respondError maps service and store error categories onto HTTP responses.
func (h *Handler) respondError(c *gin.Context, funcName string, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", validation.Message)
	case errors.Is(err, repository.ErrInvalid):
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "The record was rejected by the data store.")
	case errors.Is(err, service.ErrUnauthorized):
		errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
	case errors.Is(err, service.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Record not found")
	case errors.Is(err, service.ErrConflict):
		errorJSON(c, http.StatusConflict, "CONFLICT", "Record already exists")
	case errors.Is(err, service.ErrAccess):
		h.logger.LogError("api", funcName, "store access denied", nil, err)
		errorJSON(c, http.StatusForbidden, "ACCESS_DENIED", "Access to the data store was denied.")
	case errors.Is(err, service.ErrConfiguration):
		h.logger.LogError("api", funcName, "store misconfigured", nil, err)
		errorJSON(c, http.StatusInternalServerError, "CONFIGURATION_ERROR", "The data store is not configured correctly.")
	default:
		h.logger.LogError("api", funcName, "request failed", nil, err)
		errorJSON(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "The data store is unavailable. Please try again later.")
	}
}

func list(c *gin.Context, count int, items interface{}) {
	c.JSON(http.StatusOK, models.ListResponse{Status: "success", Count: count, Items: items})
}

func item(c *gin.Context, status int, it interface{}) {
	c.JSON(status, models.ItemResponse{Status: "success", Item: it})
}

func boolQuery(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", name)
	}
	return v, nil
}

type activeRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Authentication handlers

func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "SignUp", err)
		return
	}
	h.logger.WithFields(logrus.Fields{"createdBy": c.GetString("adminEmail"), "admin": resp.Email}).Info("admin account created")
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChatLogin forwards the customer's credentials to the chat product and
// returns where the browser should go next.
func (h *Handler) ChatLogin(c *gin.Context) {
	var req models.ChatLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		chatLogins.WithLabelValues("bad_request").Inc()
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Login ID and password are required.")
		return
	}

	result, err := h.chat.Login(c.Request.Context(), chatauth.Credentials{LoginID: req.LoginID, Password: req.Password})
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	chatLogins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, models.ChatLoginResponse{
		Status:      "success",
		RedirectURL: result.RedirectURL,
		Token:       result.Token,
		User:        result.User,
	})
}

func (h *Handler) respondChatError(c *gin.Context, err error) {
	var chatErr *chatauth.Error
	switch {
	case errors.Is(err, chatauth.ErrMissingCredentials):
		chatLogins.WithLabelValues("bad_request").Inc()
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Login ID and password are required.")
	case errors.As(err, &chatErr):
		chatLogins.WithLabelValues(strconv.Itoa(chatErr.Status)).Inc()
		switch {
		case chatErr.Status == http.StatusUnauthorized:
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", chatErr.Message)
		case chatErr.Status == http.StatusBadRequest:
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", chatErr.Message)
		case chatErr.Status == http.StatusForbidden:
			errorJSON(c, http.StatusForbidden, "ACCESS_DENIED", chatErr.Message)
		case chatErr.Status == http.StatusTooManyRequests:
			errorJSON(c, http.StatusTooManyRequests, "RATE_LIMITED", chatErr.Message)
		default:
			h.logger.LogError("api", "ChatLogin", "chat server error", map[string]int{"status": chatErr.Status}, err)
			errorJSON(c, http.StatusBadGateway, "CHAT_UNAVAILABLE", chatErr.Message)
		}
	default:
		chatLogins.WithLabelValues("unreachable").Inc()
		h.logger.LogError("api", "ChatLogin", "chat server unreachable", nil, err)
		errorJSON(c, http.StatusBadGateway, "CHAT_UNAVAILABLE", "Unable to reach the chat server. Please try again later.")
	}
}

// Collector handlers

func (h *Handler) ListManagers(c *gin.Context) {
	activeOnly, err := boolQuery(c, "active")
	if err != nil {
		badRequest(c, err)
		return
	}

	managers, err := h.service.ListManagers(c.Request.Context(), activeOnly)
	if err != nil {
		h.respondError(c, "ListManagers", err)
		return
	}
	list(c, len(managers), managers)
}

func (h *Handler) CreateManager(c *gin.Context) {
	var req models.ManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := h.service.CreateManager(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "CreateManager", err)
		return
	}
	item(c, http.StatusCreated, m)
}

func (h *Handler) UpdateManager(c *gin.Context) {
	var req models.ManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := h.service.UpdateManager(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, "UpdateManager", err)
		return
	}
	item(c, http.StatusOK, m)
}

func (h *Handler) SetManagerActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := h.service.SetManagerActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		h.respondError(c, "SetManagerActive", err)
		return
	}
	item(c, http.StatusOK, m)
}

func (h *Handler) ListResellers(c *gin.Context) {
	activeOnly, err := boolQuery(c, "active")
	if err != nil {
		badRequest(c, err)
		return
	}

	resellers, err := h.service.ListResellers(c.Request.Context(), repository.ResellerFilter{
		ManagerID:  c.Query("managerId"),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		h.respondError(c, "ListResellers", err)
		return
	}
	list(c, len(resellers), resellers)
}

func (h *Handler) CreateReseller(c *gin.Context) {
	var req models.ResellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.service.CreateReseller(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "CreateReseller", err)
		return
	}
	item(c, http.StatusCreated, r)
}

func (h *Handler) UpdateReseller(c *gin.Context) {
	var req models.ResellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.service.UpdateReseller(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, "UpdateReseller", err)
		return
	}
	item(c, http.StatusOK, r)
}

func (h *Handler) SetResellerActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.service.SetResellerActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		h.respondError(c, "SetResellerActive", err)
		return
	}
	item(c, http.StatusOK, r)
}

// Subscription user handlers

func (h *Handler) ListSubscriptionUsers(c *gin.Context) {
	users, err := h.service.ListSubscriptionUsers(c.Request.Context(), service.UserListFilter{
		ManagerID:  c.Query("managerId"),
		ResellerID: c.Query("resellerId"),
		Status:     c.Query("status"),
	})
	if err != nil {
		h.respondError(c, "ListSubscriptionUsers", err)
		return
	}
	list(c, len(users), users)
}

func (h *Handler) GetSubscriptionUser(c *gin.Context) {
	u, err := h.service.GetSubscriptionUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "GetSubscriptionUser", err)
		return
	}
	item(c, http.StatusOK, u)
}

// CreateSubscriptionUser answers 201 even when only the user was written;
// the body's status is then "partial".
func (h *Handler) CreateSubscriptionUser(c *gin.Context) {
	var req models.CreateSubscriptionUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CreateSubscriptionUser(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "CreateSubscriptionUser", err)
		return
	}

	subscriberCreations.WithLabelValues(result.Outcome).Inc()
	c.JSON(http.StatusCreated, models.ItemResponse{Status: result.Outcome, Item: result})
}

func (h *Handler) UpdateSubscriptionUser(c *gin.Context) {
	var req models.UpdateSubscriptionUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.service.UpdateSubscriptionUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, "UpdateSubscriptionUser", err)
		return
	}
	item(c, http.StatusOK, u)
}

func (h *Handler) DeleteSubscriptionUser(c *gin.Context) {
	if err := h.service.DeleteSubscriptionUser(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "DeleteSubscriptionUser", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Subscription user deleted"})
}

func (h *Handler) ParentAccountHierarchy(c *gin.Context) {
	nodes := h.service.ParentAccountHierarchy(c.Request.Context())
	list(c, len(nodes), nodes)
}

func (h *Handler) ExpiringSoon(c *gin.Context) {
	users, err := h.service.ExpiringSoon(c.Request.Context())
	if err != nil {
		h.respondError(c, "ExpiringSoon", err)
		return
	}
	list(c, len(users), users)
}

// Ledger handlers

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.respondError(c, "ListPayments", err)
		return
	}
	list(c, len(payments), payments)
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.service.CreatePayment(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "CreatePayment", err)
		return
	}
	item(c, http.StatusCreated, p)
}

func (h *Handler) PaymentSummary(c *gin.Context) {
	summary, err := h.service.PaymentSummary(c.Request.Context())
	if err != nil {
		h.respondError(c, "PaymentSummary", err)
		return
	}
	list(c, len(summary), summary)
}

func (h *Handler) ListSubmissions(c *gin.Context) {
	submissions, err := h.service.ListSubmissions(c.Request.Context(), c.Query("managerId"))
	if err != nil {
		h.respondError(c, "ListSubmissions", err)
		return
	}
	list(c, len(submissions), submissions)
}

func (h *Handler) CreateSubmission(c *gin.Context) {
	var req models.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.service.CreateSubmission(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "CreateSubmission", err)
		return
	}
	item(c, http.StatusCreated, s)
}

func (h *Handler) Reconciliation(c *gin.Context) {
	rows, err := h.service.Reconciliation(c.Request.Context())
	if err != nil {
		h.respondError(c, "Reconciliation", err)
		return
	}
	list(c, len(rows), rows)
}

func (h *Handler) ExportReconciliation(c *gin.Context) {
	rows, err := h.service.Reconciliation(c.Request.Context())
	if err != nil {
		h.respondError(c, "ExportReconciliation", err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteReconciliation(&buf, rows); err != nil {
		h.logger.LogError("api", "ExportReconciliation", "writing workbook", nil, err)
		errorJSON(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to build the reconciliation workbook.")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=reconciliation.xlsx")
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}

// Intake handlers

func (h *Handler) SubmitLead(c *gin.Context) {
	var req models.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lead, err := h.service.SubmitLead(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "SubmitLead", err)
		return
	}
	item(c, http.StatusCreated, lead)
}

func (h *Handler) ListLeads(c *gin.Context) {
	leads, err := h.service.ListLeads(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, "ListLeads", err)
		return
	}
	list(c, len(leads), leads)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lead, err := h.service.UpdateLead(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, "UpdateLead", err)
		return
	}
	item(c, http.StatusOK, lead)
}

func (h *Handler) DeleteLead(c *gin.Context) {
	if err := h.service.DeleteLead(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "DeleteLead", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Lead deleted"})
}

func (h *Handler) SubmitContact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	contact, err := h.service.SubmitContact(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "SubmitContact", err)
		return
	}
	item(c, http.StatusCreated, contact)
}

func (h *Handler) ListContacts(c *gin.Context) {
	contacts, err := h.service.ListContacts(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, "ListContacts", err)
		return
	}
	list(c, len(contacts), contacts)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	contact, err := h.service.UpdateContact(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, "UpdateContact", err)
		return
	}
	item(c, http.StatusOK, contact)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	if err := h.service.DeleteContact(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "DeleteContact", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Contact submission deleted"})
}
