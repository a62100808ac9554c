package custody

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"equipment/internal/lifecycle"
	custom_error "equipment/pkg/errors"
	"equipment/pkg/metadata"
	"equipment/pkg/models"
	"equipment/pkg/roles"
	"equipment/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TransitionService interface {
	Checkout(ctx context.Context, cmd Command, personID int64) (*Result, error)
	Checkin(ctx context.Context, cmd Command, condition metadata.Condition) (*Result, error)
	Repair(ctx context.Context, cmd Command) (*Result, error)
	CompleteRepair(ctx context.Context, cmd Command) (*Result, error)
	Dispose(ctx context.Context, cmd Command) (*Result, error)
	ReportLost(ctx context.Context, cmd Command) (*Result, error)
	ReportFound(ctx context.Context, cmd Command) (*Result, error)
}

type AssetReader interface {
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
}

type HistoryReader interface {
	History(ctx context.Context, assetID int64) ([]models.TransitionRecord, error)
}

type TransitionRequest struct {
	PersonID  int64      `json:"person_id"`
	Condition string     `json:"condition"`
	When      *time.Time `json:"when"`
	Notes     string     `json:"notes"`
}

type CustodyHandler struct {
	service TransitionService
	assets  AssetReader
	history HistoryReader
	logger  *zap.Logger
}

func NewHandler(service TransitionService, assets AssetReader, history HistoryReader, logger *zap.Logger) *CustodyHandler {
	return &CustodyHandler{
		service: service,
		assets:  assets,
		history: history,
		logger:  logger,
	}
}

// RegisterRoutes expects router to already run security.JWTMiddleware.
// limiter, when given, is applied to the state-changing routes only.
func (h *CustodyHandler) RegisterRoutes(router *gin.RouterGroup, limiter gin.HandlerFunc) {
	group := router.Group("/assets")
	{
		group.GET("/:id", security.Authorize(roles.User), h.GetAsset)
		group.GET("/:id/history", security.Authorize(roles.User), h.GetHistory)
	}

	transitions := router.Group("/assets")
	if limiter != nil {
		transitions.Use(limiter)
	}
	{
		transitions.POST("/:id/checkout", security.Authorize(roles.User), h.Checkout)
		transitions.POST("/:id/checkin", security.Authorize(roles.User), h.Checkin)
		transitions.POST("/:id/repair", security.Authorize(roles.User), h.Repair)
		transitions.POST("/:id/complete-repair", security.Authorize(roles.User), h.CompleteRepair)
		transitions.POST("/:id/dispose", security.Authorize(roles.Moderator), h.Dispose)
		transitions.POST("/:id/lost", security.Authorize(roles.User), h.ReportLost)
		transitions.POST("/:id/found", security.Authorize(roles.User), h.ReportFound)
	}
}

func (h *CustodyHandler) Checkout(c *gin.Context) {
	cmd, req, ok := h.bindCommand(c, metadata.ActionCheckout, "")
	if !ok {
		return
	}
	if req.PersonID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "person_id is required for checkout"})
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), cmd, req.PersonID)
	h.respond(c, result, err)
}

func (h *CustodyHandler) Checkin(c *gin.Context) {
	var req TransitionRequest
	if !h.bindRequest(c, &req) {
		return
	}
	condition := metadata.NormalizeCondition(req.Condition)

	cmd, _, ok := h.commandFrom(c, req, metadata.ActionCheckin, condition)
	if !ok {
		return
	}

	result, err := h.service.Checkin(c.Request.Context(), cmd, condition)
	h.respond(c, result, err)
}

func (h *CustodyHandler) Repair(c *gin.Context) {
	h.handleSimple(c, metadata.ActionRepair, h.service.Repair)
}

func (h *CustodyHandler) CompleteRepair(c *gin.Context) {
	h.handleSimple(c, metadata.ActionCompleteRepair, h.service.CompleteRepair)
}

func (h *CustodyHandler) Dispose(c *gin.Context) {
	h.handleSimple(c, metadata.ActionDispose, h.service.Dispose)
}

func (h *CustodyHandler) ReportLost(c *gin.Context) {
	h.handleSimple(c, metadata.ActionLost, h.service.ReportLost)
}

func (h *CustodyHandler) ReportFound(c *gin.Context) {
	h.handleSimple(c, metadata.ActionFound, h.service.ReportFound)
}

func (h *CustodyHandler) GetAsset(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	asset, err := h.assets.GetAsset(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asset":           asset,
		"allowed_actions": lifecycle.AllowedActions(asset.Status),
	})
}

func (h *CustodyHandler) GetHistory(c *gin.Context) {
	id, ok := parseAssetID(c)
	if !ok {
		return
	}

	records, err := h.history.History(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *CustodyHandler) handleSimple(c *gin.Context, action metadata.Action, call func(context.Context, Command) (*Result, error)) {
	cmd, _, ok := h.bindCommand(c, action, "")
	if !ok {
		return
	}

	result, err := call(c.Request.Context(), cmd)
	h.respond(c, result, err)
}

func (h *CustodyHandler) bindCommand(c *gin.Context, action metadata.Action, condition metadata.Condition) (Command, TransitionRequest, bool) {
	var req TransitionRequest
	if !h.bindRequest(c, &req) {
		return Command{}, req, false
	}
	return h.commandFrom(c, req, action, condition)
}

// bindRequest accepts an empty body, since several actions carry no payload.
func (h *CustodyHandler) bindRequest(c *gin.Context, req *TransitionRequest) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return false
	}
	return true
}

func (h *CustodyHandler) commandFrom(c *gin.Context, req TransitionRequest, action metadata.Action, condition metadata.Condition) (Command, TransitionRequest, bool) {
	assetID, ok := parseAssetID(c)
	if !ok {
		return Command{}, req, false
	}

	actorID, err := security.ActorID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify operator", "details": err.Error()})
		return Command{}, req, false
	}

	if err := lifecycle.RequireNotes(action, condition, req.Notes); err != nil {
		h.abortWithError(c, err)
		return Command{}, req, false
	}

	return Command{
		AssetID: assetID,
		ActorID: actorID,
		When:    req.When,
		Notes:   req.Notes,
	}, req, true
}

func (h *CustodyHandler) respond(c *gin.Context, result *Result, err error) {
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CustodyHandler) abortWithError(c *gin.Context, err error) {
	switch custom_error.KindOf(err) {
	case custom_error.KindInvalidInput:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case custom_error.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case custom_error.KindInvalidTransition:
		var transitionErr *custom_error.InvalidTransitionError
		errors.As(err, &transitionErr)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":           err.Error(),
			"status":          transitionErr.Status,
			"action":          transitionErr.Action,
			"allowed_actions": transitionErr.Allowed,
		})
	case custom_error.KindConcurrencyTimeout:
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Asset is busy, try again",
			"retryable": true,
		})
	default:
		h.logger.Error("Custody request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Unable to process asset transition",
			"retryable": custom_error.IsRetryable(err),
		})
	}
}

func parseAssetID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID parameter, must be a positive integer"})
		return 0, false
	}
	return id, true
}
