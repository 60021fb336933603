package handler

import (
	"errors"

	linkingapp "github.com/bizgrow/backend/internal/application/linking"
	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/bizgrow/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LinkingHandler handles external account linking API endpoints
type LinkingHandler struct {
	BaseHandler
	linkService *linkingapp.LinkService
}

// NewLinkingHandler creates a new LinkingHandler
func NewLinkingHandler(linkService *linkingapp.LinkService) *LinkingHandler {
	return &LinkingHandler{
		linkService: linkService,
	}
}

// InitiateLinkRequest represents a request to start a linking flow
// @Description Request body for starting an OAuth linking flow
type InitiateLinkRequest struct {
	Platform string `json:"platform" binding:"required" example:"meta_ads"`
}

// Status godoc
// @ID           getIntegrationStatus
// @Summary      List platform connection status
// @Description  Returns every supported platform with its connection state for the tenant
// @Tags         integrations
// @Produce      json
// @Success      200 {object} APIResponse[[]linkingapp.PlatformStatus]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/status [get]
func (h *LinkingHandler) Status(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	statuses, err := h.linkService.Status(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, statuses)
}

// Check godoc
// @ID           checkExistingConnection
// @Summary      Check for an existing connection
// @Description  Reports whether the tenant already has a connected integration for the platform
// @Tags         integrations
// @Produce      json
// @Param        platform query string false "Platform code" default(meta_ads)
// @Success      200 {object} APIResponse[linkingapp.ConnectionCheck]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/social/check [get]
func (h *LinkingHandler) Check(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	platform := linking.PlatformCode(c.DefaultQuery("platform", string(linking.PlatformMetaAds)))
	check, err := h.linkService.CheckExisting(c.Request.Context(), tenantID, platform)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, check)
}

// Initiate godoc
// @ID           initiateSocialLink
// @Summary      Start an OAuth linking flow
// @Description  Runs the subscription guards and returns the provider's authorization URL
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body InitiateLinkRequest true "Linking request"
// @Success      200 {object} APIResponse[linkingapp.InitiateResult]
// @Failure      400 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/social/initiate [post]
func (h *LinkingHandler) Initiate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req InitiateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.linkService.Initiate(c.Request.Context(), tenantID, linking.PlatformCode(req.Platform))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Callback godoc
// @ID           socialLinkCallback
// @Summary      OAuth provider redirect target
// @Description  Validates the anti-forgery state and exchanges the authorization code.
// @Description  Unauthenticated: the provider redirect carries no bearer token, the
// @Description  state token alone identifies the pending session.
// @Tags         integrations
// @Produce      json
// @Param        state query string true "Anti-forgery state token"
// @Param        code  query string false "Authorization code"
// @Param        error query string false "Provider error code"
// @Success      200 {object} APIResponse[linkingapp.CallbackResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /integrations/social/callback [get]
func (h *LinkingHandler) Callback(c *gin.Context) {
	params := linkingapp.CallbackParams{
		State:            c.Query("state"),
		Code:             c.Query("code"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
		ClientIP:         c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
	}
	if params.State == "" {
		h.BadRequest(c, "Missing state parameter")
		return
	}

	result, err := h.linkService.HandleCallback(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, linking.ErrStateMismatch) {
			logger.FromContext(c.Request.Context()).Warn("state mismatch on linking callback",
				zap.String("client_ip", params.ClientIP),
				zap.String("user_agent", params.UserAgent),
			)
		}
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Candidates godoc
// @ID           listLinkCandidates
// @Summary      List selectable accounts
// @Description  Enumerates the ad accounts, social profiles and pages reachable with the pending session's token
// @Tags         integrations
// @Produce      json
// @Param        state query string true "Anti-forgery state token"
// @Success      200 {object} APIResponse[linking.CandidateAccounts]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/social/candidates [get]
func (h *LinkingHandler) Candidates(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	state := c.Query("state")
	if state == "" {
		h.BadRequest(c, "Missing state parameter")
		return
	}

	candidates, err := h.linkService.ListCandidates(c.Request.Context(), tenantID, state)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, candidates)
}

// Select godoc
// @ID           saveLinkSelection
// @Summary      Save the account selection
// @Description  Persists the integration with the chosen sub-accounts and queues the historical sync
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body linkingapp.SelectionRequest true "Account selection"
// @Success      201 {object} APIResponse[linkingapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/social/select [post]
func (h *LinkingHandler) Select(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req linkingapp.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.linkService.SaveSelection(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// Disconnect godoc
// @ID           disconnectIntegration
// @Summary      Disconnect a platform
// @Description  Severs the connected integration and removes its sub-accounts
// @Tags         integrations
// @Produce      json
// @Param        platform path string true "Platform code" example(meta_ads)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/social/{platform} [delete]
func (h *LinkingHandler) Disconnect(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	platform := linking.PlatformCode(c.Param("platform"))
	if err := h.linkService.Disconnect(c.Request.Context(), tenantID, platform); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
