package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stakehaus/stake-engine/internal/api/middleware"
	"github.com/stakehaus/stake-engine/internal/api/rest/dto"
	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/engine"
	"github.com/stakehaus/stake-engine/internal/registry"
	"github.com/stakehaus/stake-engine/internal/store"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// InitProgramConfig bootstraps the platform fee schedule. Admin only.
	// POST /api/v1/config
	InitProgramConfig(c *gin.Context)

	// UpdateProgramConfig mutates the platform fee schedule. Admin only.
	// PATCH /api/v1/config
	UpdateProgramConfig(c *gin.Context)

	// CreateStaker registers a new tenant
	// POST /api/v1/stakers
	CreateStaker(c *gin.Context)

	// GetStaker retrieves a tenant by slug
	// GET /api/v1/stakers/:slug
	GetStaker(c *gin.Context)

	// ToggleStakerActive enables or disables a tenant. Admin only.
	// POST /api/v1/stakers/:slug/active
	ToggleStakerActive(c *gin.Context)

	// CloseStaker removes an emptied tenant
	// DELETE /api/v1/stakers/:slug
	CloseStaker(c *gin.Context)

	// UpdateSubscription changes a tenant's subscription tier
	// PUT /api/v1/stakers/:slug/subscription
	UpdateSubscription(c *gin.Context)

	// PaySubscription settles the tenant's current billing cycle
	// POST /api/v1/stakers/:slug/subscription/pay
	PaySubscription(c *gin.Context)

	// UpdateOwnDomain toggles the custom-domain add-on
	// PUT /api/v1/stakers/:slug/domain
	UpdateOwnDomain(c *gin.Context)

	// UpdateRemoveBranding toggles the branding-removal add-on
	// PUT /api/v1/stakers/:slug/branding
	UpdateRemoveBranding(c *gin.Context)

	// UpdateNextPaymentTime moves a tenant's billing clock. Admin only.
	// PUT /api/v1/stakers/:slug/billing-clock
	UpdateNextPaymentTime(c *gin.Context)

	// UpdateTheme replaces a tenant's presentation settings
	// PUT /api/v1/stakers/:slug/theme
	UpdateTheme(c *gin.Context)

	// AddToken attaches a reward token mint to a tenant
	// POST /api/v1/stakers/:slug/token
	AddToken(c *gin.Context)

	// CreateCollection binds a staking policy to an NFT collection
	// POST /api/v1/stakers/:slug/collections
	CreateCollection(c *gin.Context)

	// ToggleCollectionActive opens or closes a collection for staking
	// POST /api/v1/stakers/:slug/collections/:id/active
	ToggleCollectionActive(c *gin.Context)

	// CloseCollection tears an emptied collection down
	// DELETE /api/v1/stakers/:slug/collections/:id
	CloseCollection(c *gin.Context)

	// AddEmission attaches a reward strategy to a collection
	// POST /api/v1/stakers/:slug/collections/:id/emissions
	AddEmission(c *gin.Context)

	// CloseEmission detaches a reward strategy from a collection
	// DELETE /api/v1/stakers/:slug/collections/:id/emissions/:kind
	CloseEmission(c *gin.Context)

	// ChangeReward changes the token emission's rate going forward
	// PUT /api/v1/stakers/:slug/collections/:id/reward
	ChangeReward(c *gin.Context)

	// ExtendEmission pushes the token emission's end date out
	// PUT /api/v1/stakers/:slug/collections/:id/extend
	ExtendEmission(c *gin.Context)

	// AddFunds tops up the vault of a vault-backed emission
	// POST /api/v1/stakers/:slug/collections/:id/funds
	AddFunds(c *gin.Context)

	// RemoveFunds drains the vault of a wound-down emission
	// DELETE /api/v1/stakers/:slug/collections/:id/funds?emission_id=<id>
	RemoveFunds(c *gin.Context)

	// Stake locks an NFT into a collection
	// POST /api/v1/stakers/:slug/stakes
	Stake(c *gin.Context)

	// Claim pays out a live stake's earnings so far
	// POST /api/v1/stakers/:slug/stakes/claim
	Claim(c *gin.Context)

	// Unstake releases an NFT and settles everything owed
	// POST /api/v1/stakers/:slug/stakes/unstake
	Unstake(c *gin.Context)

	// CreateDistribution opens a funding pot on a distribution emission
	// POST /api/v1/stakers/:slug/distributions
	CreateDistribution(c *gin.Context)

	// Distribute deposits into a pot, split evenly across live stakers
	// POST /api/v1/stakers/:slug/distributions/:id/fund
	Distribute(c *gin.Context)

	// CreateWebhookEndpoint registers a signed-event delivery endpoint
	// POST /api/v1/stakers/:slug/webhooks
	CreateWebhookEndpoint(c *gin.Context)

	// ListWebhookEndpoints lists the tenant's active delivery endpoints
	// GET /api/v1/stakers/:slug/webhooks
	ListWebhookEndpoints(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	engine *engine.Engine
	store  store.Store
	// adminAuthority is the wallet attributed to API-key callers, so
	// platform services act as the config authority
	adminAuthority string
	// blocklist may be nil, in which case nothing is blocked
	blocklist registry.BlocklistRegistry
}

// NewHandler creates a new REST API handler backed by the staking engine
func NewHandler(eng *engine.Engine, st store.Store, adminAuthority string, blocklist registry.BlocklistRegistry) Handler {
	return &handler{
		engine:         eng,
		store:          st,
		adminAuthority: adminAuthority,
		blocklist:      blocklist,
	}
}

// mintBlocked checks the mint against the blocklist and responds 403 when it
// is barred
func (h *handler) mintBlocked(c *gin.Context, mint string) bool {
	if h.blocklist != nil && h.blocklist.IsMintBlocked(mint) {
		respondForbidden(c, "Mint address is blocked")
		return true
	}
	return false
}

// actor resolves the wallet address acting in this request. JWT subjects
// carry the caller's own address; API-key callers act as the platform admin.
func (h *handler) actor(c *gin.Context) (string, bool) {
	if subject, ok := c.Get(string(middleware.AUTH_SUBJECT_KEY)); ok {
		if addr, ok := subject.(string); ok && addr != "" {
			return addr, true
		}
	}
	if authType, ok := c.Get(string(middleware.AUTH_TYPE_KEY)); ok {
		if authType == "apikey" && h.adminAuthority != "" {
			return h.adminAuthority, true
		}
	}
	return "", false
}

// requireActor resolves the acting wallet or aborts with 401
func (h *handler) requireActor(c *gin.Context) (string, bool) {
	actor, ok := h.actor(c)
	if !ok {
		respondBadRequest(c, "No acting wallet associated with the credentials")
		return "", false
	}
	return actor, true
}

// pathID parses a numeric path parameter
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		respondBadRequest(c, fmt.Sprintf("%s must be a numeric id", name))
		return 0, false
	}
	return id, true
}

// InitProgramConfig bootstraps the platform fee schedule
func (h *handler) InitProgramConfig(c *gin.Context) {
	var req dto.InitProgramConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	err := h.engine.InitProgramConfig(c.Request.Context(), engine.InitProgramConfigParams{
		Authority:          req.Authority,
		FeeSink:            req.FeeSink,
		StakeFee:           req.StakeFee,
		UnstakeFee:         req.UnstakeFee,
		ClaimFee:           req.ClaimFee,
		AdvancedFee:        req.AdvancedFee,
		ProFee:             req.ProFee,
		UltimateFee:        req.UltimateFee,
		ExtraCollectionFee: req.ExtraCollectionFee,
		RemoveBrandingFee:  req.RemoveBrandingFee,
		OwnDomainFee:       req.OwnDomainFee,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// UpdateProgramConfig mutates the platform fee schedule
func (h *handler) UpdateProgramConfig(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateProgramConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	err := h.engine.UpdateProgramConfig(c.Request.Context(), actor, engine.UpdateProgramConfigParams{
		FeeSink:            req.FeeSink,
		StakeFee:           req.StakeFee,
		UnstakeFee:         req.UnstakeFee,
		ClaimFee:           req.ClaimFee,
		AdvancedFee:        req.AdvancedFee,
		ProFee:             req.ProFee,
		UltimateFee:        req.UltimateFee,
		ExtraCollectionFee: req.ExtraCollectionFee,
		RemoveBrandingFee:  req.RemoveBrandingFee,
		OwnDomainFee:       req.OwnDomainFee,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateStaker registers a new tenant
func (h *handler) CreateStaker(c *gin.Context) {
	var req dto.CreateStakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if h.blocklist != nil && h.blocklist.IsWalletBlocked(req.Authority) {
		respondForbidden(c, "Wallet address is blocked")
		return
	}

	staker, err := h.engine.InitStaker(c.Request.Context(), engine.InitStakerParams{
		Slug:      req.Slug,
		Name:      req.Name,
		Authority: req.Authority,
		Tier:      req.Tier,
		Theme:     req.Theme,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapStaker(staker))
}

// GetStaker retrieves a tenant by slug
func (h *handler) GetStaker(c *gin.Context) {
	slug := c.Param("slug")
	staker, err := h.store.GetStakerBySlug(c.Request.Context(), slug)
	if err != nil {
		respondInternalError(c, err, "Failed to get staker")
		return
	}
	if staker == nil {
		respondNotFound(c, "Staker not found")
		return
	}
	c.JSON(http.StatusOK, dto.MapStaker(staker))
}

// ToggleStakerActive enables or disables a tenant
func (h *handler) ToggleStakerActive(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.engine.ToggleStakerActive(c.Request.Context(), actor, c.Param("slug"), req.Active); err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CloseStaker removes an emptied tenant
func (h *handler) CloseStaker(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	if err := h.engine.CloseStaker(c.Request.Context(), actor, c.Param("slug")); err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateSubscription changes a tenant's subscription tier
func (h *handler) UpdateSubscription(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	err := h.engine.UpdateSubscription(c.Request.Context(), actor, c.Param("slug"), req.Tier, req.CustomFees)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// PaySubscription settles the tenant's current billing cycle
func (h *handler) PaySubscription(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	amount, err := h.engine.PaySubscription(c.Request.Context(), actor, c.Param("slug"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AmountResponse{Amount: amount})
}

// UpdateOwnDomain toggles the custom-domain add-on
func (h *handler) UpdateOwnDomain(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateOwnDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.UpdateOwnDomain(c.Request.Context(), actor, c.Param("slug"), req.Enable, req.CustomDomain)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateRemoveBranding toggles the branding-removal add-on
func (h *handler) UpdateRemoveBranding(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateRemoveBrandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.UpdateRemoveBranding(c.Request.Context(), actor, c.Param("slug"), req.Enable)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateNextPaymentTime moves a tenant's billing clock
func (h *handler) UpdateNextPaymentTime(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.UpdateNextPaymentTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.UpdateNextPaymentTime(c.Request.Context(), actor, c.Param("slug"), req.NextPaymentAt)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateTheme replaces a tenant's presentation settings
func (h *handler) UpdateTheme(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var theme domain.Theme
	if err := c.ShouldBindJSON(&theme); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.engine.UpdateTheme(c.Request.Context(), actor, c.Param("slug"), theme); err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddToken attaches a reward token mint to a tenant
func (h *handler) AddToken(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.AddTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if h.mintBlocked(c, req.Mint) {
		return
	}

	err := h.engine.AddToken(c.Request.Context(), actor, c.Param("slug"), req.Mint, req.TokenVault)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// CreateCollection binds a staking policy to an NFT collection
func (h *handler) CreateCollection(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if h.mintBlocked(c, req.CollectionMint) {
		return
	}

	collection, err := h.engine.InitCollection(c.Request.Context(), actor, c.Param("slug"), engine.InitCollectionParams{
		CollectionMint:    req.CollectionMint,
		Custodial:         req.Custodial,
		MaxStakers:        req.MaxStakers,
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
		LockMinimumPeriod: req.LockMinimumPeriod,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCollection(collection))
}

// ToggleCollectionActive opens or closes a collection for staking
func (h *handler) ToggleCollectionActive(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.ToggleCollectionActive(c.Request.Context(), actor, c.Param("slug"), collectionID, req.Active)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CloseCollection tears an emptied collection down
func (h *handler) CloseCollection(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CloseCollectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}

	err := h.engine.CloseCollection(c.Request.Context(), actor, c.Param("slug"), collectionID, req.SiblingIDs)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddEmission attaches a reward strategy to a collection
func (h *handler) AddEmission(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AddEmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	emission, err := h.engine.AddEmission(c.Request.Context(), actor, c.Param("slug"), collectionID, engine.AddEmissionParams{
		Kind:          req.Kind,
		RewardRate:    req.RewardRate,
		EndAt:         req.EndAt,
		MinimumPeriod: req.MinimumPeriod,
		Options:       req.Options,
		FundAmount:    req.FundAmount,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEmission(emission))
}

// CloseEmission detaches a reward strategy from a collection
func (h *handler) CloseEmission(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	kind := domain.RewardKind(c.Param("kind"))
	if !domain.IsValidRewardKind(kind) {
		respondBadRequest(c, "Unknown reward kind")
		return
	}

	err := h.engine.CloseEmission(c.Request.Context(), actor, c.Param("slug"), collectionID, kind)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ChangeReward changes the token emission's rate going forward
func (h *handler) ChangeReward(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ChangeRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.ChangeReward(c.Request.Context(), actor, c.Param("slug"), collectionID, req.RewardRate)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExtendEmission pushes the token emission's end date out
func (h *handler) ExtendEmission(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ExtendEmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.ExtendEmission(c.Request.Context(), actor, c.Param("slug"), collectionID, req.EndAt)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddFunds tops up the vault of a vault-backed emission
func (h *handler) AddFunds(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.AddFunds(c.Request.Context(), actor, c.Param("slug"), collectionID, req.EmissionID, req.Amount)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveFunds drains the vault of a wound-down emission
func (h *handler) RemoveFunds(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	emissionID, err := strconv.ParseUint(c.Query("emission_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "emission_id query parameter must be a numeric id")
		return
	}

	amount, err := h.engine.RemoveFunds(c.Request.Context(), actor, c.Param("slug"), collectionID, emissionID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AmountResponse{Amount: amount})
}

// Stake locks an NFT into a collection
func (h *handler) Stake(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if h.mintBlocked(c, req.NftMint) {
		return
	}

	record, err := h.engine.Stake(c.Request.Context(), engine.StakeParams{
		Slug:            c.Param("slug"),
		CollectionID:    req.CollectionID,
		NftMint:         req.NftMint,
		Owner:           actor,
		SelectionOption: req.SelectionOption,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapStakeRecord(record))
}

// Claim pays out a live stake's earnings so far
func (h *handler) Claim(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.NftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	amount, err := h.engine.Claim(c.Request.Context(), engine.ClaimParams{
		Slug:    c.Param("slug"),
		NftMint: req.NftMint,
		Owner:   actor,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AmountResponse{Amount: amount})
}

// Unstake releases an NFT and settles everything owed
func (h *handler) Unstake(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.NftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	amount, err := h.engine.Unstake(c.Request.Context(), engine.UnstakeParams{
		Slug:    c.Param("slug"),
		NftMint: req.NftMint,
		Owner:   actor,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AmountResponse{Amount: amount})
}

// CreateDistribution opens a funding pot on a distribution emission
func (h *handler) CreateDistribution(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	distribution, err := h.engine.InitDistribution(c.Request.Context(), actor, c.Param("slug"), req.CollectionID, engine.InitDistributionParams{
		Label:     req.Label,
		URI:       req.URI,
		Shares:    req.Shares,
		Amount:    req.Amount,
		TokenMint: req.TokenMint,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDistribution(distribution))
}

// Distribute deposits into a pot, split evenly across live stakers
func (h *handler) Distribute(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	distributionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.engine.Distribute(c.Request.Context(), actor, c.Param("slug"), distributionID, req.Amount)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateWebhookEndpoint registers a signed-event delivery endpoint
func (h *handler) CreateWebhookEndpoint(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateWebhookEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	endpoint, err := h.engine.CreateWebhookEndpoint(c.Request.Context(), actor, c.Param("slug"), engine.CreateWebhookEndpointParams{
		URL:          req.URL,
		Secret:       req.Secret,
		EventFilters: req.EventFilters,
		MaxAttempts:  req.MaxAttempts,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapWebhookEndpoint(endpoint))
}

// ListWebhookEndpoints lists the tenant's active delivery endpoints
func (h *handler) ListWebhookEndpoints(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	endpoints, err := h.engine.ListWebhookEndpoints(c.Request.Context(), actor, c.Param("slug"))
	if err != nil {
		respondEngineError(c, err)
		return
	}

	out := make([]*dto.WebhookEndpointResponse, 0, len(endpoints))
	for _, endpoint := range endpoints {
		out = append(out, dto.MapWebhookEndpoint(endpoint))
	}
	c.JSON(http.StatusOK, out)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "stake-engine-api",
	})
}
