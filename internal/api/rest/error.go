package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/stakehaus/stake-engine/internal/api/shared/errors"
	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...))
}

// respondForbidden responds with a forbidden error
func respondForbidden(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusForbidden, apierrors.NewForbiddenError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondInternalError responds with an internal server error and logs it
func respondInternalError(c *gin.Context, err error, message string) {
	logger.Error(err, zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondEngineError maps a staking engine error onto an HTTP response.
// Sentinel errors carry well-defined causes; anything unrecognized is a 500.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrUpdateAuthRequired):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Not allowed", err.Error()))

	case errors.Is(err, domain.ErrAdminOnly):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Admin only", err.Error()))

	case errors.Is(err, domain.ErrAccountNotInitialized),
		errors.Is(err, domain.ErrNotStaked):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError("Not found", err.Error()))

	case errors.Is(err, domain.ErrStakerInArrears):
		c.JSON(http.StatusPaymentRequired, apierrors.NewPaymentRequiredError("Subscription payment overdue", err.Error()))

	case errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrSlugExists),
		errors.Is(err, domain.ErrAlreadyStaked),
		errors.Is(err, domain.ErrEmissionExists),
		errors.Is(err, domain.ErrTokenExists),
		errors.Is(err, domain.ErrMaxStakersReached),
		errors.Is(err, domain.ErrCollectionHasStakers),
		errors.Is(err, domain.ErrCollectionsMissing),
		errors.Is(err, domain.ErrStillHasEmissions),
		errors.Is(err, domain.ErrStillHasCollections),
		errors.Is(err, domain.ErrStillHasStakedItems),
		errors.Is(err, domain.ErrInsufficientBalanceInVault),
		errors.Is(err, domain.ErrStakerInactive),
		errors.Is(err, domain.ErrCollectionInactive),
		errors.Is(err, domain.ErrCollectionActive),
		errors.Is(err, domain.ErrStakeNotLive),
		errors.Is(err, domain.ErrStakeOver),
		errors.Is(err, domain.ErrMinimumPeriodNotReached),
		errors.Is(err, domain.ErrPaymentNotDueYet),
		errors.Is(err, domain.ErrNoPaymentDue),
		errors.Is(err, domain.ErrNoTokensToClaim),
		errors.Is(err, domain.ErrTotalSharesFunded),
		errors.Is(err, domain.ErrCannotExtendNoEndDate):
		c.JSON(http.StatusConflict, apierrors.NewConflictError("Operation not permitted in current state", err.Error()))

	case errors.Is(err, domain.ErrSlugRequired),
		errors.Is(err, domain.ErrSlugTooLong),
		errors.Is(err, domain.ErrInvalidSlug),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrLabelTooLong),
		errors.Is(err, domain.ErrURITooLong),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrImageTooLong),
		errors.Is(err, domain.ErrInvalidColor),
		errors.Is(err, domain.ErrInvalidTier),
		errors.Is(err, domain.ErrInvalidStartTime),
		errors.Is(err, domain.ErrInvalidStakeEndTime),
		errors.Is(err, domain.ErrInvalidEmission),
		errors.Is(err, domain.ErrDurationRequired),
		errors.Is(err, domain.ErrRewardRequired),
		errors.Is(err, domain.ErrInvalidWebhookURL),
		errors.Is(err, domain.ErrInvalidWebhookSecret):
		c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(err.Error()))

	default:
		respondInternalError(c, err, "Internal error")
	}
}
