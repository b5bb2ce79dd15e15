package engine

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// loadConfig fetches the platform config singleton
func loadConfig(ctx context.Context, tx store.Store) (*schema.ProgramConfig, error) {
	cfg, err := tx.GetProgramConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrAccountNotInitialized
	}
	return cfg, nil
}

// loadStaker fetches a tenant by slug
func loadStaker(ctx context.Context, tx store.Store, slug string) (*schema.Staker, error) {
	staker, err := tx.GetStakerBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if staker == nil {
		return nil, domain.ErrAccountNotInitialized
	}
	return staker, nil
}

// requireOwner checks the caller owns the tenant
func requireOwner(staker *schema.Staker, actor string) error {
	if staker.Authority != actor {
		return domain.ErrUnauthorized
	}
	return nil
}

// settleDowngrade clears a pending downgrade once its live date has passed.
// The caller persists the staker.
func settleDowngrade(staker *schema.Staker, now time.Time) {
	if staker.SubscriptionLiveAt != nil && !now.Before(*staker.SubscriptionLiveAt) {
		staker.PrevSubscription = nil
		staker.SubscriptionLiveAt = nil
	}
}

// InitProgramConfigParams carries the initial platform fee schedule
type InitProgramConfigParams struct {
	Authority          string
	FeeSink            string
	StakeFee           uint64
	UnstakeFee         uint64
	ClaimFee           uint64
	AdvancedFee        uint64
	ProFee             uint64
	UltimateFee        uint64
	ExtraCollectionFee uint64
	RemoveBrandingFee  uint64
	OwnDomainFee       uint64
}

// InitProgramConfig creates the platform configuration singleton. It can
// only ever be created once.
func (e *Engine) InitProgramConfig(ctx context.Context, params InitProgramConfigParams) error {
	if !domain.Address(params.Authority).Valid() || !domain.Address(params.FeeSink).Valid() {
		return domain.ErrInvalidAddress
	}
	return e.store.Atomic(ctx, func(tx store.Store) error {
		existing, err := tx.GetProgramConfig(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyInitialized
		}
		now := e.clock.Now()
		return tx.SaveProgramConfig(ctx, &schema.ProgramConfig{
			ID:                 schema.ProgramConfigID,
			Authority:          params.Authority,
			FeeSink:            params.FeeSink,
			StakeFee:           params.StakeFee,
			UnstakeFee:         params.UnstakeFee,
			ClaimFee:           params.ClaimFee,
			AdvancedFee:        params.AdvancedFee,
			ProFee:             params.ProFee,
			UltimateFee:        params.UltimateFee,
			ExtraCollectionFee: params.ExtraCollectionFee,
			RemoveBrandingFee:  params.RemoveBrandingFee,
			OwnDomainFee:       params.OwnDomainFee,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	})
}

// UpdateProgramConfigParams carries fee-schedule changes; nil fields are
// left untouched
type UpdateProgramConfigParams struct {
	FeeSink            *string
	StakeFee           *uint64
	UnstakeFee         *uint64
	ClaimFee           *uint64
	AdvancedFee        *uint64
	ProFee             *uint64
	UltimateFee        *uint64
	ExtraCollectionFee *uint64
	RemoveBrandingFee  *uint64
	OwnDomainFee       *uint64
}

// UpdateProgramConfig mutates the platform fee schedule. Admin only.
func (e *Engine) UpdateProgramConfig(ctx context.Context, actor string, params UpdateProgramConfigParams) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if actor != cfg.Authority {
			return domain.ErrAdminOnly
		}
		if params.FeeSink != nil {
			if !domain.Address(*params.FeeSink).Valid() {
				return domain.ErrInvalidAddress
			}
			cfg.FeeSink = *params.FeeSink
		}
		if params.StakeFee != nil {
			cfg.StakeFee = *params.StakeFee
		}
		if params.UnstakeFee != nil {
			cfg.UnstakeFee = *params.UnstakeFee
		}
		if params.ClaimFee != nil {
			cfg.ClaimFee = *params.ClaimFee
		}
		if params.AdvancedFee != nil {
			cfg.AdvancedFee = *params.AdvancedFee
		}
		if params.ProFee != nil {
			cfg.ProFee = *params.ProFee
		}
		if params.UltimateFee != nil {
			cfg.UltimateFee = *params.UltimateFee
		}
		if params.ExtraCollectionFee != nil {
			cfg.ExtraCollectionFee = *params.ExtraCollectionFee
		}
		if params.RemoveBrandingFee != nil {
			cfg.RemoveBrandingFee = *params.RemoveBrandingFee
		}
		if params.OwnDomainFee != nil {
			cfg.OwnDomainFee = *params.OwnDomainFee
		}
		cfg.UpdatedAt = e.clock.Now()
		return tx.SaveProgramConfig(ctx, cfg)
	})
}

// InitStakerParams carries a new tenant's identity and starting subscription
type InitStakerParams struct {
	Slug      string
	Name      string
	Authority string
	Tier      domain.SubscriptionTier
	Theme     *domain.Theme
}

// InitStaker registers a new tenant. The tenant starts deactivated; an admin
// enables it via ToggleStakerActive. The first payment falls due one billing
// cycle from now. Custom subscriptions are assigned by admins through
// UpdateSubscription, never chosen at registration.
func (e *Engine) InitStaker(ctx context.Context, params InitStakerParams) (*schema.Staker, error) {
	if err := domain.ValidateSlug(params.Slug); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(params.Name); err != nil {
		return nil, err
	}
	if !domain.Address(params.Authority).Valid() {
		return nil, domain.ErrInvalidAddress
	}
	if !domain.IsValidTier(params.Tier) {
		return nil, domain.ErrInvalidTier
	}
	if params.Tier == domain.TierCustom {
		return nil, domain.ErrAdminOnly
	}
	if params.Theme != nil {
		if err := params.Theme.Validate(); err != nil {
			return nil, err
		}
	}

	var staker *schema.Staker
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		existing, err := tx.GetStakerBySlug(ctx, params.Slug)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrSlugExists
		}
		now := e.clock.Now()
		staker = &schema.Staker{
			Slug:          params.Slug,
			Name:          params.Name,
			Authority:     params.Authority,
			Active:        false,
			Subscription:  params.Tier,
			NextPaymentAt: now.Add(domain.BILLING_CYCLE),
			StartDate:     now,
		}
		if params.Theme != nil {
			theme := datatypes.NewJSONType(*params.Theme)
			staker.Theme = &theme
		}
		return tx.CreateStaker(ctx, staker)
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, staker.Slug, domain.EventTypeStakerCreated, map[string]interface{}{
		"tier": string(staker.Subscription),
	})
	return staker, nil
}

// ToggleStakerActive enables or disables a tenant. Admin only.
func (e *Engine) ToggleStakerActive(ctx context.Context, actor, slug string, active bool) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if actor != cfg.Authority {
			return domain.ErrAdminOnly
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		staker.Active = active
		return tx.SaveStaker(ctx, staker)
	})
}

// CloseStaker removes a tenant. Every collection must already be closed and
// no NFT may still be staked.
func (e *Engine) CloseStaker(ctx context.Context, actor, slug string) error {
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
		if err != nil {
			return err
		}
		if collections > 0 {
			return domain.ErrStillHasCollections
		}
		if staker.NumberStaked > 0 {
			return domain.ErrStillHasStakedItems
		}
		return tx.DeleteStaker(ctx, staker.ID)
	})
	if err != nil {
		return err
	}
	e.publish(ctx, slug, domain.EventTypeStakerClosed, nil)
	return nil
}

// UpdateSubscription moves a tenant to a new tier. Upgrades take effect
// immediately and charge the new tier's price pro-rata for the remainder of
// the cycle; downgrades keep the richer tier's discount in force until the
// current cycle's due date. Both reset the billing clock to a full cycle
// from now. Custom tiers with explicit fee overrides are admin-assigned.
func (e *Engine) UpdateSubscription(ctx context.Context, actor, slug string, tier domain.SubscriptionTier, custom *domain.CustomFees) error {
	if !domain.IsValidTier(tier) {
		return domain.ErrInvalidTier
	}
	if tier == domain.TierCustom && custom == nil {
		return domain.ErrInvalidTier
	}
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		admin := actor == cfg.Authority
		if !admin {
			if err := requireOwner(staker, actor); err != nil {
				return err
			}
		}
		if tier == domain.TierCustom && !admin {
			return domain.ErrAdminOnly
		}
		collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
		if err != nil {
			return err
		}
		if !admin && isInArrears(cfg, staker, collections, e.clock.Now()) {
			return domain.ErrStakerInArrears
		}

		now := e.clock.Now()
		currentPrice := tierPrice(cfg, staker, staker.Subscription)

		previous := staker.Subscription
		if tier == domain.TierCustom {
			fees := datatypes.NewJSONType(*custom)
			staker.CustomFees = &fees
		} else {
			staker.CustomFees = nil
		}
		newPrice := tierPrice(cfg, &schema.Staker{Subscription: tier, CustomFees: staker.CustomFees}, tier)

		if newPrice > currentPrice {
			// Upgrade: pay the richer tier's price for what is left of
			// the cycle, switch immediately.
			fee := proRataFee(newPrice, staker.NextPaymentAt, now)
			if fee > 0 {
				if err := e.custodian.TransferSol(ctx, staker.Authority, cfg.FeeSink, fee); err != nil {
					return err
				}
			}
			staker.PrevSubscription = nil
			staker.SubscriptionLiveAt = nil
		} else {
			// Downgrade: the old tier stays live until the cycle's due
			// date already paid for.
			liveAt := staker.NextPaymentAt
			staker.PrevSubscription = &previous
			staker.SubscriptionLiveAt = &liveAt
		}
		staker.Subscription = tier
		staker.NextPaymentAt = now.Add(domain.BILLING_CYCLE)
		return tx.SaveStaker(ctx, staker)
	})
	if err != nil {
		return err
	}
	e.publish(ctx, slug, domain.EventTypeSubscriptionUpdated, map[string]interface{}{
		"tier": string(tier),
	})
	return nil
}

// UpdateOwnDomain toggles the custom-domain add-on. Enabling it charges the
// one-off domain fee pro-rata against the current cycle.
func (e *Engine) UpdateOwnDomain(ctx context.Context, actor, slug string, enable bool, customDomain *string) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		admin := actor == cfg.Authority
		if !admin {
			if err := requireOwner(staker, actor); err != nil {
				return err
			}
		}
		collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if !admin && isInArrears(cfg, staker, collections, now) {
			return domain.ErrStakerInArrears
		}
		if enable && !staker.OwnDomain {
			fee := proRataFee(cfg.OwnDomainFee, staker.NextPaymentAt, now)
			if fee > 0 {
				if err := e.custodian.TransferSol(ctx, staker.Authority, cfg.FeeSink, fee); err != nil {
					return err
				}
			}
		}
		staker.OwnDomain = enable
		if enable {
			staker.CustomDomain = customDomain
		} else {
			staker.CustomDomain = nil
		}
		return tx.SaveStaker(ctx, staker)
	})
}

// UpdateRemoveBranding toggles the branding-removal add-on. Enabling it
// charges the add-on fee pro-rata; the add-on then joins the recurring bill.
func (e *Engine) UpdateRemoveBranding(ctx context.Context, actor, slug string, enable bool) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		admin := actor == cfg.Authority
		if !admin {
			if err := requireOwner(staker, actor); err != nil {
				return err
			}
		}
		collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if !admin && isInArrears(cfg, staker, collections, now) {
			return domain.ErrStakerInArrears
		}
		if enable && !staker.RemoveBranding {
			fee := proRataFee(cfg.RemoveBrandingFee, staker.NextPaymentAt, now)
			if fee > 0 {
				if err := e.custodian.TransferSol(ctx, staker.Authority, cfg.FeeSink, fee); err != nil {
					return err
				}
			}
		}
		staker.RemoveBranding = enable
		return tx.SaveStaker(ctx, staker)
	})
}

// UpdateNextPaymentTime overrides a tenant's billing clock. Admin only.
func (e *Engine) UpdateNextPaymentTime(ctx context.Context, actor, slug string, next time.Time) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if actor != cfg.Authority {
			return domain.ErrAdminOnly
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		staker.NextPaymentAt = next
		return tx.SaveStaker(ctx, staker)
	})
}

// PaySubscription settles a tenant's bill for the next cycle. Anyone may pay
// on a tenant's behalf. Payment opens one day into the current cycle; paying
// before the grace window expires extends the due date by one cycle, paying
// later restarts the cycle from now.
func (e *Engine) PaySubscription(ctx context.Context, payer, slug string) (uint64, error) {
	var amount uint64
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
		if err != nil {
			return err
		}
		amount = subscriptionAmount(cfg, staker, collections)
		if amount == 0 {
			return domain.ErrNoPaymentDue
		}
		now := e.clock.Now()
		earliest := staker.NextPaymentAt.Add(-domain.EARLIEST_PAY_OFFSET)
		if !now.After(earliest) {
			return domain.ErrPaymentNotDueYet
		}
		if err := e.custodian.TransferSol(ctx, payer, cfg.FeeSink, amount); err != nil {
			return err
		}
		if isInArrears(cfg, staker, collections, now) {
			staker.NextPaymentAt = now.Add(domain.BILLING_CYCLE)
		} else {
			staker.NextPaymentAt = staker.NextPaymentAt.Add(domain.BILLING_CYCLE)
		}
		settleDowngrade(staker, now)
		return tx.SaveStaker(ctx, staker)
	})
	if err != nil {
		return 0, err
	}
	e.publish(ctx, slug, domain.EventTypeSubscriptionPaid, map[string]interface{}{
		"amount": amount,
	})
	return amount, nil
}

// UpdateTheme replaces a tenant's presentation settings
func (e *Engine) UpdateTheme(ctx context.Context, actor, slug string, theme domain.Theme) error {
	if err := theme.Validate(); err != nil {
		return err
	}
	return e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		stored := datatypes.NewJSONType(theme)
		staker.Theme = &stored
		return tx.SaveStaker(ctx, staker)
	})
}

// AddToken attaches the tenant's reward token mint. Vault-backed tenants
// fund emissions from pre-filled vaults; otherwise the mint authority is
// handed to the platform so emissions can mint rewards directly.
func (e *Engine) AddToken(ctx context.Context, actor, slug, mint string, tokenVault bool) error {
	if !domain.Address(mint).Valid() {
		return domain.ErrInvalidAddress
	}
	return e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		if staker.TokenMint != nil {
			return domain.ErrTokenExists
		}
		if !tokenVault {
			if err := e.custodian.SetMintAuthority(ctx, mint, cfg.Authority); err != nil {
				return err
			}
		}
		staker.TokenMint = &mint
		staker.TokenVault = tokenVault
		return tx.SaveStaker(ctx, staker)
	})
}
