package engine

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// loadCollection fetches a collection and checks it belongs to the tenant
func loadCollection(ctx context.Context, tx store.Store, staker *schema.Staker, collectionID uint64) (*schema.Collection, error) {
	collection, err := tx.GetCollectionByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil || collection.StakerID != staker.ID {
		return nil, domain.ErrAccountNotInitialized
	}
	return collection, nil
}

// InitCollectionParams carries a new collection's staking policy
type InitCollectionParams struct {
	CollectionMint    string
	Custodial         bool
	MaxStakers        uint32
	StartAt           *time.Time
	EndAt             *time.Time
	LockMinimumPeriod bool
}

// InitCollection binds a staking policy to an NFT collection. The window
// opens now unless a future start is given; omitting the end leaves the
// window open until the sentinel end date. A collection beyond the tenant's
// first charges the extra-collection price pro-rata against the current
// billing cycle.
func (e *Engine) InitCollection(ctx context.Context, actor, slug string, params InitCollectionParams) (*schema.Collection, error) {
	if !domain.Address(params.CollectionMint).Valid() {
		return nil, domain.ErrInvalidAddress
	}
	var collection *schema.Collection
	err := e.store.Atomic(ctx, func(tx store.Store) error {
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
		collections, err := tx.CountCollectionsByStaker(ctx, staker.ID)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if isInArrears(cfg, staker, collections, now) {
			return domain.ErrStakerInArrears
		}
		startAt := now
		if params.StartAt != nil {
			if params.StartAt.Before(now) {
				return domain.ErrInvalidStartTime
			}
			startAt = *params.StartAt
		}
		endAt := time.Unix(domain.DEFAULT_STAKING_ENDS, 0)
		if params.EndAt != nil {
			if !params.EndAt.After(startAt) {
				return domain.ErrInvalidStakeEndTime
			}
			endAt = *params.EndAt
		}
		if collections >= 1 {
			fee := proRataFee(cfg.ExtraCollectionFee, staker.NextPaymentAt, now)
			if fee > 0 {
				if err := e.custodian.TransferSol(ctx, staker.Authority, cfg.FeeSink, fee); err != nil {
					return err
				}
			}
		}
		collection = &schema.Collection{
			StakerID:          staker.ID,
			CollectionMint:    params.CollectionMint,
			Custodial:         params.Custodial,
			Active:            true,
			MaxStakers:        params.MaxStakers,
			StartAt:           startAt,
			EndAt:             endAt,
			LockMinimumPeriod: params.LockMinimumPeriod,
		}
		return tx.CreateCollection(ctx, collection)
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, slug, domain.EventTypeCollectionCreated, map[string]interface{}{
		"collection_mint": params.CollectionMint,
	})
	return collection, nil
}

// ToggleCollectionActive opens or closes a collection for new stakes
func (e *Engine) ToggleCollectionActive(ctx context.Context, actor, slug string, collectionID uint64, active bool) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		collection.Active = active
		return tx.SaveCollection(ctx, collection)
	})
}

// AddEmissionParams carries a new emission's reward strategy
type AddEmissionParams struct {
	Kind          domain.RewardKind
	RewardRate    uint64
	EndAt         *time.Time
	MinimumPeriod *int64
	Options       []domain.SelectionOption
	// FundAmount pre-funds the vault of a vault-backed token or selection
	// emission
	FundAmount uint64
}

// AddEmission attaches a reward strategy to a collection, at most one per
// kind. A vault-backed token emission must carry an end date and enough
// funding to cover every seat staking at the reward rate until that end; a
// vault-backed selection emission must carry an end date and a positive
// starting balance for its option payouts to draw from.
func (e *Engine) AddEmission(ctx context.Context, actor, slug string, collectionID uint64, params AddEmissionParams) (*schema.Emission, error) {
	if !domain.IsValidRewardKind(params.Kind) {
		return nil, domain.ErrInvalidEmission
	}
	var emission *schema.Emission
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		if !staker.Active {
			return domain.ErrStakerInactive
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		ref := collection.EmissionRef(params.Kind)
		if *ref != nil {
			return domain.ErrEmissionExists
		}

		now := e.clock.Now()
		emission = &schema.Emission{
			CollectionID:  collection.ID,
			Kind:          params.Kind,
			Active:        true,
			StartAt:       now,
			EndAt:         params.EndAt,
			MinimumPeriod: params.MinimumPeriod,
		}

		switch params.Kind {
		case domain.RewardToken:
			if staker.TokenMint == nil {
				return domain.ErrAccountNotInitialized
			}
			if params.RewardRate == 0 {
				return domain.ErrRewardRequired
			}
			emission.RewardRate = params.RewardRate
			emission.RewardSteps = datatypes.JSONSlice[domain.RewardStep]{
				{Rate: params.RewardRate, Since: now.Unix()},
			}
			emission.TokenMint = staker.TokenMint
			emission.TokenVault = staker.TokenVault
			if staker.TokenVault {
				if params.EndAt == nil {
					return domain.ErrDurationRequired
				}
				required := requiredVaultBalance(params.RewardRate, collection.MaxStakers, now, *params.EndAt)
				if params.FundAmount < required {
					return domain.ErrInsufficientBalanceInVault
				}
				if err := e.custodian.TransferToken(ctx, *staker.TokenMint, staker.Authority, "", params.FundAmount); err != nil {
					return err
				}
				emission.VaultBalance = params.FundAmount
			}
		case domain.RewardSelection:
			if len(params.Options) == 0 {
				return domain.ErrInvalidEmission
			}
			if staker.TokenMint == nil {
				return domain.ErrAccountNotInitialized
			}
			emission.Options = datatypes.JSONSlice[domain.SelectionOption](params.Options)
			emission.TokenMint = staker.TokenMint
			emission.TokenVault = staker.TokenVault
			if staker.TokenVault {
				if params.EndAt == nil {
					return domain.ErrDurationRequired
				}
				if params.FundAmount == 0 {
					return domain.ErrInvalidEmission
				}
				if err := e.custodian.TransferToken(ctx, *staker.TokenMint, staker.Authority, "", params.FundAmount); err != nil {
					return err
				}
				emission.VaultBalance = params.FundAmount
			}
		}

		if err := tx.CreateEmission(ctx, emission); err != nil {
			return err
		}
		*ref = &emission.ID
		return tx.SaveCollection(ctx, collection)
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, slug, domain.EventTypeEmissionAdded, map[string]interface{}{
		"collection_id": collectionID,
		"kind":          string(params.Kind),
	})
	return emission, nil
}

// CloseEmission detaches a collection's emission of the given kind and stops
// its accrual. Live stakes keep what they have already earned; vault funds
// are recovered separately through RemoveFunds.
func (e *Engine) CloseEmission(ctx context.Context, actor, slug string, collectionID uint64, kind domain.RewardKind) error {
	if !domain.IsValidRewardKind(kind) {
		return domain.ErrInvalidEmission
	}
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		ref := collection.EmissionRef(kind)
		if *ref == nil {
			return domain.ErrInvalidEmission
		}
		emission, err := tx.GetEmissionByID(ctx, **ref)
		if err != nil {
			return err
		}
		if emission == nil {
			return domain.ErrAccountNotInitialized
		}
		now := e.clock.Now()
		emission.Active = false
		if emission.EndAt == nil || emission.EndAt.After(now) {
			emission.EndAt = &now
		}
		if err := tx.SaveEmission(ctx, emission); err != nil {
			return err
		}
		*ref = nil
		return tx.SaveCollection(ctx, collection)
	})
	if err != nil {
		return err
	}
	e.publish(ctx, slug, domain.EventTypeEmissionClosed, map[string]interface{}{
		"collection_id": collectionID,
		"kind":          string(kind),
	})
	return nil
}

// ChangeReward sets a new reward rate on a token emission. The rate history
// keeps the old rate for time already staked. The vault must still cover the
// worst case at the new rate for the rest of the window.
func (e *Engine) ChangeReward(ctx context.Context, actor, slug string, collectionID uint64, newRate uint64) error {
	if newRate == 0 {
		return domain.ErrRewardRequired
	}
	return e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		if !staker.Active {
			return domain.ErrStakerInactive
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		if collection.TokenEmissionID == nil {
			return domain.ErrInvalidEmission
		}
		emission, err := tx.GetEmissionByID(ctx, *collection.TokenEmissionID)
		if err != nil {
			return err
		}
		if emission == nil {
			return domain.ErrAccountNotInitialized
		}
		if emission.Kind != domain.RewardToken {
			return domain.ErrInvalidEmission
		}
		if emission.EndAt == nil {
			return domain.ErrDurationRequired
		}
		now := e.clock.Now()
		if emission.EndAt.Before(now) {
			return domain.ErrStakeOver
		}
		if err := e.checkSolvency(ctx, tx, emission, collection, newRate, *emission.EndAt); err != nil {
			return err
		}
		emission.RewardRate = newRate
		emission.RewardSteps = append(emission.RewardSteps, domain.RewardStep{
			Rate:  newRate,
			Since: now.Unix(),
		})
		return tx.SaveEmission(ctx, emission)
	})
}

// ExtendEmission pushes a token emission's end date further out. The vault
// must cover the worst case at the current rate until the new end.
func (e *Engine) ExtendEmission(ctx context.Context, actor, slug string, collectionID uint64, newEnd time.Time) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		if collection.TokenEmissionID == nil {
			return domain.ErrInvalidEmission
		}
		emission, err := tx.GetEmissionByID(ctx, *collection.TokenEmissionID)
		if err != nil {
			return err
		}
		if emission == nil {
			return domain.ErrAccountNotInitialized
		}
		if emission.Kind != domain.RewardToken {
			return domain.ErrInvalidEmission
		}
		if emission.EndAt == nil {
			return domain.ErrCannotExtendNoEndDate
		}
		now := e.clock.Now()
		if !newEnd.After(now) || !newEnd.After(*emission.EndAt) {
			return domain.ErrInvalidStakeEndTime
		}
		if err := e.checkSolvency(ctx, tx, emission, collection, emission.RewardRate, newEnd); err != nil {
			return err
		}
		emission.EndAt = &newEnd
		return tx.SaveEmission(ctx, emission)
	})
}

// AddFunds tops up the vault of a vault-backed token or selection emission
func (e *Engine) AddFunds(ctx context.Context, actor, slug string, collectionID, emissionID uint64, amount uint64) error {
	return e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		emission, err := tx.GetEmissionByID(ctx, emissionID)
		if err != nil {
			return err
		}
		if emission == nil || emission.CollectionID != collection.ID {
			return domain.ErrAccountNotInitialized
		}
		if emission.Kind != domain.RewardToken && emission.Kind != domain.RewardSelection {
			return domain.ErrInvalidEmission
		}
		if !emission.TokenVault || emission.TokenMint == nil {
			return domain.ErrInvalidEmission
		}
		if err := e.custodian.TransferToken(ctx, *emission.TokenMint, staker.Authority, "", amount); err != nil {
			return err
		}
		emission.VaultBalance += amount
		return tx.SaveEmission(ctx, emission)
	})
}

// RemoveFunds drains an emission's vault back to the tenant. The collection
// must be deactivated with nothing staked so no live stake is still owed
// from the vault.
func (e *Engine) RemoveFunds(ctx context.Context, actor, slug string, collectionID, emissionID uint64) (uint64, error) {
	var recovered uint64
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		if collection.Active {
			return domain.ErrCollectionActive
		}
		if collection.CurrentStakers > 0 {
			return domain.ErrCollectionHasStakers
		}
		emission, err := tx.GetEmissionByID(ctx, emissionID)
		if err != nil {
			return err
		}
		if emission == nil || emission.CollectionID != collection.ID {
			return domain.ErrAccountNotInitialized
		}
		if !emission.TokenVault || emission.TokenMint == nil {
			return domain.ErrInvalidEmission
		}
		recovered = emission.VaultBalance
		if recovered == 0 {
			return nil
		}
		if err := e.custodian.TransferToken(ctx, *emission.TokenMint, "", staker.Authority, recovered); err != nil {
			return err
		}
		emission.VaultBalance = 0
		return tx.SaveEmission(ctx, emission)
	})
	if err != nil {
		return 0, err
	}
	return recovered, nil
}

// CloseCollection removes an emptied collection. Every emission must be
// closed and nothing may still be staked. When the tenant's reward token
// mints directly, the caller must name every other collection still paying
// that mint; closing the last one hands the mint authority back to the
// tenant.
func (e *Engine) CloseCollection(ctx context.Context, actor, slug string, collectionID uint64, siblingIDs []uint64) error {
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		collection, err := loadCollection(ctx, tx, staker, collectionID)
		if err != nil {
			return err
		}
		if collection.HasEmissions() {
			return domain.ErrStillHasEmissions
		}
		if collection.CurrentStakers > 0 {
			return domain.ErrCollectionHasStakers
		}

		if staker.TokenMint != nil && !staker.TokenVault {
			expected, err := tx.ListCollectionIDsByRewardMint(ctx, staker.ID, *staker.TokenMint)
			if err != nil {
				return err
			}
			named := make(map[uint64]bool, len(siblingIDs))
			for _, id := range siblingIDs {
				named[id] = true
			}
			remaining := 0
			for _, id := range expected {
				if id == collection.ID {
					continue
				}
				if !named[id] {
					return domain.ErrCollectionsMissing
				}
				remaining++
			}
			if remaining == 0 {
				if err := e.custodian.SetMintAuthority(ctx, *staker.TokenMint, staker.Authority); err != nil {
					return err
				}
			}
		}
		return tx.DeleteCollection(ctx, collection.ID)
	})
	if err != nil {
		return err
	}
	e.publish(ctx, slug, domain.EventTypeCollectionClosed, map[string]interface{}{
		"collection_id": collectionID,
	})
	return nil
}
