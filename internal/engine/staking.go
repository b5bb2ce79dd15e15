package engine

import (
	"context"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// StakeParams identifies the NFT and wallet staking into a collection
type StakeParams struct {
	Slug         string
	CollectionID uint64
	NftMint      string
	Owner        string
	// SelectionOption picks an option of the collection's selection
	// emission, when one is attached
	SelectionOption *int
}

// attachedEmissions loads every emission currently attached to the collection
func attachedEmissions(ctx context.Context, tx store.Store, collection *schema.Collection) ([]*schema.Emission, error) {
	ids := []*uint64{
		collection.TokenEmissionID,
		collection.PointsEmissionID,
		collection.DistributionEmissionID,
		collection.SelectionEmissionID,
	}
	var emissions []*schema.Emission
	for _, id := range ids {
		if id == nil {
			continue
		}
		em, err := tx.GetEmissionByID(ctx, *id)
		if err != nil {
			return nil, err
		}
		if em == nil {
			return nil, domain.ErrAccountNotInitialized
		}
		emissions = append(emissions, em)
	}
	return emissions, nil
}

// Stake locks an NFT into a collection and opens its accrual clock. The
// collection must be active, inside its staking window, and under capacity;
// an NFT can hold at most one live stake. The NFT is escrowed (custodial
// collections) or frozen in the owner's wallet, and the stake fee is moved
// to the fee sink. Any failure leaves no trace.
func (e *Engine) Stake(ctx context.Context, params StakeParams) (*schema.StakeRecord, error) {
	if !domain.Address(params.NftMint).Valid() || !domain.Address(params.Owner).Valid() {
		return nil, domain.ErrInvalidAddress
	}
	var (
		record *schema.StakeRecord
		fee    uint64
	)
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, params.Slug)
		if err != nil {
			return err
		}
		if !staker.Active {
			return domain.ErrStakerInactive
		}
		collection, err := loadCollection(ctx, tx, staker, params.CollectionID)
		if err != nil {
			return err
		}
		if !collection.Active {
			return domain.ErrCollectionInactive
		}
		if collection.CurrentStakers >= collection.MaxStakers {
			return domain.ErrMaxStakersReached
		}
		now := e.clock.Now()
		if now.Before(collection.StartAt) {
			return domain.ErrStakeNotLive
		}
		if !collection.EndAt.After(now) {
			return domain.ErrStakeOver
		}
		existing, err := tx.GetStakeRecordByMint(ctx, params.NftMint)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyStaked
		}

		emissions, err := attachedEmissions(ctx, tx, collection)
		if err != nil {
			return err
		}
		var selection *int
		for _, em := range emissions {
			if em.Kind != domain.RewardSelection {
				continue
			}
			if params.SelectionOption == nil || *params.SelectionOption < 0 ||
				*params.SelectionOption >= len(em.Options) {
				return domain.ErrInvalidEmission
			}
			selection = params.SelectionOption
		}

		fee, err = e.chargeOperationFee(ctx, tx, cfg, staker, params.Owner, feeStake)
		if err != nil {
			return err
		}

		if collection.Custodial {
			if err := e.custodian.EscrowNFT(ctx, params.NftMint, params.Owner); err != nil {
				return err
			}
		} else {
			if err := e.custodian.LockNFT(ctx, params.NftMint, params.Owner); err != nil {
				return err
			}
		}

		record = &schema.StakeRecord{
			CollectionID:    collection.ID,
			StakerID:        staker.ID,
			NftMint:         params.NftMint,
			Owner:           params.Owner,
			StakedAt:        now,
			SelectionOption: selection,
		}
		if err := tx.CreateStakeRecord(ctx, record); err != nil {
			return err
		}

		for _, em := range emissions {
			em.StakedItems++
			if err := tx.SaveEmission(ctx, em); err != nil {
				return err
			}
			// A points emission tracks the NFT across stake cycles, so its
			// ledger row is created up front.
			if em.Kind == domain.RewardPoints {
				if err := tx.AddNftRecordPoints(ctx, staker.ID, params.NftMint, 0); err != nil {
					return err
				}
			}
		}
		collection.CurrentStakers++
		if err := tx.SaveCollection(ctx, collection); err != nil {
			return err
		}
		staker.NumberStaked++
		return tx.SaveStaker(ctx, staker)
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, params.Slug, domain.EventTypeStakeCreated, map[string]interface{}{
		"collection_id": params.CollectionID,
		"nft_mint":      params.NftMint,
		"owner":         params.Owner,
		"fee":           fee,
	})
	return record, nil
}

// selectionOption resolves a stake's chosen option against the emission's
// current option table. The stored index was validated at stake time but the
// tenant may have replaced the emission since; a stale index resolves to
// nothing and the stake forfeits the selection reward.
func selectionOption(em *schema.Emission, record *schema.StakeRecord) (domain.SelectionOption, bool) {
	if record.SelectionOption == nil {
		return domain.SelectionOption{}, false
	}
	idx := *record.SelectionOption
	if idx < 0 || idx >= len(em.Options) {
		return domain.SelectionOption{}, false
	}
	return em.Options[idx], true
}

// payTokenReward settles an earned token amount from the emission's vault or
// by minting. Vault payouts never exceed what the vault holds; the shortfall
// is forfeited rather than blocking the caller.
func (e *Engine) payTokenReward(ctx context.Context, tx store.Store, em *schema.Emission, to string, amount uint64) (uint64, error) {
	if amount == 0 || em.TokenMint == nil {
		return 0, nil
	}
	if em.TokenVault {
		if amount > em.VaultBalance {
			amount = em.VaultBalance
		}
		if amount == 0 {
			return 0, nil
		}
		if err := e.custodian.TransferToken(ctx, *em.TokenMint, "", to, amount); err != nil {
			return 0, err
		}
		em.VaultBalance -= amount
		return amount, tx.SaveEmission(ctx, em)
	}
	if err := e.custodian.MintToken(ctx, *em.TokenMint, to, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// ClaimParams identifies the stake being claimed against
type ClaimParams struct {
	Slug    string
	NftMint string
	Owner   string
}

// Claim pays out what a live stake has earned so far and re-bases its accrual
// clock, so rewards never pay twice. Token emissions pay rate times staked
// seconds once the minimum period has passed; distribution and selection
// emissions drain the record's accrued SOL and any token shares credited to
// the NFT. Points accrue only at unstake,
// so a stake with nothing else to pay fails rather than charging a fee for
// nothing.
func (e *Engine) Claim(ctx context.Context, params ClaimParams) (uint64, error) {
	var (
		paid uint64
		fee  uint64
	)
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, params.Slug)
		if err != nil {
			return err
		}
		record, err := tx.GetStakeRecordByMint(ctx, params.NftMint)
		if err != nil {
			return err
		}
		if record == nil || record.StakerID != staker.ID {
			return domain.ErrNotStaked
		}
		if record.Owner != params.Owner {
			return domain.ErrUnauthorized
		}
		collection, err := loadCollection(ctx, tx, staker, record.CollectionID)
		if err != nil {
			return err
		}
		emissions, err := attachedEmissions(ctx, tx, collection)
		if err != nil {
			return err
		}

		now := e.clock.Now()
		var payable bool
		for _, em := range emissions {
			switch em.Kind {
			case domain.RewardToken:
				if !minimumPeriodMet(em, record.StakedAt, now) {
					return domain.ErrMinimumPeriodNotReached
				}
				payable = true
			case domain.RewardDistribution, domain.RewardSelection:
				if record.SolBalance > 0 {
					payable = true
				}
			}
		}
		shares, err := pendingShareBalance(ctx, tx, collection.ID, params.NftMint)
		if err != nil {
			return err
		}
		if shares > 0 {
			payable = true
		}
		if !payable {
			return domain.ErrNoTokensToClaim
		}

		fee, err = e.chargeOperationFee(ctx, tx, cfg, staker, params.Owner, feeClaim)
		if err != nil {
			return err
		}

		for _, em := range emissions {
			if em.Kind != domain.RewardToken {
				continue
			}
			amount := accruedReward(em, record.StakedAt, now)
			settled, err := e.payTokenReward(ctx, tx, em, params.Owner, amount)
			if err != nil {
				return err
			}
			paid += settled
			record.StakedAt = now
		}
		if record.SolBalance > 0 {
			if err := e.custodian.TransferSol(ctx, "", params.Owner, record.SolBalance); err != nil {
				return err
			}
			paid += record.SolBalance
			record.SolBalance = 0
		}
		if shares > 0 {
			drained, err := e.drainShareRecords(ctx, tx, collection.ID, params.NftMint, params.Owner)
			if err != nil {
				return err
			}
			paid += drained
		}
		return tx.SaveStakeRecord(ctx, record)
	})
	if err != nil {
		return 0, err
	}
	e.publish(ctx, params.Slug, domain.EventTypeStakeClaimed, map[string]interface{}{
		"nft_mint": params.NftMint,
		"owner":    params.Owner,
		"paid":     paid,
		"fee":      fee,
	})
	return paid, nil
}

// UnstakeParams identifies the stake being released
type UnstakeParams struct {
	Slug    string
	NftMint string
	Owner   string
}

// Unstake releases an NFT and settles everything owed. When the collection
// locks the minimum period, an under-age stake is refused; otherwise early
// unstake simply forfeits the unearned token reward. Token payouts are best
// effort against the remaining vault and never block the release. Points
// emissions bank the staked seconds into the NFT's durable ledger; a chosen
// selection option pays its reward only if its full duration was served.
// The stake record is destroyed and the NFT returned.
func (e *Engine) Unstake(ctx context.Context, params UnstakeParams) (uint64, error) {
	var (
		paid uint64
		fee  uint64
	)
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, params.Slug)
		if err != nil {
			return err
		}
		record, err := tx.GetStakeRecordByMint(ctx, params.NftMint)
		if err != nil {
			return err
		}
		if record == nil || record.StakerID != staker.ID {
			return domain.ErrNotStaked
		}
		if record.Owner != params.Owner {
			return domain.ErrUnauthorized
		}
		collection, err := loadCollection(ctx, tx, staker, record.CollectionID)
		if err != nil {
			return err
		}
		emissions, err := attachedEmissions(ctx, tx, collection)
		if err != nil {
			return err
		}

		now := e.clock.Now()
		for _, em := range emissions {
			switch em.Kind {
			case domain.RewardSelection:
				option, ok := selectionOption(em, record)
				if !ok {
					continue
				}
				if option.Lock && seconds(record.StakedAt, now) < option.Duration {
					return domain.ErrMinimumPeriodNotReached
				}
			default:
				if collection.LockMinimumPeriod && !minimumPeriodMet(em, record.StakedAt, now) {
					return domain.ErrMinimumPeriodNotReached
				}
			}
		}

		fee, err = e.chargeOperationFee(ctx, tx, cfg, staker, params.Owner, feeUnstake)
		if err != nil {
			return err
		}

		for _, em := range emissions {
			switch em.Kind {
			case domain.RewardToken:
				if minimumPeriodMet(em, record.StakedAt, now) {
					amount := accruedReward(em, record.StakedAt, now)
					settled, err := e.payTokenReward(ctx, tx, em, params.Owner, amount)
					if err != nil {
						return err
					}
					paid += settled
				}
			case domain.RewardPoints:
				earned := uint64(seconds(record.StakedAt, now))
				if earned > 0 {
					if err := tx.AddNftRecordPoints(ctx, staker.ID, params.NftMint, earned); err != nil {
						return err
					}
				}
			case domain.RewardSelection:
				if option, ok := selectionOption(em, record); ok {
					if seconds(record.StakedAt, now) >= option.Duration {
						settled, err := e.payTokenReward(ctx, tx, em, params.Owner, option.Reward)
						if err != nil {
							return err
						}
						paid += settled
					}
				}
			}
			if em.StakedItems > 0 {
				em.StakedItems--
			}
			if err := tx.SaveEmission(ctx, em); err != nil {
				return err
			}
		}

		if record.SolBalance > 0 {
			if err := e.custodian.TransferSol(ctx, "", params.Owner, record.SolBalance); err != nil {
				return err
			}
			paid += record.SolBalance
			record.SolBalance = 0
		}
		drained, err := e.drainShareRecords(ctx, tx, collection.ID, params.NftMint, params.Owner)
		if err != nil {
			return err
		}
		paid += drained

		if collection.Custodial {
			if err := e.custodian.ReleaseNFT(ctx, params.NftMint, params.Owner); err != nil {
				return err
			}
		} else {
			if err := e.custodian.UnlockNFT(ctx, params.NftMint, params.Owner); err != nil {
				return err
			}
		}

		if err := tx.DeleteStakeRecord(ctx, record.ID); err != nil {
			return err
		}
		if collection.CurrentStakers > 0 {
			collection.CurrentStakers--
		}
		if err := tx.SaveCollection(ctx, collection); err != nil {
			return err
		}
		if staker.NumberStaked > 0 {
			staker.NumberStaked--
		}
		return tx.SaveStaker(ctx, staker)
	})
	if err != nil {
		return 0, err
	}
	e.publish(ctx, params.Slug, domain.EventTypeStakeReleased, map[string]interface{}{
		"nft_mint": params.NftMint,
		"owner":    params.Owner,
		"paid":     paid,
		"fee":      fee,
	})
	return paid, nil
}
