package engine

import (
	"context"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// InitDistributionParams carries a new pot's identity, weighting, and seed
// funding
type InitDistributionParams struct {
	Label string
	// URI links the offchain distribution log
	URI string
	// Shares fixes the pot's share weighting for its lifetime; zero means
	// each funding splits equally across the stakes live at that moment
	Shares uint32
	// Amount seeds the pot's balance up front
	Amount uint64
	// TokenMint selects the payout token; nil pays SOL
	TokenMint *string
}

// InitDistribution creates a labelled payout pot under a collection's
// distribution emission. A nil token mint pays SOL into each stake record's
// balance; a mint pays token shares into durable share records. Seed funding
// is moved into the pot immediately and waits for the first Distribute.
func (e *Engine) InitDistribution(ctx context.Context, actor, slug string, collectionID uint64, params InitDistributionParams) (*schema.Distribution, error) {
	if err := domain.ValidateLabel(params.Label); err != nil {
		return nil, err
	}
	if len(params.URI) > domain.MAX_IMAGE_LENGTH {
		return nil, domain.ErrURITooLong
	}
	if params.TokenMint != nil && !domain.Address(*params.TokenMint).Valid() {
		return nil, domain.ErrInvalidAddress
	}
	var distribution *schema.Distribution
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
		if collection.DistributionEmissionID == nil {
			return domain.ErrInvalidEmission
		}
		if params.Amount > 0 {
			if err := e.fundPot(ctx, staker, params.TokenMint, params.Amount); err != nil {
				return err
			}
		}
		distribution = &schema.Distribution{
			CollectionID: collection.ID,
			EmissionID:   *collection.DistributionEmissionID,
			Label:        params.Label,
			URI:          params.URI,
			TokenMint:    params.TokenMint,
			Shares:       params.Shares,
			TotalFunded:  params.Amount,
			Balance:      params.Amount,
		}
		return tx.CreateDistribution(ctx, distribution)
	})
	if err != nil {
		return nil, err
	}
	return distribution, nil
}

// fundPot moves an amount from the tenant into the platform pot
func (e *Engine) fundPot(ctx context.Context, staker *schema.Staker, tokenMint *string, amount uint64) error {
	if tokenMint != nil {
		return e.custodian.TransferToken(ctx, *tokenMint, staker.Authority, "", amount)
	}
	return e.custodian.TransferSol(ctx, staker.Authority, "", amount)
}

// Distribute pushes a funded amount through a pot and credits the stakes
// live right now. A pot with a fixed share count pays one share per live
// stake at amount divided by the total shares, and refuses a funding that
// would exceed the count; a pot without one splits the amount equally by
// live staker count. SOL pots credit each stake record's balance for the
// next claim or unstake to drain; token pots credit durable per-NFT share
// records. Whatever the split leaves over stays in the pot, so no lamport
// is ever minted or lost. Funding a pot whose emission has been closed is
// refused.
func (e *Engine) Distribute(ctx context.Context, actor, slug string, distributionID, amount uint64) error {
	if amount == 0 {
		return domain.ErrNoPaymentDue
	}
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if err := requireOwner(staker, actor); err != nil {
			return err
		}
		distribution, err := tx.GetDistributionByID(ctx, distributionID)
		if err != nil {
			return err
		}
		if distribution == nil {
			return domain.ErrAccountNotInitialized
		}
		collection, err := loadCollection(ctx, tx, staker, distribution.CollectionID)
		if err != nil {
			return err
		}
		emission, err := tx.GetEmissionByID(ctx, distribution.EmissionID)
		if err != nil {
			return err
		}
		if emission == nil || !emission.Active {
			return domain.ErrInvalidEmission
		}

		records, err := tx.ListStakeRecordsByCollection(ctx, collection.ID)
		if err != nil {
			return err
		}

		var share, remainder uint64
		switch {
		case distribution.Shares > 0:
			if distribution.SharesFunded+uint32(len(records)) > distribution.Shares {
				return domain.ErrTotalSharesFunded
			}
			share = amount / uint64(distribution.Shares)
			remainder = amount - share*uint64(len(records))
			distribution.SharesFunded += uint32(len(records))
		case len(records) > 0:
			share = amount / uint64(len(records))
			remainder = amount % uint64(len(records))
		default:
			remainder = amount
		}

		// Move the whole funded amount into the platform pot up front; the
		// split below is pure bookkeeping.
		if err := e.fundPot(ctx, staker, distribution.TokenMint, amount); err != nil {
			return err
		}

		if share > 0 {
			for _, record := range records {
				if distribution.TokenMint != nil {
					if err := tx.AddShareAmount(ctx, distribution.ID, record.NftMint, share); err != nil {
						return err
					}
				} else {
					record.SolBalance += share
					if err := tx.SaveStakeRecord(ctx, record); err != nil {
						return err
					}
				}
			}
		}

		distribution.TotalFunded += amount
		distribution.Balance += remainder
		return tx.SaveDistribution(ctx, distribution)
	})
	if err != nil {
		return err
	}
	e.publish(ctx, slug, domain.EventTypeDistributionFunded, map[string]interface{}{
		"distribution_id": distributionID,
		"amount":          amount,
	})
	return nil
}

// pendingShareBalance sums the token shares credited to an NFT across the
// collection's pots
func pendingShareBalance(ctx context.Context, tx store.Store, collectionID uint64, nftMint string) (uint64, error) {
	distributions, err := tx.ListDistributionsByCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, distribution := range distributions {
		if distribution.TokenMint == nil {
			continue
		}
		record, err := tx.GetShareRecord(ctx, distribution.ID, nftMint)
		if err != nil {
			return 0, err
		}
		if record != nil {
			total += record.Amount
		}
	}
	return total, nil
}

// drainShareRecords pays every token share credited to an NFT out to its
// owner and zeroes the rows. Credited shares survive the emission's closure;
// the tokens already sit in the platform pot.
func (e *Engine) drainShareRecords(ctx context.Context, tx store.Store, collectionID uint64, nftMint, owner string) (uint64, error) {
	distributions, err := tx.ListDistributionsByCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, distribution := range distributions {
		if distribution.TokenMint == nil {
			continue
		}
		record, err := tx.GetShareRecord(ctx, distribution.ID, nftMint)
		if err != nil {
			return 0, err
		}
		if record == nil || record.Amount == 0 {
			continue
		}
		if err := e.custodian.TransferToken(ctx, *distribution.TokenMint, "", owner, record.Amount); err != nil {
			return 0, err
		}
		total += record.Amount
		distribution.ClaimedAmount += record.Amount
		if err := tx.SaveDistribution(ctx, distribution); err != nil {
			return 0, err
		}
		record.Amount = 0
		if err := tx.SaveShareRecord(ctx, record); err != nil {
			return 0, err
		}
	}
	return total, nil
}
