package custody

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stakehaus/stake-engine/internal/adapter"
	"github.com/stakehaus/stake-engine/internal/logger"
)

// jetStreamCustodian hands instructions to the wallet workers over JetStream.
// A positive PubAck from the stream means the instruction is durably queued;
// that is the acceptance contract the engine relies on.
type jetStreamCustodian struct {
	js    adapter.JetStream
	json  adapter.JSON
	clock adapter.Clock
}

// NewJetStreamCustodian creates a Custodian publishing to the custody stream
func NewJetStreamCustodian(js adapter.JetStream, jsonAdapter adapter.JSON, clock adapter.Clock) Custodian {
	return &jetStreamCustodian{
		js:    js,
		json:  jsonAdapter,
		clock: clock,
	}
}

func (c *jetStreamCustodian) publish(ctx context.Context, instruction Instruction) error {
	instruction.ID = uuid.NewString()
	instruction.Timestamp = c.clock.Now()

	data, err := c.json.Marshal(instruction)
	if err != nil {
		return fmt.Errorf("failed to marshal custody instruction: %w", err)
	}

	subject := fmt.Sprintf("custody.%s", instruction.Kind)
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish custody instruction: %w", err)
	}

	logger.DebugCtx(ctx, "Custody instruction queued",
		zap.String("id", instruction.ID),
		zap.String("kind", instruction.Kind))

	return nil
}

// TransferToken moves amount of mint from one address to another
func (c *jetStreamCustodian) TransferToken(ctx context.Context, mint, from, to string, amount uint64) error {
	return c.publish(ctx, Instruction{
		Kind:   InstructionTransferToken,
		Mint:   mint,
		From:   from,
		To:     to,
		Amount: amount,
	})
}

// MintToken mints amount of mint to an address
func (c *jetStreamCustodian) MintToken(ctx context.Context, mint, to string, amount uint64) error {
	return c.publish(ctx, Instruction{
		Kind:   InstructionMintToken,
		Mint:   mint,
		To:     to,
		Amount: amount,
	})
}

// TransferSol moves lamports between addresses
func (c *jetStreamCustodian) TransferSol(ctx context.Context, from, to string, lamports uint64) error {
	return c.publish(ctx, Instruction{
		Kind:   InstructionTransferSol,
		From:   from,
		To:     to,
		Amount: lamports,
	})
}

// LockNFT freeze-delegates a staked NFT inside the owner's wallet
func (c *jetStreamCustodian) LockNFT(ctx context.Context, nftMint, owner string) error {
	return c.publish(ctx, Instruction{
		Kind: InstructionLockNFT,
		Mint: nftMint,
		From: owner,
	})
}

// UnlockNFT lifts the freeze placed by LockNFT
func (c *jetStreamCustodian) UnlockNFT(ctx context.Context, nftMint, owner string) error {
	return c.publish(ctx, Instruction{
		Kind: InstructionUnlockNFT,
		Mint: nftMint,
		To:   owner,
	})
}

// EscrowNFT transfers a staked NFT into platform escrow
func (c *jetStreamCustodian) EscrowNFT(ctx context.Context, nftMint, owner string) error {
	return c.publish(ctx, Instruction{
		Kind: InstructionEscrowNFT,
		Mint: nftMint,
		From: owner,
	})
}

// ReleaseNFT returns an escrowed NFT to its owner
func (c *jetStreamCustodian) ReleaseNFT(ctx context.Context, nftMint, owner string) error {
	return c.publish(ctx, Instruction{
		Kind: InstructionReleaseNFT,
		Mint: nftMint,
		To:   owner,
	})
}

// SetMintAuthority reassigns a token mint's authority
func (c *jetStreamCustodian) SetMintAuthority(ctx context.Context, mint, newAuthority string) error {
	return c.publish(ctx, Instruction{
		Kind: InstructionSetMintAuthority,
		Mint: mint,
		To:   newAuthority,
	})
}
