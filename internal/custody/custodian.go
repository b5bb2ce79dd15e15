// Package custody abstracts the on-chain side effects of staking operations.
// The engine decides what moves; a Custodian carries it out through the
// wallet infrastructure, synchronously acknowledging acceptance.
package custody

import (
	"context"
	"time"
)

// Instruction kinds understood by the wallet workers.
const (
	InstructionTransferToken    = "transfer_token"
	InstructionMintToken        = "mint_token"
	InstructionTransferSol      = "transfer_sol"
	InstructionLockNFT          = "lock_nft"
	InstructionUnlockNFT        = "unlock_nft"
	InstructionEscrowNFT        = "escrow_nft"
	InstructionReleaseNFT       = "release_nft"
	InstructionSetMintAuthority = "set_mint_authority"
)

// Instruction is the wire format handed to the wallet workers.
type Instruction struct {
	// ID is a unique identifier for idempotent execution
	ID string `json:"id"`
	// Kind selects the operation
	Kind string `json:"kind"`
	// Mint is the token or NFT mint the instruction acts on
	Mint string `json:"mint,omitempty"`
	// From is the funding or escrowing address
	From string `json:"from,omitempty"`
	// To is the receiving address or new authority
	To string `json:"to,omitempty"`
	// Amount is the token amount or lamports moved
	Amount uint64 `json:"amount,omitempty"`
	// Timestamp is when the engine issued the instruction
	Timestamp time.Time `json:"timestamp"`
}

// Custodian executes on-chain movements on behalf of the engine. An error
// from any method aborts the surrounding operation, so implementations must
// not acknowledge instructions they cannot guarantee to execute.
type Custodian interface {
	// TransferToken moves amount of mint from one address to another
	TransferToken(ctx context.Context, mint, from, to string, amount uint64) error
	// MintToken mints amount of mint to an address using the handed-over
	// mint authority
	MintToken(ctx context.Context, mint, to string, amount uint64) error
	// TransferSol moves lamports between addresses
	TransferSol(ctx context.Context, from, to string, lamports uint64) error
	// LockNFT freeze-delegates a staked NFT inside the owner's wallet
	LockNFT(ctx context.Context, nftMint, owner string) error
	// UnlockNFT lifts the freeze placed by LockNFT
	UnlockNFT(ctx context.Context, nftMint, owner string) error
	// EscrowNFT transfers a staked NFT into platform escrow
	EscrowNFT(ctx context.Context, nftMint, owner string) error
	// ReleaseNFT returns an escrowed NFT to its owner
	ReleaseNFT(ctx context.Context, nftMint, owner string) error
	// SetMintAuthority reassigns a token mint's authority
	SetMintAuthority(ctx context.Context, mint, newAuthority string) error
}
