package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// BlocklistRegistry defines the interface for blocklist operations
type BlocklistRegistry interface {
	// IsMintBlocked checks if an NFT or token mint address is blocked
	IsMintBlocked(mint string) bool

	// IsWalletBlocked checks if a wallet address is blocked
	IsWalletBlocked(address string) bool
}

// BlocklistData represents the structure of the blocklist.json file
type BlocklistData struct {
	// Mints lists NFT and token mint addresses that must not be staked or
	// configured as reward tokens
	Mints []string `json:"mints"`
	// Wallets lists wallet addresses barred from creating tenants
	Wallets []string `json:"wallets"`
}

// blocklistRegistry is the internal implementation of BlocklistRegistry
type blocklistRegistry struct {
	data *BlocklistData
	// Base58 addresses are case sensitive; no normalization on lookup
	mints   map[string]bool
	wallets map[string]bool
}

// LoadBlocklist loads the blocklist registry from a JSON file
func LoadBlocklist(filePath string) (BlocklistRegistry, error) {
	// Read the file using the absolute path
	data, err := os.ReadFile(filePath) //nolint:gosec,G304 // This should be a trusted file
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist file: %w", err)
	}

	// Parse JSON
	var blocklistData BlocklistData
	if err := json.Unmarshal(data, &blocklistData); err != nil {
		return nil, fmt.Errorf("failed to parse blocklist JSON: %w", err)
	}

	// Build lookup maps
	bl := &blocklistRegistry{
		data:    &blocklistData,
		mints:   make(map[string]bool),
		wallets: make(map[string]bool),
	}

	for _, mint := range blocklistData.Mints {
		bl.mints[mint] = true
	}
	for _, wallet := range blocklistData.Wallets {
		bl.wallets[wallet] = true
	}

	return bl, nil
}

// IsMintBlocked checks if an NFT or token mint address is blocked
func (b *blocklistRegistry) IsMintBlocked(mint string) bool {
	if b == nil {
		return false
	}
	return b.mints[mint]
}

// IsWalletBlocked checks if a wallet address is blocked
func (b *blocklistRegistry) IsWalletBlocked(address string) bool {
	if b == nil {
		return false
	}
	return b.wallets[address]
}
