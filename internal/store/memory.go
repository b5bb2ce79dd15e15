package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// memoryStore is an in-process Store used by engine tests. It honors the same
// semantics as the PostgreSQL store, including rollback on Atomic failure.
type memoryStore struct {
	mu *sync.Mutex
	// inTx skips locking when the store is the transaction view handed to an
	// Atomic callback; the outer call already holds the mutex
	inTx bool
	data *memoryData
}

type memoryData struct {
	programConfig     *schema.ProgramConfig
	stakers           map[uint64]schema.Staker
	collections       map[uint64]schema.Collection
	emissions         map[uint64]schema.Emission
	stakeRecords      map[uint64]schema.StakeRecord
	nftRecords        map[uint64]schema.NftRecord
	distributions     map[uint64]schema.Distribution
	shareRecords      map[uint64]schema.ShareRecord
	webhookEndpoints  map[uint64]schema.WebhookEndpoint
	webhookDeliveries map[uint64]schema.WebhookDelivery
	nextID            uint64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		mu:   &sync.Mutex{},
		data: newMemoryData(),
	}
}

func newMemoryData() *memoryData {
	return &memoryData{
		stakers:           make(map[uint64]schema.Staker),
		collections:       make(map[uint64]schema.Collection),
		emissions:         make(map[uint64]schema.Emission),
		stakeRecords:      make(map[uint64]schema.StakeRecord),
		nftRecords:        make(map[uint64]schema.NftRecord),
		distributions:     make(map[uint64]schema.Distribution),
		shareRecords:      make(map[uint64]schema.ShareRecord),
		webhookEndpoints:  make(map[uint64]schema.WebhookEndpoint),
		webhookDeliveries: make(map[uint64]schema.WebhookDelivery),
		nextID:            1,
	}
}

func (d *memoryData) snapshot() *memoryData {
	cp := &memoryData{
		stakers:           make(map[uint64]schema.Staker, len(d.stakers)),
		collections:       make(map[uint64]schema.Collection, len(d.collections)),
		emissions:         make(map[uint64]schema.Emission, len(d.emissions)),
		stakeRecords:      make(map[uint64]schema.StakeRecord, len(d.stakeRecords)),
		nftRecords:        make(map[uint64]schema.NftRecord, len(d.nftRecords)),
		distributions:     make(map[uint64]schema.Distribution, len(d.distributions)),
		shareRecords:      make(map[uint64]schema.ShareRecord, len(d.shareRecords)),
		webhookEndpoints:  make(map[uint64]schema.WebhookEndpoint, len(d.webhookEndpoints)),
		webhookDeliveries: make(map[uint64]schema.WebhookDelivery, len(d.webhookDeliveries)),
		nextID:            d.nextID,
	}
	if d.programConfig != nil {
		cfg := *d.programConfig
		cp.programConfig = &cfg
	}
	for k, v := range d.stakers {
		cp.stakers[k] = v
	}
	for k, v := range d.collections {
		cp.collections[k] = v
	}
	for k, v := range d.emissions {
		cp.emissions[k] = v
	}
	for k, v := range d.stakeRecords {
		cp.stakeRecords[k] = v
	}
	for k, v := range d.nftRecords {
		cp.nftRecords[k] = v
	}
	for k, v := range d.distributions {
		cp.distributions[k] = v
	}
	for k, v := range d.shareRecords {
		cp.shareRecords[k] = v
	}
	for k, v := range d.webhookEndpoints {
		cp.webhookEndpoints[k] = v
	}
	for k, v := range d.webhookDeliveries {
		cp.webhookDeliveries[k] = v
	}
	return cp
}

func (s *memoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memoryStore) allocID() uint64 {
	id := s.data.nextID
	s.data.nextID++
	return id
}

// Atomic runs fn against a transaction view; any error restores the state
// captured before fn ran
func (s *memoryStore) Atomic(_ context.Context, fn func(tx Store) error) error {
	unlock := s.lock()
	defer unlock()

	snapshot := s.data.snapshot()
	tx := &memoryStore{mu: s.mu, inTx: true, data: s.data}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *memoryStore) GetProgramConfig(_ context.Context) (*schema.ProgramConfig, error) {
	unlock := s.lock()
	defer unlock()

	if s.data.programConfig == nil {
		return nil, nil
	}
	cfg := *s.data.programConfig
	return &cfg, nil
}

func (s *memoryStore) SaveProgramConfig(_ context.Context, cfg *schema.ProgramConfig) error {
	unlock := s.lock()
	defer unlock()

	cfg.ID = schema.ProgramConfigID
	cp := *cfg
	s.data.programConfig = &cp
	return nil
}

func (s *memoryStore) CreateStaker(_ context.Context, staker *schema.Staker) error {
	unlock := s.lock()
	defer unlock()

	if staker.ID == 0 {
		staker.ID = s.allocID()
	}
	if staker.CreatedAt.IsZero() {
		staker.CreatedAt = time.Now()
	}
	s.data.stakers[staker.ID] = *staker
	return nil
}

func (s *memoryStore) GetStakerByID(_ context.Context, id uint64) (*schema.Staker, error) {
	unlock := s.lock()
	defer unlock()

	staker, ok := s.data.stakers[id]
	if !ok {
		return nil, nil
	}
	return &staker, nil
}

func (s *memoryStore) GetStakerBySlug(_ context.Context, slug string) (*schema.Staker, error) {
	unlock := s.lock()
	defer unlock()

	for _, staker := range s.data.stakers {
		if staker.Slug == slug {
			cp := staker
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) SaveStaker(_ context.Context, staker *schema.Staker) error {
	unlock := s.lock()
	defer unlock()

	if staker.ID == 0 {
		staker.ID = s.allocID()
	}
	staker.UpdatedAt = time.Now()
	s.data.stakers[staker.ID] = *staker
	return nil
}

func (s *memoryStore) DeleteStaker(_ context.Context, id uint64) error {
	unlock := s.lock()
	defer unlock()

	delete(s.data.stakers, id)
	return nil
}

func (s *memoryStore) ListStakersDue(_ context.Context, cutoff time.Time, limit int) ([]*schema.Staker, error) {
	unlock := s.lock()
	defer unlock()

	var due []*schema.Staker
	for _, staker := range s.data.stakers {
		if staker.Active && staker.Subscription != domain.TierFree && !staker.NextPaymentAt.After(cutoff) {
			cp := staker
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextPaymentAt.Before(due[j].NextPaymentAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memoryStore) CountCollectionsByStaker(_ context.Context, stakerID uint64) (int64, error) {
	unlock := s.lock()
	defer unlock()

	var count int64
	for _, collection := range s.data.collections {
		if collection.StakerID == stakerID {
			count++
		}
	}
	return count, nil
}

func (s *memoryStore) CreateCollection(_ context.Context, collection *schema.Collection) error {
	unlock := s.lock()
	defer unlock()

	if collection.ID == 0 {
		collection.ID = s.allocID()
	}
	s.data.collections[collection.ID] = *collection
	return nil
}

func (s *memoryStore) GetCollectionByID(_ context.Context, id uint64) (*schema.Collection, error) {
	unlock := s.lock()
	defer unlock()

	collection, ok := s.data.collections[id]
	if !ok {
		return nil, nil
	}
	return &collection, nil
}

func (s *memoryStore) GetCollectionByMint(_ context.Context, stakerID uint64, mint string) (*schema.Collection, error) {
	unlock := s.lock()
	defer unlock()

	for _, collection := range s.data.collections {
		if collection.StakerID == stakerID && collection.CollectionMint == mint {
			cp := collection
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListCollectionsByStaker(_ context.Context, stakerID uint64) ([]*schema.Collection, error) {
	unlock := s.lock()
	defer unlock()

	var collections []*schema.Collection
	for _, collection := range s.data.collections {
		if collection.StakerID == stakerID {
			cp := collection
			collections = append(collections, &cp)
		}
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].ID < collections[j].ID })
	return collections, nil
}

func (s *memoryStore) ListCollectionIDsByRewardMint(_ context.Context, stakerID uint64, mint string) ([]uint64, error) {
	unlock := s.lock()
	defer unlock()

	seen := make(map[uint64]bool)
	var ids []uint64
	for _, emission := range s.data.emissions {
		if emission.Kind != domain.RewardToken || emission.TokenMint == nil || *emission.TokenMint != mint {
			continue
		}
		collection, ok := s.data.collections[emission.CollectionID]
		if !ok || collection.StakerID != stakerID || seen[collection.ID] {
			continue
		}
		seen[collection.ID] = true
		ids = append(ids, collection.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memoryStore) SaveCollection(_ context.Context, collection *schema.Collection) error {
	unlock := s.lock()
	defer unlock()

	if collection.ID == 0 {
		collection.ID = s.allocID()
	}
	collection.UpdatedAt = time.Now()
	s.data.collections[collection.ID] = *collection
	return nil
}

func (s *memoryStore) DeleteCollection(_ context.Context, id uint64) error {
	unlock := s.lock()
	defer unlock()

	delete(s.data.collections, id)
	return nil
}

func (s *memoryStore) CreateEmission(_ context.Context, emission *schema.Emission) error {
	unlock := s.lock()
	defer unlock()

	if emission.ID == 0 {
		emission.ID = s.allocID()
	}
	s.data.emissions[emission.ID] = *emission
	return nil
}

func (s *memoryStore) GetEmissionByID(_ context.Context, id uint64) (*schema.Emission, error) {
	unlock := s.lock()
	defer unlock()

	emission, ok := s.data.emissions[id]
	if !ok {
		return nil, nil
	}
	return &emission, nil
}

func (s *memoryStore) ListEmissionsByCollection(_ context.Context, collectionID uint64) ([]*schema.Emission, error) {
	unlock := s.lock()
	defer unlock()

	var emissions []*schema.Emission
	for _, emission := range s.data.emissions {
		if emission.CollectionID == collectionID {
			cp := emission
			emissions = append(emissions, &cp)
		}
	}
	sort.Slice(emissions, func(i, j int) bool { return emissions[i].ID < emissions[j].ID })
	return emissions, nil
}

func (s *memoryStore) SaveEmission(_ context.Context, emission *schema.Emission) error {
	unlock := s.lock()
	defer unlock()

	if emission.ID == 0 {
		emission.ID = s.allocID()
	}
	emission.UpdatedAt = time.Now()
	s.data.emissions[emission.ID] = *emission
	return nil
}

func (s *memoryStore) DeleteEmission(_ context.Context, id uint64) error {
	unlock := s.lock()
	defer unlock()

	delete(s.data.emissions, id)
	return nil
}

func (s *memoryStore) CreateStakeRecord(_ context.Context, record *schema.StakeRecord) error {
	unlock := s.lock()
	defer unlock()

	if record.ID == 0 {
		record.ID = s.allocID()
	}
	s.data.stakeRecords[record.ID] = *record
	return nil
}

func (s *memoryStore) GetStakeRecordByMint(_ context.Context, nftMint string) (*schema.StakeRecord, error) {
	unlock := s.lock()
	defer unlock()

	for _, record := range s.data.stakeRecords {
		if record.NftMint == nftMint {
			cp := record
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListStakeRecordsByCollection(_ context.Context, collectionID uint64) ([]*schema.StakeRecord, error) {
	unlock := s.lock()
	defer unlock()

	var records []*schema.StakeRecord
	for _, record := range s.data.stakeRecords {
		if record.CollectionID == collectionID {
			cp := record
			records = append(records, &cp)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *memoryStore) SaveStakeRecord(_ context.Context, record *schema.StakeRecord) error {
	unlock := s.lock()
	defer unlock()

	if record.ID == 0 {
		record.ID = s.allocID()
	}
	record.UpdatedAt = time.Now()
	s.data.stakeRecords[record.ID] = *record
	return nil
}

func (s *memoryStore) DeleteStakeRecord(_ context.Context, id uint64) error {
	unlock := s.lock()
	defer unlock()

	delete(s.data.stakeRecords, id)
	return nil
}

func (s *memoryStore) GetNftRecord(_ context.Context, stakerID uint64, nftMint string) (*schema.NftRecord, error) {
	unlock := s.lock()
	defer unlock()

	for _, record := range s.data.nftRecords {
		if record.StakerID == stakerID && record.NftMint == nftMint {
			cp := record
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) AddNftRecordPoints(_ context.Context, stakerID uint64, nftMint string, points uint64) error {
	unlock := s.lock()
	defer unlock()

	for id, record := range s.data.nftRecords {
		if record.StakerID == stakerID && record.NftMint == nftMint {
			record.Points += points
			record.UpdatedAt = time.Now()
			s.data.nftRecords[id] = record
			return nil
		}
	}
	id := s.allocID()
	s.data.nftRecords[id] = schema.NftRecord{
		ID:       id,
		StakerID: stakerID,
		NftMint:  nftMint,
		Points:   points,
	}
	return nil
}

func (s *memoryStore) CreateDistribution(_ context.Context, distribution *schema.Distribution) error {
	unlock := s.lock()
	defer unlock()

	if distribution.ID == 0 {
		distribution.ID = s.allocID()
	}
	s.data.distributions[distribution.ID] = *distribution
	return nil
}

func (s *memoryStore) GetDistributionByID(_ context.Context, id uint64) (*schema.Distribution, error) {
	unlock := s.lock()
	defer unlock()

	distribution, ok := s.data.distributions[id]
	if !ok {
		return nil, nil
	}
	return &distribution, nil
}

func (s *memoryStore) SaveDistribution(_ context.Context, distribution *schema.Distribution) error {
	unlock := s.lock()
	defer unlock()

	if distribution.ID == 0 {
		distribution.ID = s.allocID()
	}
	distribution.UpdatedAt = time.Now()
	s.data.distributions[distribution.ID] = *distribution
	return nil
}

func (s *memoryStore) ListDistributionsByCollection(_ context.Context, collectionID uint64) ([]*schema.Distribution, error) {
	unlock := s.lock()
	defer unlock()

	var distributions []*schema.Distribution
	for _, distribution := range s.data.distributions {
		if distribution.CollectionID == collectionID {
			cp := distribution
			distributions = append(distributions, &cp)
		}
	}
	sort.Slice(distributions, func(i, j int) bool { return distributions[i].ID < distributions[j].ID })
	return distributions, nil
}

func (s *memoryStore) AddShareAmount(_ context.Context, distributionID uint64, nftMint string, amount uint64) error {
	unlock := s.lock()
	defer unlock()

	for id, record := range s.data.shareRecords {
		if record.DistributionID == distributionID && record.NftMint == nftMint {
			record.Amount += amount
			record.UpdatedAt = time.Now()
			s.data.shareRecords[id] = record
			return nil
		}
	}
	id := s.allocID()
	s.data.shareRecords[id] = schema.ShareRecord{
		ID:             id,
		DistributionID: distributionID,
		NftMint:        nftMint,
		Amount:         amount,
	}
	return nil
}

func (s *memoryStore) SaveShareRecord(_ context.Context, record *schema.ShareRecord) error {
	unlock := s.lock()
	defer unlock()

	if record.ID == 0 {
		record.ID = s.allocID()
	}
	record.UpdatedAt = time.Now()
	s.data.shareRecords[record.ID] = *record
	return nil
}

func (s *memoryStore) GetShareRecord(_ context.Context, distributionID uint64, nftMint string) (*schema.ShareRecord, error) {
	unlock := s.lock()
	defer unlock()

	for _, record := range s.data.shareRecords {
		if record.DistributionID == distributionID && record.NftMint == nftMint {
			cp := record
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) CreateWebhookEndpoint(_ context.Context, endpoint *schema.WebhookEndpoint) error {
	unlock := s.lock()
	defer unlock()

	if endpoint.ID == 0 {
		endpoint.ID = s.allocID()
	}
	s.data.webhookEndpoints[endpoint.ID] = *endpoint
	return nil
}

func (s *memoryStore) ListActiveWebhookEndpoints(_ context.Context, stakerID uint64) ([]*schema.WebhookEndpoint, error) {
	unlock := s.lock()
	defer unlock()

	var endpoints []*schema.WebhookEndpoint
	for _, endpoint := range s.data.webhookEndpoints {
		if endpoint.StakerID == stakerID && endpoint.Active {
			cp := endpoint
			endpoints = append(endpoints, &cp)
		}
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].ID < endpoints[j].ID })
	return endpoints, nil
}

func (s *memoryStore) CreateWebhookDelivery(_ context.Context, delivery *schema.WebhookDelivery) error {
	unlock := s.lock()
	defer unlock()

	if delivery.ID == 0 {
		delivery.ID = s.allocID()
	}
	s.data.webhookDeliveries[delivery.ID] = *delivery
	return nil
}

func (s *memoryStore) SaveWebhookDelivery(_ context.Context, delivery *schema.WebhookDelivery) error {
	unlock := s.lock()
	defer unlock()

	if delivery.ID == 0 {
		delivery.ID = s.allocID()
	}
	delivery.UpdatedAt = time.Now()
	s.data.webhookDeliveries[delivery.ID] = *delivery
	return nil
}

func (s *memoryStore) ListWebhookDeliveries(_ context.Context, endpointID uint64, limit int) ([]*schema.WebhookDelivery, error) {
	unlock := s.lock()
	defer unlock()

	var deliveries []*schema.WebhookDelivery
	for _, delivery := range s.data.webhookDeliveries {
		if delivery.EndpointID == endpointID {
			d := delivery
			deliveries = append(deliveries, &d)
		}
	}
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].ID > deliveries[j].ID })
	if limit > 0 && len(deliveries) > limit {
		deliveries = deliveries[:limit]
	}
	return deliveries, nil
}
