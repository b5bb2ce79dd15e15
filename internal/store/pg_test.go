package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Initialize the database schema
	if err := Migrate(testDB); err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

func newTestStaker(t *testing.T, ctx context.Context, s Store) *schema.Staker {
	t.Helper()

	staker := &schema.Staker{
		Slug:          "tenant-" + uuid.NewString()[:8],
		Name:          "Test Tenant",
		Authority:     uuid.NewString(),
		Active:        true,
		Subscription:  domain.TierFree,
		NextPaymentAt: time.Now().Add(30 * 24 * time.Hour),
		StartDate:     time.Now(),
	}
	require.NoError(t, s.CreateStaker(ctx, staker))
	require.NotZero(t, staker.ID)
	return staker
}

func newTestCollection(t *testing.T, ctx context.Context, s Store, stakerID uint64) *schema.Collection {
	t.Helper()

	collection := &schema.Collection{
		StakerID:       stakerID,
		CollectionMint: uuid.NewString(),
		Active:         true,
		MaxStakers:     100,
		StartAt:        time.Now().Add(-time.Hour),
		EndAt:          time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, s.CreateCollection(ctx, collection))
	require.NotZero(t, collection.ID)
	return collection
}

func TestProgramConfigSingleton(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	cfg, err := s.GetProgramConfig(ctx)
	require.NoError(t, err)
	if cfg == nil {
		cfg = &schema.ProgramConfig{}
	}

	cfg.Authority = "auth-" + uuid.NewString()
	cfg.FeeSink = "sink-" + uuid.NewString()
	cfg.StakeFee = 5000
	cfg.UnstakeFee = 7000
	require.NoError(t, s.SaveProgramConfig(ctx, cfg))

	got, err := s.GetProgramConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, schema.ProgramConfigID, got.ID)
	require.Equal(t, cfg.Authority, got.Authority)
	require.Equal(t, uint64(5000), got.StakeFee)

	// Saving again must update the same row, not insert a second one
	cfg.StakeFee = 6000
	require.NoError(t, s.SaveProgramConfig(ctx, cfg))

	var count int64
	require.NoError(t, testDB.Model(&schema.ProgramConfig{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestStakerCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)

	got, err := s.GetStakerBySlug(ctx, staker.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, staker.ID, got.ID)
	require.Equal(t, staker.Authority, got.Authority)

	got.Name = "Renamed"
	prev := domain.TierPro
	got.PrevSubscription = &prev
	require.NoError(t, s.SaveStaker(ctx, got))

	reloaded, err := s.GetStakerByID(ctx, staker.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Equal(t, "Renamed", reloaded.Name)
	require.NotNil(t, reloaded.PrevSubscription)
	require.Equal(t, domain.TierPro, *reloaded.PrevSubscription)

	require.NoError(t, s.DeleteStaker(ctx, staker.ID))
	gone, err := s.GetStakerByID(ctx, staker.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestStakerSlugUnique(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)

	dup := &schema.Staker{
		Slug:          staker.Slug,
		Name:          "Duplicate",
		Authority:     uuid.NewString(),
		Subscription:  domain.TierFree,
		NextPaymentAt: time.Now(),
		StartDate:     time.Now(),
	}
	err := s.CreateStaker(ctx, dup)
	require.Error(t, err)
}

func TestGetStakerNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	got, err := s.GetStakerBySlug(ctx, "no-such-slug-"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestListStakersDue(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	now := time.Now()

	due := newTestStaker(t, ctx, s)
	due.Subscription = domain.TierPro
	due.NextPaymentAt = now.Add(-time.Hour)
	require.NoError(t, s.SaveStaker(ctx, due))

	notDue := newTestStaker(t, ctx, s)
	notDue.Subscription = domain.TierPro
	notDue.NextPaymentAt = now.Add(72 * time.Hour)
	require.NoError(t, s.SaveStaker(ctx, notDue))

	free := newTestStaker(t, ctx, s)
	free.NextPaymentAt = now.Add(-time.Hour)
	require.NoError(t, s.SaveStaker(ctx, free))

	stakers, err := s.ListStakersDue(ctx, now, 100)
	require.NoError(t, err)

	ids := make(map[uint64]bool)
	for _, st := range stakers {
		ids[st.ID] = true
	}
	require.True(t, ids[due.ID])
	require.False(t, ids[notDue.ID])
	require.False(t, ids[free.ID], "free tier tenants never come due")
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)
	collection := newTestCollection(t, ctx, s, staker.ID)

	byMint, err := s.GetCollectionByMint(ctx, staker.ID, collection.CollectionMint)
	require.NoError(t, err)
	require.NotNil(t, byMint)
	require.Equal(t, collection.ID, byMint.ID)

	count, err := s.CountCollectionsByStaker(ctx, staker.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	collections, err := s.ListCollectionsByStaker(ctx, staker.ID)
	require.NoError(t, err)
	require.Len(t, collections, 1)

	require.NoError(t, s.DeleteCollection(ctx, collection.ID))
	gone, err := s.GetCollectionByID(ctx, collection.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestEmissionAttachment(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)
	collection := newTestCollection(t, ctx, s, staker.ID)

	mint := uuid.NewString()
	emission := &schema.Emission{
		CollectionID: collection.ID,
		Kind:         domain.RewardToken,
		Active:       true,
		RewardRate:   10,
		StartAt:      time.Now(),
		TokenMint:    &mint,
		TokenVault:   true,
		VaultBalance: 360000,
	}
	require.NoError(t, s.CreateEmission(ctx, emission))

	collection.TokenEmissionID = &emission.ID
	require.NoError(t, s.SaveCollection(ctx, collection))

	emissions, err := s.ListEmissionsByCollection(ctx, collection.ID)
	require.NoError(t, err)
	require.Len(t, emissions, 1)
	require.Equal(t, uint64(360000), emissions[0].VaultBalance)

	ids, err := s.ListCollectionIDsByRewardMint(ctx, staker.ID, mint)
	require.NoError(t, err)
	require.Equal(t, []uint64{collection.ID}, ids)

	// A different mint must not match
	other, err := s.ListCollectionIDsByRewardMint(ctx, staker.ID, uuid.NewString())
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestStakeRecordUniqueMint(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)
	collection := newTestCollection(t, ctx, s, staker.ID)

	mint := uuid.NewString()
	record := &schema.StakeRecord{
		CollectionID: collection.ID,
		StakerID:     staker.ID,
		NftMint:      mint,
		Owner:        uuid.NewString(),
		StakedAt:     time.Now(),
	}
	require.NoError(t, s.CreateStakeRecord(ctx, record))

	// An NFT can hold at most one live stake record
	dup := &schema.StakeRecord{
		CollectionID: collection.ID,
		StakerID:     staker.ID,
		NftMint:      mint,
		Owner:        uuid.NewString(),
		StakedAt:     time.Now(),
	}
	require.Error(t, s.CreateStakeRecord(ctx, dup))

	// Releasing the record frees the mint for a fresh stake
	require.NoError(t, s.DeleteStakeRecord(ctx, record.ID))
	require.NoError(t, s.CreateStakeRecord(ctx, dup))
}

func TestAddNftRecordPoints(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)
	mint := uuid.NewString()

	require.NoError(t, s.AddNftRecordPoints(ctx, staker.ID, mint, 3600))
	require.NoError(t, s.AddNftRecordPoints(ctx, staker.ID, mint, 1800))

	record, err := s.GetNftRecord(ctx, staker.ID, mint)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, uint64(5400), record.Points)
}

func TestAddShareAmount(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)
	collection := newTestCollection(t, ctx, s, staker.ID)

	distribution := &schema.Distribution{
		CollectionID: collection.ID,
		EmissionID:   1,
		Label:        "airdrop",
	}
	require.NoError(t, s.CreateDistribution(ctx, distribution))

	mint := uuid.NewString()
	require.NoError(t, s.AddShareAmount(ctx, distribution.ID, mint, 100))
	require.NoError(t, s.AddShareAmount(ctx, distribution.ID, mint, 50))

	record, err := s.GetShareRecord(ctx, distribution.ID, mint)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, uint64(150), record.Amount)

	// Draining zeroes the row in place.
	record.Amount = 0
	require.NoError(t, s.SaveShareRecord(ctx, record))

	record, err = s.GetShareRecord(ctx, distribution.ID, mint)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, uint64(0), record.Amount)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx Store) error {
		got, err := tx.GetStakerByID(ctx, staker.ID)
		if err != nil {
			return err
		}
		got.Name = "should not persist"
		if err := tx.SaveStaker(ctx, got); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := s.GetStakerByID(ctx, staker.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Equal(t, staker.Name, reloaded.Name)
}

func TestAtomicCommits(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)

	err := s.Atomic(ctx, func(tx Store) error {
		got, err := tx.GetStakerByID(ctx, staker.ID)
		if err != nil {
			return err
		}
		got.NumberStaked = 7
		return tx.SaveStaker(ctx, got)
	})
	require.NoError(t, err)

	reloaded, err := s.GetStakerByID(ctx, staker.ID)
	require.NoError(t, err)
	require.Equal(t, uint32(7), reloaded.NumberStaked)
}

func TestWebhookEndpointsAndDeliveries(t *testing.T) {
	ctx := context.Background()
	s := NewPGStore(testDB)

	staker := newTestStaker(t, ctx, s)

	endpoint := &schema.WebhookEndpoint{
		StakerID:    staker.ID,
		URL:         "https://example.com/hooks",
		Secret:      uuid.NewString(),
		Active:      true,
		MaxAttempts: 3,
	}
	require.NoError(t, s.CreateWebhookEndpoint(ctx, endpoint))

	inactive := &schema.WebhookEndpoint{
		StakerID: staker.ID,
		URL:      "https://example.com/disabled",
		Secret:   uuid.NewString(),
		Active:   false,
	}
	require.NoError(t, s.CreateWebhookEndpoint(ctx, inactive))

	endpoints, err := s.ListActiveWebhookEndpoints(ctx, staker.ID)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	require.Equal(t, endpoint.ID, endpoints[0].ID)

	delivery := &schema.WebhookDelivery{
		EndpointID: endpoint.ID,
		EventID:    uuid.New(),
		EventType:  string(domain.EventTypeStakeCreated),
		Status:     schema.WebhookDeliveryStatusPending,
	}
	require.NoError(t, s.CreateWebhookDelivery(ctx, delivery))

	delivery.Status = schema.WebhookDeliveryStatusSuccess
	delivery.Attempts = 1
	now := time.Now()
	delivery.LastAttemptAt = &now
	require.NoError(t, s.SaveWebhookDelivery(ctx, delivery))
}
