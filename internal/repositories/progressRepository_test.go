package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"darsly/internal/database"
	"darsly/internal/models"
)

func mustStartMongoContainer() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	dbContainer, err := mongodb.Run(context.Background(), "mongo:latest")
	if err != nil {
		return nil, err
	}

	uri, err := dbContainer.ConnectionString(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	os.Setenv("MONGO_URI", uri)

	return dbContainer.Terminate, err
}

func TestMain(m *testing.M) {
	teardown, err := mustStartMongoContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not start mongodb container")
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatal().Err(err).Msg("Could not teardown mongodb container")
	}
}

func TestProgressRepositoryViewCap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := database.New()
	defer db.Close()

	repo := NewProgressRepository(db)
	ctx := context.Background()
	const maxViews = 2

	t.Run("increment stops at the cap", func(t *testing.T) {
		userID := primitive.NewObjectID()
		videoID := primitive.NewObjectID()

		_, err := repo.InsertFirstView(ctx, &models.Progress{UserID: userID, VideoID: videoID})
		require.NoError(t, err)

		row, err := repo.IncrementIfBelow(ctx, userID, videoID, maxViews, "fp", "10.0.0.1")
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, 2, row.ViewCount)

		// At the cap the conditional update matches nothing.
		row, err = repo.IncrementIfBelow(ctx, userID, videoID, maxViews, "fp", "10.0.0.1")
		require.NoError(t, err)
		assert.Nil(t, row)

		stored, err := repo.FindByUserAndVideo(ctx, userID, videoID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.ViewCount)
	})

	t.Run("duplicate first view hits the unique index", func(t *testing.T) {
		userID := primitive.NewObjectID()
		videoID := primitive.NewObjectID()

		_, err := repo.InsertFirstView(ctx, &models.Progress{UserID: userID, VideoID: videoID})
		require.NoError(t, err)

		_, err = repo.InsertFirstView(ctx, &models.Progress{UserID: userID, VideoID: videoID})
		assert.True(t, mongo.IsDuplicateKeyError(err))
	})

	t.Run("concurrent increments never pass the cap", func(t *testing.T) {
		userID := primitive.NewObjectID()
		videoID := primitive.NewObjectID()

		_, err := repo.InsertFirstView(ctx, &models.Progress{UserID: userID, VideoID: videoID})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var mu sync.Mutex
		granted := 0

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				row, err := repo.IncrementIfBelow(ctx, userID, videoID, maxViews, "", "")
				if err == nil && row != nil {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// One slot was left below the cap; exactly one racer gets it.
		assert.Equal(t, 1, granted)

		stored, err := repo.FindByUserAndVideo(ctx, userID, videoID)
		require.NoError(t, err)
		assert.Equal(t, maxViews, stored.ViewCount)
	})
}

func TestUserRepositoryClaimTOTPStep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := database.New()
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{
		ID:                primitive.NewObjectID(),
		Email:             primitive.NewObjectID().Hex() + "@example.com",
		Role:              models.RoleAdmin,
		TwoFactorEnabled:  true,
		TwoFactorLastStep: 1,
		CreatedAt:         time.Now(),
	}
	_, err := repo.Create(ctx, user)
	require.NoError(t, err)

	claimed, err := repo.ClaimTOTPStep(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Same step again: replay.
	claimed, err = repo.ClaimTOTPStep(ctx, user.ID, 100)
	require.NoError(t, err)
	assert.False(t, claimed)

	// Older step: also replay.
	claimed, err = repo.ClaimTOTPStep(ctx, user.ID, 99)
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = repo.ClaimTOTPStep(ctx, user.ID, 101)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestTempTokenRepositoryConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := database.New()
	defer db.Close()

	repo := NewTempTokenRepository(db)
	ctx := context.Background()

	token := &models.TempToken{
		JTI:       primitive.NewObjectID().Hex(),
		UserID:    primitive.NewObjectID(),
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, repo.Create(ctx, token))

	consumed, err := repo.Consume(ctx, token.JTI)
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = repo.Consume(ctx, token.JTI)
	require.NoError(t, err)
	assert.False(t, consumed)

	expired := &models.TempToken{
		JTI:       primitive.NewObjectID().Hex(),
		UserID:    primitive.NewObjectID(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Create(ctx, expired))

	consumed, err = repo.Consume(ctx, expired.JTI)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestOTPRepositoryInvalidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := database.New()
	defer db.Close()

	repo := NewOTPRepository(db)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	issue := func(code string) *models.OTP {
		otp, err := repo.Create(ctx, &models.OTP{
			UserID:    userID,
			Code:      code,
			Purpose:   models.OTPPurposeVerifyAccount,
			ExpiresAt: time.Now().Add(10 * time.Minute),
		})
		require.NoError(t, err)
		return otp
	}

	first := issue("111111")

	found, err := repo.FindValid(ctx, userID, first.Code, models.OTPPurposeVerifyAccount)
	require.NoError(t, err)
	require.NotNil(t, found)

	// Issuing a second code marks the first used.
	second := issue("222222")

	found, err = repo.FindValid(ctx, userID, first.Code, models.OTPPurposeVerifyAccount)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindValid(ctx, userID, second.Code, models.OTPPurposeVerifyAccount)
	require.NoError(t, err)
	require.NotNil(t, found)

	require.NoError(t, repo.MarkAsUsed(ctx, found.ID))

	found, err = repo.FindValid(ctx, userID, second.Code, models.OTPPurposeVerifyAccount)
	require.NoError(t, err)
	assert.Nil(t, found)

	// An expired code never matches, used or not.
	expired, err := repo.Create(ctx, &models.OTP{
		UserID:    userID,
		Code:      "333333",
		Purpose:   models.OTPPurposeVerifyAccount,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	found, err = repo.FindValid(ctx, userID, expired.Code, models.OTPPurposeVerifyAccount)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestEnrollmentRepositoryUniqueness(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := database.New()
	defer db.Close()

	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	lessonID := primitive.NewObjectID()

	_, err := repo.Create(ctx, &models.Enrollment{UserID: userID, LessonID: lessonID, PricePaid: 5000})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Enrollment{UserID: userID, LessonID: lessonID, PricePaid: 5000})
	assert.True(t, mongo.IsDuplicateKeyError(err))
}
