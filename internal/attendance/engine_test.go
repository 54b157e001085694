package attendance

import (
	"encoding/json"
	"fmt"
	"testing"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/models"
	"routemeet/backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-qr-secret"

type fixture struct {
	db        *gorm.DB
	engine    *Engine
	organizer models.User
	attendee  models.User
	event     models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{db: db, engine: NewEngine(db, testSecret)}

	f.organizer = f.createUser(t, "organizer", models.GenderOther)
	f.attendee = f.createUser(t, "attendee", models.GenderFemale)

	f.event = models.Event{
		AuthorID: f.organizer.ID,
		Text:     "Sunset ride along the river",
		Type:     models.EventTypeSport,
	}
	require.NoError(t, db.Create(&f.event).Error)

	f.register(t, f.attendee)
	return f
}

func (f *fixture) createUser(t *testing.T, name string, gender models.Gender) models.User {
	t.Helper()
	u := models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		FirstName:    name,
		LastName:     "Test",
		Gender:       gender,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) register(t *testing.T, u models.User) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Inscription{
		UserID:  u.ID,
		EventID: f.event.ID,
	}).Error)
}

func TestGenerateToken(t *testing.T) {
	f := newFixture(t)

	t.Run("issues a signed payload for a registered user", func(t *testing.T) {
		token, err := f.engine.GenerateToken(f.event.ID, f.attendee.ID)
		require.NoError(t, err)

		var payload TokenPayload
		require.NoError(t, json.Unmarshal([]byte(token.QRCodeData), &payload))
		assert.Equal(t, f.event.ID, payload.EventID)
		assert.Equal(t, f.attendee.ID, payload.UserID)
		assert.Equal(t, fmt.Sprintf("%s_%s", f.attendee.ID, f.event.ID), payload.InscriptionID)
		assert.NotEmpty(t, payload.Signature)
		assert.NotEmpty(t, token.QRImageBase64)
	})

	t.Run("unregistered user is rejected", func(t *testing.T) {
		stranger := f.createUser(t, "stranger", models.GenderMale)
		_, err := f.engine.GenerateToken(f.event.ID, stranger.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotRegistered)
	})

	t.Run("unknown event is rejected", func(t *testing.T) {
		_, err := f.engine.GenerateToken("00000000-0000-0000-0000-000000000000", f.attendee.ID)
		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})
}

func TestVerify(t *testing.T) {
	f := newFixture(t)

	token, err := f.engine.GenerateToken(f.event.ID, f.attendee.ID)
	require.NoError(t, err)

	t.Run("malformed payload", func(t *testing.T) {
		_, err := f.engine.Verify("not json", f.organizer.ID, nil, nil, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQRFormat)
	})

	t.Run("tampered field invalidates the signature", func(t *testing.T) {
		var payload TokenPayload
		require.NoError(t, json.Unmarshal([]byte(token.QRCodeData), &payload))
		payload.UserID = f.organizer.ID
		tampered, err := json.Marshal(payload)
		require.NoError(t, err)

		_, err = f.engine.Verify(string(tampered), f.organizer.ID, nil, nil, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQRSignature)
	})

	t.Run("token from another secret is rejected", func(t *testing.T) {
		other := NewEngine(f.db, "different-secret")
		foreign, err := other.GenerateToken(f.event.ID, f.attendee.ID)
		require.NoError(t, err)

		_, err = f.engine.Verify(foreign.QRCodeData, f.organizer.ID, nil, nil, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQRSignature)
	})

	t.Run("first scan verifies and flips the inscription", func(t *testing.T) {
		lat, lng := 40.4168, -3.7038
		notes := "main gate"
		res, err := f.engine.Verify(token.QRCodeData, f.organizer.ID, &lat, &lng, &notes)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.False(t, res.AlreadyVerified)
		assert.NotEmpty(t, res.VerificationID)
		assert.Equal(t, f.attendee.FullName(), res.UserName)

		var inscription models.Inscription
		require.NoError(t, f.db.First(&inscription, "user_id = ? AND event_id = ?", f.attendee.ID, f.event.ID).Error)
		assert.Equal(t, models.AttendanceAttended, inscription.Attendance)
	})

	t.Run("second scan is a soft already-verified result", func(t *testing.T) {
		res, err := f.engine.Verify(token.QRCodeData, f.organizer.ID, nil, nil, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.True(t, res.AlreadyVerified)
	})

	t.Run("a fresh token for the same inscription is also consumed", func(t *testing.T) {
		fresh, err := f.engine.GenerateToken(f.event.ID, f.attendee.ID)
		require.NoError(t, err)

		res, err := f.engine.Verify(fresh.QRCodeData, f.organizer.ID, nil, nil, nil)
		require.NoError(t, err)
		assert.True(t, res.AlreadyVerified)
	})

	t.Run("only one audit row exists", func(t *testing.T) {
		var count int64
		require.NoError(t, f.db.Model(&models.AttendanceVerification{}).
			Where("user_id = ? AND event_id = ?", f.attendee.ID, f.event.ID).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	token, err := f.engine.GenerateToken(f.event.ID, f.attendee.ID)
	require.NoError(t, err)
	_, err = f.engine.Verify(token.QRCodeData, f.organizer.ID, nil, nil, nil)
	require.NoError(t, err)

	t.Run("only the organizer may read it", func(t *testing.T) {
		_, err := f.engine.History(f.event.ID, f.attendee.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotOrganizer)
	})

	t.Run("organizer sees resolved records", func(t *testing.T) {
		records, err := f.engine.History(f.event.ID, f.organizer.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, f.attendee.ID, records[0].UserID)
		assert.Equal(t, f.organizer.ID, records[0].VerifierID)
		assert.Equal(t, f.attendee.FullName(), records[0].UserName)
		assert.Equal(t, f.organizer.FullName(), records[0].VerifierName)
	})
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)

	// Second registrant who never shows up.
	absent := f.createUser(t, "absent", models.GenderMale)
	f.register(t, absent)

	token, err := f.engine.GenerateToken(f.event.ID, f.attendee.ID)
	require.NoError(t, err)
	_, err = f.engine.Verify(token.QRCodeData, f.organizer.ID, nil, nil, nil)
	require.NoError(t, err)

	t.Run("only the organizer may read them", func(t *testing.T) {
		_, err := f.engine.Statistics(f.event.ID, f.attendee.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotOrganizer)
	})

	t.Run("totals and gender breakdown", func(t *testing.T) {
		stats, err := f.engine.Statistics(f.event.ID, f.organizer.ID)
		require.NoError(t, err)

		assert.EqualValues(t, 2, stats.TotalRegistered)
		assert.EqualValues(t, 1, stats.TotalAttended)
		assert.EqualValues(t, 0, stats.TotalDidNotAttend)
		assert.Equal(t, 50.0, stats.AttendanceRate)
		assert.Equal(t, 1, stats.ByGender.Female)
		assert.Equal(t, 1, stats.ByGender.Male)

		require.Len(t, stats.ByDay, 1)
		assert.Equal(t, 1, stats.ByDay[0].Attended)
		require.Len(t, stats.ByHour, 1)
		assert.Equal(t, 1, stats.ByHour[0].Count)
		assert.Equal(t, 100.0, stats.ByHour[0].Percentage)
	})
}
