package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
)

func sampleProfile(contact, phone string) *domainAgent.StyleProfile {
	return &domainAgent.StyleProfile{
		Contact:          contact,
		Phone:            phone,
		RelationshipTier: "friend",
		Style: domainAgent.StyleTraits{
			Capitalization: "never",
			UsesPeriods:    false,
		},
		Behavior: domainAgent.StyleBehavior{
			MultiMessageTendency:    0.4,
			ResponseTimeMeanMinutes: 5,
			ResponseTimeStdMinutes:  3,
		},
	}
}

func TestStyleRepository_ExactLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewStyleRepository(db)

	require.NoError(t, repo.Save("+15551234567", sampleProfile("Alice", "+15551234567")))

	profile, err := repo.Load("+15551234567")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Alice", profile.Contact)
	assert.Equal(t, "never", profile.Style.Capitalization)
}

func TestStyleRepository_FallbackByContactName(t *testing.T) {
	db := newTestDB(t)
	repo := NewStyleRepository(db)

	// 存储键为电话，按显示名查询应通过回退扫描命中
	require.NoError(t, repo.Save("+15551234567", sampleProfile("Alice Chen", "+15551234567")))

	profile, err := repo.Load("alice chen")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Alice Chen", profile.Contact)
}

func TestStyleRepository_FallbackByPhoneFormatting(t *testing.T) {
	db := newTestDB(t)
	repo := NewStyleRepository(db)

	// 画像里的电话带格式字符，归一化后应当匹配
	require.NoError(t, repo.Save("alice", sampleProfile("Alice", "+1 (555) 123-4567")))

	profile, err := repo.Load("+15551234567")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Alice", profile.Contact)
}

func TestStyleRepository_MissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewStyleRepository(db)

	profile, err := repo.Load("+19990000000")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestStyleRepository_Overwrite(t *testing.T) {
	db := newTestDB(t)
	repo := NewStyleRepository(db)

	require.NoError(t, repo.Save("alice", sampleProfile("Alice", "")))
	updated := sampleProfile("Alice", "")
	updated.RelationshipTier = "close_friend"
	require.NoError(t, repo.Save("alice", updated))

	profile, err := repo.Load("alice")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "close_friend", profile.RelationshipTier)
}
