package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/database"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestStudentListStaysInsideScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	classA := uintPtr(10)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: classA, ParentID: 1, FullName: "Ada Obi", AdmissionNo: "ADM-1"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: classA, ParentID: 2, FullName: "Bayo Musa", AdmissionNo: "ADM-2"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 2, ParentID: 3, FullName: "Chika Nwosu", AdmissionNo: "ADM-3"}).Error)

	students, total, err := repo.List(context.Background(), StudentFilter{Scope: tenant.Scope{SchoolIDs: []uint{1}}, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, students, 2)
	for _, s := range students {
		require.Equal(t, uint(1), s.SchoolID)
	}

	// Parents only see rows for their own children.
	parentScope := tenant.Scope{SchoolIDs: []uint{1}, OwnerParentID: uintPtr(2)}
	students, total, err = repo.List(context.Background(), StudentFilter{Scope: parentScope, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Bayo Musa", students[0].FullName)

	students, total, err = repo.List(context.Background(), StudentFilter{Scope: tenant.Scope{Deny: true}, PageSize: 10})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, students)
}

func TestStudentListSearchAndClassFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: uintPtr(10), ParentID: 1, FullName: "Ada Obi", AdmissionNo: "ADM-1"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: uintPtr(11), ParentID: 2, FullName: "Adaeze Bello", AdmissionNo: "ADM-2"}).Error)

	scope := tenant.Scope{SchoolIDs: []uint{1}}

	students, total, err := repo.List(context.Background(), StudentFilter{Scope: scope, Search: "ada", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	students, total, err = repo.List(context.Background(), StudentFilter{Scope: scope, Search: "ada", ClassID: 11, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Adaeze Bello", students[0].FullName)
}

func TestParentUserIDsByClassDeduplicatesSiblings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	parent := models.Parent{UserID: 40}
	require.NoError(t, db.Create(&parent).Error)
	other := models.Parent{UserID: 41}
	require.NoError(t, db.Create(&other).Error)

	classID := uintPtr(5)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: classID, ParentID: parent.ID, FullName: "First Twin", AdmissionNo: "ADM-1"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: classID, ParentID: parent.ID, FullName: "Second Twin", AdmissionNo: "ADM-2"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: classID, ParentID: other.ID, FullName: "Classmate", AdmissionNo: "ADM-3"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: uintPtr(6), ParentID: other.ID, FullName: "Other Class", AdmissionNo: "ADM-4"}).Error)

	ids, err := repo.ParentUserIDsByClass(context.Background(), 5)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{40, 41}, ids)
}

func TestDeviceTokenRevokeLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceTokenRepository(db)

	token := models.DeviceToken{UserID: 9, TokenID: "tok-1", Active: true, ExpiresAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, repo.Create(context.Background(), &token))

	require.NoError(t, repo.Revoke(context.Background(), "tok-1"))

	// Already revoked and unknown ids both report not found.
	require.ErrorIs(t, repo.Revoke(context.Background(), "tok-1"), gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Revoke(context.Background(), "tok-missing"), gorm.ErrRecordNotFound)

	_, err := repo.GetActiveByTokenID(context.Background(), "tok-1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
