package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

func seedDashboardData(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.School{Name: "Hilltop Academy", IsVerified: true}).Error)
	require.NoError(t, db.Create(&models.School{Name: "Riverside College", IsVerified: true}).Error)

	require.NoError(t, db.Create(&models.Teacher{UserID: 1, SchoolID: 1}).Error)
	require.NoError(t, db.Create(&models.Teacher{UserID: 2, SchoolID: 2}).Error)

	require.NoError(t, db.Create(&models.Class{SchoolID: 1, Name: "JSS 1A", GradeLevel: 7, Capacity: 40}).Error)

	parent := models.Parent{UserID: 3}
	require.NoError(t, db.Create(&parent).Error)
	classID := uint(1)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ClassID: &classID, ParentID: parent.ID, FullName: "Ada", AdmissionNo: "ADM-1"}).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 2, ParentID: parent.ID, FullName: "Obi", AdmissionNo: "ADM-2"}).Error)

	require.NoError(t, db.Create(&models.Approval{UserID: 9, SchoolID: 1, Role: models.RoleTeacher, Status: models.ApprovalPending}).Error)
}

func TestDashboardCountsForSchoolAdmin(t *testing.T) {
	db := openServiceDB(t)
	seedDashboardData(t, db)

	svc := NewDashboardService(repository.NewDashboardRepository(db), nil, time.Minute, zerolog.Nop())

	principal := tenant.Principal{UserID: 5, Role: models.RoleSchoolAdmin, SchoolID: 1}
	scope := tenant.Scope{SchoolIDs: []uint{1}}

	response, err := svc.GetDashboard(context.Background(), principal, scope)
	require.NoError(t, err)
	require.Zero(t, response.Schools) // only super admins see the tenant count
	require.EqualValues(t, 1, response.Students)
	require.EqualValues(t, 1, response.Teachers)
	require.EqualValues(t, 1, response.Classes)
	require.EqualValues(t, 1, response.PendingApprovals)
}

func TestDashboardCountsForSuperAdmin(t *testing.T) {
	db := openServiceDB(t)
	seedDashboardData(t, db)

	svc := NewDashboardService(repository.NewDashboardRepository(db), nil, time.Minute, zerolog.Nop())

	response, err := svc.GetDashboard(context.Background(), tenant.Principal{UserID: 1, Role: models.RoleSuperAdmin}, tenant.Scope{Unrestricted: true})
	require.NoError(t, err)
	require.EqualValues(t, 2, response.Schools)
	require.EqualValues(t, 2, response.Students)
	require.EqualValues(t, 2, response.Teachers)
}

func TestDashboardCaching(t *testing.T) {
	db := openServiceDB(t)
	seedDashboardData(t, db)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	svc := NewDashboardService(repository.NewDashboardRepository(db), cache, time.Minute, zerolog.Nop())

	principal := tenant.Principal{UserID: 5, Role: models.RoleSchoolAdmin, SchoolID: 1}
	scope := tenant.Scope{SchoolIDs: []uint{1}}

	first, err := svc.GetDashboard(context.Background(), principal, scope)
	require.NoError(t, err)
	require.EqualValues(t, 1, first.Students)
	require.True(t, mini.Exists("dashboard:SCHOOL_ADMIN:5:1"))

	// New rows are invisible until the cache entry expires.
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ParentID: 1, FullName: "Late", AdmissionNo: "ADM-3"}).Error)

	second, err := svc.GetDashboard(context.Background(), principal, scope)
	require.NoError(t, err)
	require.EqualValues(t, 1, second.Students)

	mini.FastForward(2 * time.Minute)

	third, err := svc.GetDashboard(context.Background(), principal, scope)
	require.NoError(t, err)
	require.EqualValues(t, 2, third.Students)
}

func TestDashboardCacheKeyedByNarrowedScope(t *testing.T) {
	db := openServiceDB(t)
	seedDashboardData(t, db)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	svc := NewDashboardService(repository.NewDashboardRepository(db), cache, time.Minute, zerolog.Nop())

	principal := tenant.Principal{UserID: 1, Role: models.RoleSuperAdmin}

	// A super admin drilled into school 1, then school 2 inside the TTL:
	// each narrowed view gets its own entry.
	schoolOne, err := svc.GetDashboard(context.Background(), principal, tenant.Scope{SchoolIDs: []uint{1}})
	require.NoError(t, err)
	require.EqualValues(t, 1, schoolOne.Students)

	schoolTwo, err := svc.GetDashboard(context.Background(), principal, tenant.Scope{SchoolIDs: []uint{2}})
	require.NoError(t, err)
	require.EqualValues(t, 1, schoolTwo.Students)
	require.EqualValues(t, 1, schoolTwo.Teachers)

	global, err := svc.GetDashboard(context.Background(), principal, tenant.Scope{Unrestricted: true})
	require.NoError(t, err)
	require.EqualValues(t, 2, global.Students)

	require.True(t, mini.Exists("dashboard:SUPER_ADMIN:1:1"))
	require.True(t, mini.Exists("dashboard:SUPER_ADMIN:1:2"))
	require.True(t, mini.Exists("dashboard:SUPER_ADMIN:1:all"))
}

func TestDashboardParentScope(t *testing.T) {
	db := openServiceDB(t)
	seedDashboardData(t, db)

	// A second family whose child must stay invisible.
	other := models.Parent{UserID: 8}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 1, ParentID: other.ID, FullName: "Neighbor", AdmissionNo: "ADM-9"}).Error)

	svc := NewDashboardService(repository.NewDashboardRepository(db), nil, time.Minute, zerolog.Nop())

	parentID := uint(1)
	scope := tenant.Scope{
		SchoolIDs:         []uint{1, 2},
		ClassIDs:          []uint{1},
		StudentIDs:        []uint{1, 2},
		OwnerParentID:     &parentID,
		IncludeSchoolWide: true,
	}

	response, err := svc.GetDashboard(context.Background(), tenant.Principal{UserID: 3, Role: models.RoleParent}, scope)
	require.NoError(t, err)
	require.EqualValues(t, 2, response.Students)
	require.Zero(t, response.PendingApprovals)
}
