package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// ProfileRepository resolves role profile rows by their owning user. It also
// backs the tenant directory used for indirect (parent/teacher) scoping.
type ProfileRepository interface {
	TeacherByUserID(ctx context.Context, userID uint) (models.Teacher, error)
	TeacherByID(ctx context.Context, id uint) (models.Teacher, error)
	PrincipalByUserID(ctx context.Context, userID uint) (models.Principal, error)
	SchoolAdminByUserID(ctx context.Context, userID uint) (models.SchoolAdmin, error)
	ParentByUserID(ctx context.Context, userID uint) (models.Parent, error)
	ParentByID(ctx context.Context, id uint) (models.Parent, error)
	ChildrenByParentID(ctx context.Context, parentID uint) ([]models.Student, error)
	SchoolIDForUser(ctx context.Context, user models.User) (uint, error)
	UserIDsByRoleAndSchools(ctx context.Context, role models.UserRole, schoolIDs []uint) ([]uint, error)
	UserIDsWithinSchools(ctx context.Context, userIDs, schoolIDs []uint) ([]uint, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates a GORM-backed repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) TeacherByUserID(ctx context.Context, userID uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *profileRepository) TeacherByID(ctx context.Context, id uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, id).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *profileRepository) PrincipalByUserID(ctx context.Context, userID uint) (models.Principal, error) {
	var principal models.Principal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&principal).Error; err != nil {
		return models.Principal{}, err
	}
	return principal, nil
}

func (r *profileRepository) SchoolAdminByUserID(ctx context.Context, userID uint) (models.SchoolAdmin, error) {
	var admin models.SchoolAdmin
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error; err != nil {
		return models.SchoolAdmin{}, err
	}
	return admin, nil
}

func (r *profileRepository) ParentByUserID(ctx context.Context, userID uint) (models.Parent, error) {
	var parent models.Parent
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&parent).Error; err != nil {
		return models.Parent{}, err
	}
	return parent, nil
}

func (r *profileRepository) ParentByID(ctx context.Context, id uint) (models.Parent, error) {
	var parent models.Parent
	if err := r.db.WithContext(ctx).First(&parent, id).Error; err != nil {
		return models.Parent{}, err
	}
	return parent, nil
}

func (r *profileRepository) ChildrenByParentID(ctx context.Context, parentID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// SchoolIDForUser resolves the tenant of a user through its role profile.
// Tenant-independent roles resolve to zero.
func (r *profileRepository) SchoolIDForUser(ctx context.Context, user models.User) (uint, error) {
	switch user.Role {
	case models.RoleSchoolAdmin:
		admin, err := r.SchoolAdminByUserID(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return admin.SchoolID, nil
	case models.RolePrincipal:
		principal, err := r.PrincipalByUserID(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return principal.SchoolID, nil
	case models.RoleTeacher:
		teacher, err := r.TeacherByUserID(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return teacher.SchoolID, nil
	default:
		return 0, nil
	}
}

// UserIDsByRoleAndSchools resolves the user ids holding the given role within
// the given tenants. Parents are reached through their children's schools.
// An empty school list means no tenant restriction.
func (r *profileRepository) UserIDsByRoleAndSchools(ctx context.Context, role models.UserRole, schoolIDs []uint) ([]uint, error) {
	db := r.db.WithContext(ctx)
	var userIDs []uint

	switch role {
	case models.RoleSchoolAdmin:
		query := db.Model(&models.SchoolAdmin{})
		if len(schoolIDs) > 0 {
			query = query.Where("school_id IN ?", schoolIDs)
		}
		if err := query.Pluck("user_id", &userIDs).Error; err != nil {
			return nil, err
		}
	case models.RolePrincipal:
		query := db.Model(&models.Principal{})
		if len(schoolIDs) > 0 {
			query = query.Where("school_id IN ?", schoolIDs)
		}
		if err := query.Pluck("user_id", &userIDs).Error; err != nil {
			return nil, err
		}
	case models.RoleTeacher:
		query := db.Model(&models.Teacher{})
		if len(schoolIDs) > 0 {
			query = query.Where("school_id IN ?", schoolIDs)
		}
		if err := query.Pluck("user_id", &userIDs).Error; err != nil {
			return nil, err
		}
	case models.RoleParent:
		query := db.Model(&models.Parent{}).
			Joins("JOIN students ON students.parent_id = parents.id")
		if len(schoolIDs) > 0 {
			query = query.Where("students.school_id IN ?", schoolIDs)
		}
		if err := query.Distinct().Pluck("parents.user_id", &userIDs).Error; err != nil {
			return nil, err
		}
	case models.RoleSuperAdmin:
		query := db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin)
		if err := query.Pluck("id", &userIDs).Error; err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	return userIDs, nil
}

// UserIDsWithinSchools returns the subset of userIDs whose role profile
// belongs to one of the given schools. Parents count through their children's
// schools. Users with no profile in any of the schools are dropped.
func (r *profileRepository) UserIDsWithinSchools(ctx context.Context, userIDs, schoolIDs []uint) ([]uint, error) {
	if len(userIDs) == 0 || len(schoolIDs) == 0 {
		return nil, nil
	}

	db := r.db.WithContext(ctx)
	member := make(map[uint]struct{}, len(userIDs))
	collect := func(query *gorm.DB, column string) error {
		var ids []uint
		if err := query.Distinct().Pluck(column, &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			member[id] = struct{}{}
		}
		return nil
	}

	if err := collect(db.Model(&models.SchoolAdmin{}).
		Where("user_id IN ? AND school_id IN ?", userIDs, schoolIDs), "user_id"); err != nil {
		return nil, err
	}
	if err := collect(db.Model(&models.Principal{}).
		Where("user_id IN ? AND school_id IN ?", userIDs, schoolIDs), "user_id"); err != nil {
		return nil, err
	}
	if err := collect(db.Model(&models.Teacher{}).
		Where("user_id IN ? AND school_id IN ?", userIDs, schoolIDs), "user_id"); err != nil {
		return nil, err
	}
	if err := collect(db.Model(&models.Parent{}).
		Joins("JOIN students ON students.parent_id = parents.id").
		Where("parents.user_id IN ? AND students.school_id IN ?", userIDs, schoolIDs), "parents.user_id"); err != nil {
		return nil, err
	}

	filtered := make([]uint, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := member[id]; ok {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}
