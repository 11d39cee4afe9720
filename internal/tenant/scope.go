package tenant

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// ErrUnknownRole is returned when the caller's role is not recognised.
// Unknown roles deny access instead of falling through to an open filter.
var ErrUnknownRole = errors.New("unknown role")

// Principal carries the identity claims of the authenticated caller.
type Principal struct {
	UserID   uint
	Role     models.UserRole
	SchoolID uint
}

// Scope is the row-level predicate applied to every list/lookup query.
// It is recomputed per request and never cached.
type Scope struct {
	// Unrestricted skips school filtering entirely (SUPER_ADMIN).
	Unrestricted bool
	// Deny rejects every row; the fallback for unresolvable principals.
	Deny bool
	// SchoolIDs restricts rows to the given tenants.
	SchoolIDs []uint
	// OwnerTeacherID additionally restricts owned resources (assignments)
	// to the caller's teacher profile.
	OwnerTeacherID *uint
	// ClassIDs restricts class-scoped resources to the caller's classes
	// (parents: the classes of their children).
	ClassIDs []uint
	// IncludeSchoolWide widens class-scoped queries to rows explicitly
	// marked school-wide.
	IncludeSchoolWide bool
	// OwnerParentID restricts learner records to the caller's own children.
	OwnerParentID *uint
	// StudentIDs restricts per-student resources (submissions, results)
	// to the caller's children.
	StudentIDs []uint
}

// AllowsSchool reports whether rows of the given tenant are visible.
func (s Scope) AllowsSchool(schoolID uint) bool {
	if s.Deny {
		return false
	}
	if s.Unrestricted {
		return true
	}
	for _, id := range s.SchoolIDs {
		if id == schoolID {
			return true
		}
	}
	return false
}

// AllowsClass reports whether class-scoped rows of the given class are visible.
func (s Scope) AllowsClass(classID uint) bool {
	if s.Deny {
		return false
	}
	if s.Unrestricted || len(s.ClassIDs) == 0 {
		return true
	}
	for _, id := range s.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// OwnedBy reports whether the caller owns resources of the given teacher.
// Callers without an ownership restriction own everything in scope.
func (s Scope) OwnedBy(teacherID uint) bool {
	if s.Deny {
		return false
	}
	if s.OwnerTeacherID == nil {
		return true
	}
	return *s.OwnerTeacherID == teacherID
}

// Apply restricts a query to the caller's tenants. Tables are expected to
// carry a school_id column.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if s.Deny {
		return db.Where("1 = 0")
	}
	if s.Unrestricted {
		return db
	}
	if len(s.SchoolIDs) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where("school_id IN ?", s.SchoolIDs)
}

// ApplyOwned restricts owned resources to the caller's teacher profile on
// top of the tenant filter.
func (s Scope) ApplyOwned(db *gorm.DB) *gorm.DB {
	db = s.Apply(db)
	if s.Deny || s.OwnerTeacherID == nil {
		return db
	}
	return db.Where("teacher_id = ?", *s.OwnerTeacherID)
}

// ApplyClass restricts class-scoped resources to the caller's classes on
// top of the tenant filter.
func (s Scope) ApplyClass(db *gorm.DB) *gorm.DB {
	db = s.Apply(db)
	if s.Deny || s.Unrestricted || len(s.ClassIDs) == 0 {
		return db
	}
	return db.Where("class_id IN ?", s.ClassIDs)
}

// ApplyClassOrSchoolWide is ApplyClass for tables carrying a school_wide
// flag: rows marked school-wide stay visible to class-restricted callers.
func (s Scope) ApplyClassOrSchoolWide(db *gorm.DB) *gorm.DB {
	db = s.Apply(db)
	if s.Deny || s.Unrestricted || len(s.ClassIDs) == 0 {
		return db
	}
	if s.IncludeSchoolWide {
		return db.Where("class_id IN ? OR school_wide = ?", s.ClassIDs, true)
	}
	return db.Where("class_id IN ?", s.ClassIDs)
}

// ApplyStudents restricts per-student resources to the caller's children.
func (s Scope) ApplyStudents(db *gorm.DB) *gorm.DB {
	db = s.Apply(db)
	if s.Deny || s.Unrestricted || len(s.StudentIDs) == 0 {
		return db
	}
	return db.Where("student_id IN ?", s.StudentIDs)
}

// AllowsStudent reports whether per-student rows of the given learner are
// visible to the caller.
func (s Scope) AllowsStudent(studentID uint) bool {
	if s.Deny {
		return false
	}
	if s.Unrestricted || len(s.StudentIDs) == 0 {
		return true
	}
	for _, id := range s.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Directory resolves profile rows needed to derive indirect scopes.
type Directory interface {
	TeacherByUserID(ctx context.Context, userID uint) (models.Teacher, error)
	ParentByUserID(ctx context.Context, userID uint) (models.Parent, error)
	ChildrenByParentID(ctx context.Context, parentID uint) ([]models.Student, error)
}

// Resolver derives a Scope from a Principal's role and identity claims.
type Resolver struct {
	dir Directory
}

// NewResolver builds a Resolver backed by the given profile directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve maps (role, userID, schoolID) to the caller's row-level predicate.
// explicitSchoolID narrows a SUPER_ADMIN to a single tenant and is ignored
// for every other role.
func (r *Resolver) Resolve(ctx context.Context, p Principal, explicitSchoolID *uint) (Scope, error) {
	switch p.Role {
	case models.RoleSuperAdmin:
		if explicitSchoolID != nil && *explicitSchoolID != 0 {
			return Scope{SchoolIDs: []uint{*explicitSchoolID}}, nil
		}
		return Scope{Unrestricted: true}, nil

	case models.RoleSchoolAdmin, models.RolePrincipal:
		if p.SchoolID == 0 {
			return Scope{Deny: true}, nil
		}
		return Scope{SchoolIDs: []uint{p.SchoolID}}, nil

	case models.RoleTeacher:
		if p.SchoolID == 0 {
			return Scope{Deny: true}, nil
		}
		teacher, err := r.dir.TeacherByUserID(ctx, p.UserID)
		if err != nil {
			return Scope{Deny: true}, err
		}
		ownerID := teacher.ID
		return Scope{SchoolIDs: []uint{p.SchoolID}, OwnerTeacherID: &ownerID}, nil

	case models.RoleParent:
		return r.resolveParent(ctx, p)

	default:
		return Scope{Deny: true}, ErrUnknownRole
	}
}

func (r *Resolver) resolveParent(ctx context.Context, p Principal) (Scope, error) {
	parent, err := r.dir.ParentByUserID(ctx, p.UserID)
	if err != nil {
		return Scope{Deny: true}, err
	}

	children, err := r.dir.ChildrenByParentID(ctx, parent.ID)
	if err != nil {
		return Scope{Deny: true}, err
	}
	if len(children) == 0 {
		return Scope{Deny: true}, nil
	}

	schoolSet := make(map[uint]struct{}, len(children))
	classSet := make(map[uint]struct{}, len(children))
	for _, child := range children {
		schoolSet[child.SchoolID] = struct{}{}
		if child.ClassID != nil {
			classSet[*child.ClassID] = struct{}{}
		}
	}

	parentID := parent.ID
	scope := Scope{IncludeSchoolWide: true, OwnerParentID: &parentID}
	for id := range schoolSet {
		scope.SchoolIDs = append(scope.SchoolIDs, id)
	}
	for id := range classSet {
		scope.ClassIDs = append(scope.ClassIDs, id)
	}
	for _, child := range children {
		scope.StudentIDs = append(scope.StudentIDs, child.ID)
	}

	return scope, nil
}
