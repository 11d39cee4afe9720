package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

type fakeDirectory struct {
	teachers map[uint]models.Teacher
	parents  map[uint]models.Parent
	children map[uint][]models.Student
}

func (d *fakeDirectory) TeacherByUserID(_ context.Context, userID uint) (models.Teacher, error) {
	teacher, ok := d.teachers[userID]
	if !ok {
		return models.Teacher{}, gorm.ErrRecordNotFound
	}
	return teacher, nil
}

func (d *fakeDirectory) ParentByUserID(_ context.Context, userID uint) (models.Parent, error) {
	parent, ok := d.parents[userID]
	if !ok {
		return models.Parent{}, gorm.ErrRecordNotFound
	}
	return parent, nil
}

func (d *fakeDirectory) ChildrenByParentID(_ context.Context, parentID uint) ([]models.Student, error) {
	return d.children[parentID], nil
}

func uintPtr(v uint) *uint { return &v }

func TestResolveSuperAdmin(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{})

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: 1, Role: models.RoleSuperAdmin}, nil)
	require.NoError(t, err)
	require.True(t, scope.Unrestricted)
	require.False(t, scope.Deny)

	// An explicit school narrows the super admin to a single tenant.
	scope, err = resolver.Resolve(context.Background(), Principal{UserID: 1, Role: models.RoleSuperAdmin}, uintPtr(7))
	require.NoError(t, err)
	require.False(t, scope.Unrestricted)
	require.Equal(t, []uint{7}, scope.SchoolIDs)
	require.True(t, scope.AllowsSchool(7))
	require.False(t, scope.AllowsSchool(8))
}

func TestResolveSchoolBoundRoles(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{})

	for _, role := range []models.UserRole{models.RoleSchoolAdmin, models.RolePrincipal} {
		scope, err := resolver.Resolve(context.Background(), Principal{UserID: 2, Role: role, SchoolID: 3}, nil)
		require.NoError(t, err)
		require.Equal(t, []uint{3}, scope.SchoolIDs)
		require.Nil(t, scope.OwnerTeacherID)

		// Without a school claim there is nothing to scope to.
		scope, err = resolver.Resolve(context.Background(), Principal{UserID: 2, Role: role}, nil)
		require.NoError(t, err)
		require.True(t, scope.Deny)
	}
}

func TestResolveTeacher(t *testing.T) {
	dir := &fakeDirectory{teachers: map[uint]models.Teacher{
		10: {ID: 55, UserID: 10, SchoolID: 3},
	}}
	resolver := NewResolver(dir)

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: 10, Role: models.RoleTeacher, SchoolID: 3}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint{3}, scope.SchoolIDs)
	require.NotNil(t, scope.OwnerTeacherID)
	require.Equal(t, uint(55), *scope.OwnerTeacherID)
	require.True(t, scope.OwnedBy(55))
	require.False(t, scope.OwnedBy(56))
}

func TestResolveTeacherWithoutProfileDenies(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{})

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: 99, Role: models.RoleTeacher, SchoolID: 3}, nil)
	require.Error(t, err)
	require.True(t, scope.Deny)
}

func TestResolveParentDerivesScopeFromChildren(t *testing.T) {
	dir := &fakeDirectory{
		parents: map[uint]models.Parent{20: {ID: 8, UserID: 20}},
		children: map[uint][]models.Student{
			8: {
				{ID: 100, SchoolID: 1, ClassID: uintPtr(4), ParentID: 8},
				{ID: 101, SchoolID: 2, ClassID: uintPtr(9), ParentID: 8},
				{ID: 102, SchoolID: 1, ParentID: 8}, // not yet assigned to a class
			},
		},
	}
	resolver := NewResolver(dir)

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: 20, Role: models.RoleParent}, nil)
	require.NoError(t, err)
	require.False(t, scope.Deny)
	require.ElementsMatch(t, []uint{1, 2}, scope.SchoolIDs)
	require.ElementsMatch(t, []uint{4, 9}, scope.ClassIDs)
	require.ElementsMatch(t, []uint{100, 101, 102}, scope.StudentIDs)
	require.True(t, scope.IncludeSchoolWide)
	require.NotNil(t, scope.OwnerParentID)
	require.Equal(t, uint(8), *scope.OwnerParentID)

	require.True(t, scope.AllowsStudent(100))
	require.False(t, scope.AllowsStudent(200))
	require.True(t, scope.AllowsClass(4))
	require.False(t, scope.AllowsClass(5))
}

func TestResolveParentWithoutChildrenDenies(t *testing.T) {
	dir := &fakeDirectory{parents: map[uint]models.Parent{20: {ID: 8, UserID: 20}}}
	resolver := NewResolver(dir)

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: 20, Role: models.RoleParent}, nil)
	require.NoError(t, err)
	require.True(t, scope.Deny)
	require.False(t, scope.AllowsSchool(1))
}

func TestResolveUnknownRoleDenies(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{})

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: 5, Role: "AUDITOR", SchoolID: 1}, nil)
	require.ErrorIs(t, err, ErrUnknownRole)
	require.True(t, scope.Deny)
	require.False(t, scope.AllowsSchool(1))
	require.False(t, scope.AllowsClass(1))
	require.False(t, scope.AllowsStudent(1))
	require.False(t, scope.OwnedBy(1))
}

func TestScopePredicates(t *testing.T) {
	unrestricted := Scope{Unrestricted: true}
	require.True(t, unrestricted.AllowsSchool(42))
	require.True(t, unrestricted.AllowsClass(42))
	require.True(t, unrestricted.AllowsStudent(42))

	school := Scope{SchoolIDs: []uint{1}}
	require.True(t, school.AllowsSchool(1))
	require.False(t, school.AllowsSchool(2))
	// No class restriction means every class in the school is visible.
	require.True(t, school.AllowsClass(9))

	denied := Scope{Deny: true}
	require.False(t, denied.AllowsSchool(1))
	require.False(t, denied.OwnedBy(1))
}
