package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// DashboardService produces aggregated per-role dashboard metrics.
type DashboardService interface {
	GetDashboard(ctx context.Context, principal tenant.Principal, scope tenant.Scope) (dto.DashboardResponse, error)
}

type dashboardService struct {
	repo     repository.DashboardRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(repo repository.DashboardRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

// GetDashboard aggregates counters visible inside the caller's scope. The
// cache key carries the scope's school set: a super admin narrowing to one
// school must not be served another school's cached numbers.
func (s *dashboardService) GetDashboard(ctx context.Context, principal tenant.Principal, scope tenant.Scope) (dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:%s:%d:%s", principal.Role, principal.UserID, scopeCacheKey(scope))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", principal.UserID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	response, err := s.build(ctx, principal, scope)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) build(ctx context.Context, principal tenant.Principal, scope tenant.Scope) (dto.DashboardResponse, error) {
	now := s.now().UTC()
	response := dto.DashboardResponse{GeneratedAt: now}

	if principal.Role == models.RoleSuperAdmin {
		schools, err := s.repo.CountSchools(ctx, scope)
		if err != nil {
			return dto.DashboardResponse{}, err
		}
		response.Schools = schools
	}

	students, err := s.repo.CountStudents(ctx, scope)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.Students = students

	teachers, err := s.repo.CountTeachers(ctx, scope)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.Teachers = teachers

	classes, err := s.repo.CountClasses(ctx, scope)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.Classes = classes

	assignmentsDue, err := s.repo.CountAssignmentsDueAfter(ctx, scope, now)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.AssignmentsDue = assignmentsDue

	// Pending approvals only matter to roles that can decide them.
	switch principal.Role {
	case models.RoleSuperAdmin, models.RoleSchoolAdmin, models.RolePrincipal:
		pending, err := s.repo.CountPendingApprovals(ctx, scope)
		if err != nil {
			return dto.DashboardResponse{}, err
		}
		response.PendingApprovals = pending
	}

	events, err := s.repo.CountUpcomingEvents(ctx, scope, now)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.UpcomingEvents = events

	return response, nil
}

// scopeCacheKey renders the school set a scope covers, so differently
// narrowed scopes never share a cache entry.
func scopeCacheKey(scope tenant.Scope) string {
	if scope.Deny {
		return "none"
	}
	if len(scope.SchoolIDs) == 0 {
		return "all"
	}
	ids := make([]string, len(scope.SchoolIDs))
	for i, id := range scope.SchoolIDs {
		ids[i] = strconv.FormatUint(uint64(id), 10)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
