package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
)

type ProfileRepoSuite struct {
	suite.Suite
	mini *miniredis.Miniredis
	repo *ProfileRepo
	ctx  context.Context
}

func TestProfileRepoSuite(t *testing.T) {
	suite.Run(t, new(ProfileRepoSuite))
}

func (s *ProfileRepoSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.repo = NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}))
	s.ctx = context.Background()
}

func (s *ProfileRepoSuite) TearDownTest() {
	if s.repo != nil {
		_ = s.repo.Close()
	}
}

func (s *ProfileRepoSuite) TestOverwriteThenGet() {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	err := s.repo.Upsert(s.ctx, &model.Profile{UserID: "u1", Username: "alice", Email: "alice@x.com", CreatedAt: created}, false)
	s.Require().NoError(err)

	p, err := s.repo.Get(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("alice", p.Username)
	s.Equal("alice@x.com", p.Email)
	s.Equal(model.RolePlayer, p.Role)
	s.True(created.Equal(p.CreatedAt))

	s.Equal("player", s.mini.HGet(profileKey("u1"), fieldRole))
}

func (s *ProfileRepoSuite) TestOverwriteDropsStaleFields() {
	s.mini.HSet(profileKey("u1"), fieldRole, "admin", "extra", "x")

	s.Require().NoError(s.repo.Upsert(s.ctx, &model.Profile{UserID: "u1", Username: "bob", Email: "b@x.com"}, false))

	s.Equal("player", s.mini.HGet(profileKey("u1"), fieldRole))
	s.Empty(s.mini.HGet(profileKey("u1"), "extra"))
}

func (s *ProfileRepoSuite) TestMergePreservesRoleAndCreatedAt() {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.Upsert(s.ctx, &model.Profile{
		UserID: "g1", Username: "gina", Email: "g@x.com", Role: model.RoleAdmin, CreatedAt: created,
	}, false))

	s.Require().NoError(s.repo.Upsert(s.ctx, &model.Profile{UserID: "g1", Username: "Gina G", Email: "g@gmail.com"}, true))

	p, err := s.repo.Get(s.ctx, "g1")
	s.Require().NoError(err)
	s.Equal("Gina G", p.Username)
	s.Equal("g@gmail.com", p.Email)
	s.Equal(model.RoleAdmin, p.Role)
	s.True(created.Equal(p.CreatedAt))
}

func (s *ProfileRepoSuite) TestMergeOnNewProfileDefaultsRole() {
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.repo.now = func() time.Time { return fixed }

	s.Require().NoError(s.repo.Upsert(s.ctx, &model.Profile{UserID: "n1", Email: "n@x.com"}, true))

	p, err := s.repo.Get(s.ctx, "n1")
	s.Require().NoError(err)
	s.Equal(model.RolePlayer, p.Role)
	s.Empty(p.Username)
	s.True(fixed.Equal(p.CreatedAt))
}

func (s *ProfileRepoSuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, "ghost")
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *ProfileRepoSuite) TestUpsertFailsWhenServerDown() {
	s.mini.Close()
	err := s.repo.Upsert(s.ctx, &model.Profile{UserID: "u1", Username: "a"}, false)
	s.Error(err)
}
